package humanize

import (
	"context"
	"testing"
	"time"
)

func TestDelayBounds(t *testing.T) {
	s := NewWithSeed(42)
	min, max := 90*time.Second, 150*time.Second

	for i := 0; i < 1000; i++ {
		d := s.Delay(min, max)
		if d < min || d > max {
			t.Fatalf("delay %s outside [%s, %s]", d, min, max)
		}
	}
}

func TestDelayDegenerateRange(t *testing.T) {
	s := NewWithSeed(42)
	if d := s.Delay(time.Second, time.Second); d != time.Second {
		t.Errorf("expected min back for an empty range, got %s", d)
	}
	if d := s.Delay(2*time.Second, time.Second); d != 2*time.Second {
		t.Errorf("expected min back for an inverted range, got %s", d)
	}
}

func TestHesitationBounds(t *testing.T) {
	s := NewWithSeed(7)
	for i := 0; i < 1000; i++ {
		d := s.Hesitation()
		if d < 300*time.Millisecond || d > 1200*time.Millisecond {
			t.Fatalf("hesitation %s out of bounds", d)
		}
	}
}

func TestReadingTimeBounded(t *testing.T) {
	s := NewWithSeed(7)

	short := s.ReadingTime(1)
	if short < 2*time.Second {
		t.Errorf("expected reading time floor of 2s, got %s", short)
	}

	long := s.ReadingTime(1_000_000)
	// cap plus max jitter of a quarter
	if long > 15*time.Second+15*time.Second/4 {
		t.Errorf("expected reading time to stay bounded, got %s", long)
	}
}

func TestTypingDelaysPerCharacter(t *testing.T) {
	s := NewWithSeed(7)
	text := "user@example.com"

	delays := s.TypingDelays(text)
	if len(delays) != len([]rune(text)) {
		t.Fatalf("expected %d delays, got %d", len([]rune(text)), len(delays))
	}
	for i, d := range delays {
		if d < 80*time.Millisecond {
			t.Errorf("delay %d too short: %s", i, d)
		}
		if d > 220*time.Millisecond+900*time.Millisecond {
			t.Errorf("delay %d too long: %s", i, d)
		}
	}
}

func TestSeedDeterminism(t *testing.T) {
	a := NewWithSeed(99)
	b := NewWithSeed(99)

	for i := 0; i < 100; i++ {
		if a.Delay(time.Second, time.Minute) != b.Delay(time.Second, time.Minute) {
			t.Fatal("expected identical sequences from identical seeds")
		}
	}
}

func TestMousePathEndsAtTarget(t *testing.T) {
	s := NewWithSeed(7)
	from, to := Point{X: 10, Y: 10}, Point{X: 400, Y: 300}

	path := s.MousePath(from, to, 20)
	if len(path) != 20 {
		t.Fatalf("expected 20 points, got %d", len(path))
	}
	if path[len(path)-1] != to {
		t.Errorf("expected the path to end at the target, got %+v", path[len(path)-1])
	}
}

func TestScrollStepsCoverPage(t *testing.T) {
	s := NewWithSeed(7)
	height := 5000

	total := 0
	for _, step := range s.ScrollSteps(height) {
		total += step
	}
	if total != height {
		t.Errorf("expected scroll deltas to sum to %d, got %d", height, total)
	}

	if steps := s.ScrollSteps(0); steps != nil {
		t.Error("expected no steps for a zero-height page")
	}
}

func TestWaitHonorsContext(t *testing.T) {
	s := NewWithSeed(7)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Wait(ctx, time.Minute); err == nil {
		t.Error("expected a cancelled context to abort the wait")
	}

	if err := s.Wait(context.Background(), time.Millisecond); err != nil {
		t.Errorf("expected a short wait to complete, got %v", err)
	}
}

func TestJitterBounds(t *testing.T) {
	s := NewWithSeed(7)
	base := 10 * time.Second

	for i := 0; i < 1000; i++ {
		d := s.Jitter(base, 0.2)
		if d < 8*time.Second || d > 12*time.Second {
			t.Fatalf("jitter %s outside ±20%% of %s", d, base)
		}
	}
	if s.Jitter(base, 0) != base {
		t.Error("expected zero fraction to return the base unchanged")
	}
}
