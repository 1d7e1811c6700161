// Package humanize generates bounded randomized delays and interaction
// patterns. Timing statistics are a primary automation-detection signal for
// the target site, so every browser interaction is paced through these
// generators rather than firing immediately.
package humanize

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Simulator produces randomized interaction timing. A seeded source makes
// behavior reproducible in tests.
type Simulator struct {
	rng *rand.Rand
}

// New creates a Simulator seeded from the current time.
func New() *Simulator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed creates a deterministic Simulator for tests.
func NewWithSeed(seed int64) *Simulator {
	return &Simulator{rng: rand.New(rand.NewSource(seed))}
}

// Delay returns a random duration in [min, max].
func (s *Simulator) Delay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(s.rng.Int63n(int64(max-min)))
}

// Hesitation returns a short pre-interaction pause, the kind a person takes
// before clicking something.
func (s *Simulator) Hesitation() time.Duration {
	return s.Delay(300*time.Millisecond, 1200*time.Millisecond)
}

// ReadingTime models how long a person spends on a page with the given
// amount of visible text, bounded so very long pages do not stall a scrape.
func (s *Simulator) ReadingTime(textLength int) time.Duration {
	// Roughly 25 characters per second, plus jitter
	base := time.Duration(textLength) * 40 * time.Millisecond
	if base < 2*time.Second {
		base = 2 * time.Second
	}
	if base > 15*time.Second {
		base = 15 * time.Second
	}
	jitter := s.Delay(0, base/4)
	return base + jitter
}

// TypingDelays returns a per-character delay sequence for typing the given
// string. Most keystrokes land between 80 and 220ms with an occasional
// longer pause, as if glancing back at the source.
func (s *Simulator) TypingDelays(text string) []time.Duration {
	delays := make([]time.Duration, len([]rune(text)))
	for i := range delays {
		delays[i] = s.Delay(80*time.Millisecond, 220*time.Millisecond)
		if s.rng.Float64() < 0.08 {
			delays[i] += s.Delay(300*time.Millisecond, 900*time.Millisecond)
		}
	}
	return delays
}

// Point is a pointer coordinate.
type Point struct {
	X float64
	Y float64
}

// MousePath returns a jittered path between two points. Straight-line
// pointer movement is trivially detectable; the path bows slightly and
// each step carries random offset noise.
func (s *Simulator) MousePath(from, to Point, steps int) []Point {
	if steps < 2 {
		steps = 2
	}
	path := make([]Point, steps)
	// Control point offset perpendicular-ish to the travel direction
	bowX := (to.Y - from.Y) * (s.rng.Float64()*0.3 - 0.15)
	bowY := (to.X - from.X) * (s.rng.Float64()*0.3 - 0.15)
	for i := 0; i < steps; i++ {
		t := float64(i) / float64(steps-1)
		// Quadratic bezier through the bowed midpoint
		mx := (from.X+to.X)/2 + bowX
		my := (from.Y+to.Y)/2 + bowY
		x := (1-t)*(1-t)*from.X + 2*(1-t)*t*mx + t*t*to.X
		y := (1-t)*(1-t)*from.Y + 2*(1-t)*t*my + t*t*to.Y
		path[i] = Point{
			X: x + s.rng.Float64()*2 - 1,
			Y: y + s.rng.Float64()*2 - 1,
		}
	}
	path[steps-1] = to
	return path
}

// ScrollSteps returns a sequence of scroll deltas that together cover the
// given page height, in uneven chunks with occasional small scroll-backs.
func (s *Simulator) ScrollSteps(pageHeight int) []int {
	if pageHeight <= 0 {
		return nil
	}
	var steps []int
	covered := 0
	for covered < pageHeight {
		step := 200 + s.rng.Intn(400)
		if covered+step > pageHeight {
			step = pageHeight - covered
		}
		steps = append(steps, step)
		covered += step
		if s.rng.Float64() < 0.15 {
			back := 40 + s.rng.Intn(80)
			steps = append(steps, -back)
			covered -= back
		}
	}
	return steps
}

// Wait sleeps for d or until ctx is done, returning the context error in
// that case. All pacing goes through here so a cancelled scrape never sits
// in a bare sleep.
func (s *Simulator) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Jitter scales d by a random factor in [1-fraction, 1+fraction].
func (s *Simulator) Jitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	fraction = math.Min(fraction, 1)
	scale := 1 + (s.rng.Float64()*2-1)*fraction
	return time.Duration(float64(d) * scale)
}
