// Package health enforces the per-identity usage envelope: admission
// decisions stack a cooldown gate, minimum request spacing, and trailing
// hourly and daily caps. Request cadence is the primary detection signal
// being defended against, so every attempt is also recorded in an
// append-only request log.
package health

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"

	"liscraper/pkg/config"
	liserrors "liscraper/pkg/errors"
	"liscraper/pkg/humanize"
	"liscraper/pkg/logger"
	"liscraper/pkg/models"
	"liscraper/pkg/storage"
	"liscraper/pkg/vault"
)

// CredentialSource resolves a user's active credential. Satisfied by
// *vault.Vault.
type CredentialSource interface {
	Get(userID string) (*models.Credential, error)
}

// Decision is the result of an admission check. WaitTime is how long the
// caller should wait before asking again when Allowed is false.
type Decision struct {
	Allowed  bool
	Reason   string
	WaitTime time.Duration
}

// Tracker owns AccountHealth rows and the request log.
type Tracker struct {
	store       *storage.Store
	credentials CredentialSource
	cfg         config.LimitsConfig
	log         logger.Logger
	now         func() time.Time
	spacing     func() time.Duration
}

// NewTracker creates a Tracker. The enforced inter-request spacing is drawn
// fresh from the configured window on every check so the identity's cadence
// never settles into a fixed beat.
func NewTracker(store *storage.Store, credentials CredentialSource, cfg config.LimitsConfig, log logger.Logger) *Tracker {
	sim := humanize.New()
	return &Tracker{
		store:       store,
		credentials: credentials,
		cfg:         cfg,
		log:         log,
		now:         time.Now,
		spacing: func() time.Duration {
			return sim.Delay(cfg.MinRequestSpacing, cfg.MaxRequestSpacing)
		},
	}
}

// CanMakeRequest evaluates the admission checks in strict order; the first
// failure wins. A cooldown blocks everything for the identity regardless of
// any other counter.
func (t *Tracker) CanMakeRequest(userID string) (Decision, error) {
	cred, err := t.credentials.Get(userID)
	if err != nil {
		return Decision{Allowed: false, Reason: "no credentials on file"}, nil
	}

	now := t.now()
	h, err := t.get(cred.EmailHash)
	if err != nil {
		return Decision{}, err
	}
	if h == nil {
		// First request for this identity
		return Decision{Allowed: true}, nil
	}

	if h.CooldownUntil != nil && h.CooldownUntil.After(now) {
		return Decision{
			Allowed:  false,
			Reason:   "account is cooling down",
			WaitTime: h.CooldownUntil.Sub(now),
		}, nil
	}

	if h.LastRequestAt != nil {
		required := t.spacing()
		elapsed := now.Sub(*h.LastRequestAt)
		if elapsed < required {
			return Decision{
				Allowed:  false,
				Reason:   "minimum request spacing not elapsed",
				WaitTime: required - elapsed,
			}, nil
		}
	}

	hourly, err := t.countSuccesses(cred.EmailHash, now.Add(-time.Hour))
	if err != nil {
		return Decision{}, err
	}
	if hourly >= t.cfg.HourlyCap {
		return Decision{
			Allowed:  false,
			Reason:   "hourly request cap reached",
			WaitTime: time.Hour,
		}, nil
	}

	daily, err := t.countSuccesses(cred.EmailHash, now.Add(-24*time.Hour))
	if err != nil {
		return Decision{}, err
	}
	if daily >= t.cfg.DailyCap {
		return Decision{
			Allowed:  false,
			Reason:   "daily request cap reached",
			WaitTime: 24 * time.Hour,
		}, nil
	}

	return Decision{Allowed: true}, nil
}

// LogRequest appends one immutable request-log row and folds the outcome
// into the identity's health counters. A checkpoint-tagged error always
// sets a cooldown and deactivates the account, independent of any other
// counting. Consecutive failures past the configured threshold also apply a
// pause cooldown.
func (t *Tracker) LogRequest(userID, email, targetURL string, success bool, latency time.Duration, attemptErr error) error {
	emailHash := vault.HashEmail(email)
	now := t.now()
	checkpoint := liserrors.IsCheckpointRequired(attemptErr)

	row := &models.RequestLog{
		ID:          uuid.NewString(),
		UserID:      userID,
		EmailHash:   emailHash,
		TargetURL:   targetURL,
		RequestedAt: now,
		Success:     success,
		LatencyMs:   latency.Milliseconds(),
		Checkpoint:  checkpoint,
	}
	if attemptErr != nil {
		row.ErrorText = attemptErr.Error()
	}
	if err := t.store.Badger().Insert(row.ID, row); err != nil {
		return fmt.Errorf("failed to append request log: %w", err)
	}

	h, err := t.get(emailHash)
	if err != nil {
		return err
	}
	if h == nil {
		h = &models.AccountHealth{
			EmailHash: emailHash,
			IsActive:  true,
		}
	}

	h.RequestCount++
	h.LastRequestAt = &now

	switch {
	case checkpoint:
		h.CheckpointCount++
		h.LastCheckpointAt = &now
		cooldown := now.Add(t.cfg.CheckpointCooldown)
		h.CooldownUntil = &cooldown
		h.IsActive = false
		t.log.WithFields(map[string]interface{}{
			"email_hash":     emailHash[:12],
			"cooldown_until": cooldown,
		}).Warn("Checkpoint detected, account deactivated")
	case success:
		h.SuccessCount++
		h.ConsecutiveFailures = 0
		h.LastSuccessAt = &now
	default:
		h.FailureCount++
		h.ConsecutiveFailures++
		if t.cfg.PauseAfterFailures > 0 && h.ConsecutiveFailures >= t.cfg.PauseAfterFailures {
			pause := now.Add(t.cfg.FailurePause)
			if h.CooldownUntil == nil || pause.After(*h.CooldownUntil) {
				h.CooldownUntil = &pause
			}
			h.ConsecutiveFailures = 0
			t.log.WithFields(map[string]interface{}{
				"email_hash":     emailHash[:12],
				"cooldown_until": pause,
			}).Warn("Consecutive failure threshold reached, pausing account")
		}
	}

	h.UpdatedAt = now
	if err := t.store.Badger().Upsert(h.EmailHash, h); err != nil {
		return fmt.Errorf("failed to update account health: %w", err)
	}

	return nil
}

// ApplySessionCooldown pushes the identity's cooldown out to
// now + SessionCooldown. Called when a cached session had to be abandoned:
// a session the platform bounced usually means recent activity on the
// account was flagged, so the fresh login it forces should not be followed
// by more traffic right away. An existing later cooldown is never
// shortened.
func (t *Tracker) ApplySessionCooldown(email string) error {
	emailHash := vault.HashEmail(email)
	now := t.now()

	h, err := t.get(emailHash)
	if err != nil {
		return err
	}
	if h == nil {
		h = &models.AccountHealth{
			EmailHash: emailHash,
			IsActive:  true,
		}
	}

	until := now.Add(t.cfg.SessionCooldown)
	if h.CooldownUntil != nil && h.CooldownUntil.After(until) {
		return nil
	}
	h.CooldownUntil = &until
	h.UpdatedAt = now

	if err := t.store.Badger().Upsert(h.EmailHash, h); err != nil {
		return fmt.Errorf("failed to update account health: %w", err)
	}
	t.log.WithFields(map[string]interface{}{
		"email_hash":     emailHash[:12],
		"cooldown_until": until,
	}).Warn("Session rejected by target, applying session cooldown")
	return nil
}

// Status returns a read-only snapshot of an identity's health.
func (t *Tracker) Status(userID string) (*models.AccountHealth, error) {
	cred, err := t.credentials.Get(userID)
	if err != nil {
		return nil, err
	}
	h, err := t.get(cred.EmailHash)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return &models.AccountHealth{EmailHash: cred.EmailHash, IsActive: true}, nil
	}
	return h, nil
}

func (t *Tracker) get(emailHash string) (*models.AccountHealth, error) {
	var h models.AccountHealth
	if err := t.store.Badger().Get(emailHash, &h); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load account health: %w", err)
	}
	return &h, nil
}

func (t *Tracker) countSuccesses(emailHash string, since time.Time) (int, error) {
	count, err := t.store.Badger().Count(&models.RequestLog{},
		badgerhold.Where("EmailHash").Eq(emailHash).Index("EmailHash").
			And("Success").Eq(true).
			And("RequestedAt").Gt(since))
	if err != nil {
		return 0, fmt.Errorf("failed to count requests: %w", err)
	}
	return int(count), nil
}
