package login

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"liscraper/pkg/browser"
	"liscraper/pkg/config"
	"liscraper/pkg/logger"
)

// VerificationSession pairs an opaque id with a live browser page paused on
// a code prompt. It expires independently of any cached session.
type VerificationSession struct {
	ID           string
	UserID       string
	EmailHash    string
	Page         browser.Page
	AttemptsLeft int
	ExpiresAt    time.Time
}

// Registry holds pending verification sessions. Held pages wait on a human
// to fetch a code, so they are long-lived by design; the sweep closes and
// drops whatever the human abandoned so pages cannot accumulate forever.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*VerificationSession

	ttl         time.Duration
	maxAttempts int
	cron        *cron.Cron
	log         logger.Logger
}

// NewRegistry creates a registry with the configured attempt and age bounds.
func NewRegistry(cfg config.VerificationConfig, log logger.Logger) (*Registry, error) {
	r := &Registry{
		sessions:    make(map[string]*VerificationSession),
		ttl:         cfg.TTL,
		maxAttempts: cfg.MaxAttempts,
		cron:        cron.New(),
		log:         log,
	}
	if _, err := r.cron.AddFunc(cfg.SweepSchedule, r.sweep); err != nil {
		return nil, err
	}
	return r, nil
}

// Start begins the background expiry sweep.
func (r *Registry) Start() {
	r.cron.Start()
}

// Stop halts the sweep and closes every held page.
func (r *Registry) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, vs := range r.sessions {
		vs.Page.Close()
		delete(r.sessions, id)
	}
}

// Register holds page under a fresh opaque id and returns the session. The
// caller hands ownership of the page to the registry until Complete or
// Discard.
func (r *Registry) Register(userID, emailHash string, page browser.Page) *VerificationSession {
	vs := &VerificationSession{
		ID:           uuid.NewString(),
		UserID:       userID,
		EmailHash:    emailHash,
		Page:         page,
		AttemptsLeft: r.maxAttempts,
		ExpiresAt:    time.Now().Add(r.ttl),
	}

	r.mu.Lock()
	r.sessions[vs.ID] = vs
	r.mu.Unlock()

	r.log.InfoWithFields("verification session held", map[string]interface{}{
		"verification_id": vs.ID,
		"expires_at":      vs.ExpiresAt,
	})
	return vs
}

// Get returns the live session for id, or false if it is unknown or already
// expired. An expired entry found here is discarded on the spot rather than
// waiting for the sweep.
func (r *Registry) Get(id string) (*VerificationSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	vs, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	if time.Now().After(vs.ExpiresAt) {
		vs.Page.Close()
		delete(r.sessions, id)
		return nil, false
	}
	return vs, true
}

// Complete detaches the session without closing its page. Used when the
// code was accepted and the caller continues scraping on that page.
func (r *Registry) Complete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Discard closes the held page and removes the session.
func (r *Registry) Discard(id string) {
	r.mu.Lock()
	vs, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if ok {
		vs.Page.Close()
	}
}

// RecordFailure burns one attempt for id and reports how many remain. At
// zero the session is discarded and its page closed.
func (r *Registry) RecordFailure(id string) int {
	r.mu.Lock()
	vs, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return 0
	}
	vs.AttemptsLeft--
	remaining := vs.AttemptsLeft
	exhausted := remaining <= 0
	if exhausted {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if exhausted {
		vs.Page.Close()
		r.log.WarnWithFields("verification attempts exhausted", map[string]interface{}{
			"verification_id": id,
		})
	}
	return remaining
}

// Len reports how many sessions are currently held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) sweep() {
	now := time.Now()

	r.mu.Lock()
	var expired []*VerificationSession
	for id, vs := range r.sessions {
		if now.After(vs.ExpiresAt) {
			expired = append(expired, vs)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, vs := range expired {
		vs.Page.Close()
		r.log.InfoWithFields("expired verification session reclaimed", map[string]interface{}{
			"verification_id": vs.ID,
		})
	}
}
