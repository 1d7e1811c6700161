// Package scraper composes the vault, rate limiter, session cache, behavior
// simulator and login flow into single scrape operations. It is the one
// place the mandatory bookkeeping happens: every attempt that gets past
// admission closes its page and writes a request log row on every exit
// path.
package scraper

import (
	"context"
	"fmt"
	"time"

	"liscraper/pkg/browser"
	"liscraper/pkg/config"
	liserrors "liscraper/pkg/errors"
	"liscraper/pkg/health"
	"liscraper/pkg/humanize"
	"liscraper/pkg/logger"
	"liscraper/pkg/login"
	"liscraper/pkg/models"
	"liscraper/pkg/session"
)

// CredentialVault is the credential surface the orchestrator needs.
type CredentialVault interface {
	Get(userID string) (*models.Credential, error)
	Retrieve(userID string) (email, password string, err error)
	MarkValidated(userID string) error
}

// HealthGate is the admission-and-bookkeeping surface of the rate limiter.
type HealthGate interface {
	CanMakeRequest(userID string) (health.Decision, error)
	LogRequest(userID, email, targetURL string, success bool, latency time.Duration, attemptErr error) error
	ApplySessionCooldown(email string) error
}

// LoginFlow drives and classifies the credential form.
type LoginFlow interface {
	Login(ctx context.Context, page browser.Page, email, password string) (login.Outcome, error)
	SubmitCode(ctx context.Context, page browser.Page, code string) (login.Outcome, error)
	Classify(ctx context.Context, page browser.Page) (login.Outcome, error)
}

// ScrapeRequest is one caller-supplied scrape job. Timeout overrides the
// configured navigation timeout when positive.
type ScrapeRequest struct {
	UserID     string
	ProfileURL string
	Timeout    time.Duration
}

// VerificationResult is what a code submission returns. Success false with
// a nil error means the code was wrong but the held page remains open for
// another attempt.
type VerificationResult struct {
	Success      bool
	AttemptsLeft int
}

// Orchestrator runs scrape operations against a single shared browser.
type Orchestrator struct {
	vault    CredentialVault
	health   HealthGate
	sessions session.Repository
	driver   browser.Driver
	flow     LoginFlow
	registry *login.Registry
	sim      *humanize.Simulator
	cfg      *config.Config
	log      logger.Logger
}

// New wires an Orchestrator from its parts.
func New(vault CredentialVault, health HealthGate, sessions session.Repository, driver browser.Driver, flow LoginFlow, registry *login.Registry, sim *humanize.Simulator, cfg *config.Config, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		vault:    vault,
		health:   health,
		sessions: sessions,
		driver:   driver,
		flow:     flow,
		registry: registry,
		sim:      sim,
		cfg:      cfg,
		log:      log,
	}
}

// ScrapeProfile runs one scrape end to end. Denials before the attempt
// starts (validation, missing credentials, rate limiting) touch no browser
// state and write no log row; once credentials are in hand the attempt is
// on the books and both the page close and the health write happen on every
// return path.
func (o *Orchestrator) ScrapeProfile(ctx context.Context, req ScrapeRequest) (profile *models.ScrapedProfile, err error) {
	if req.UserID == "" {
		return nil, liserrors.NewValidation("userID is required")
	}
	if req.ProfileURL == "" {
		return nil, liserrors.NewValidation("profileURL is required")
	}

	cred, err := o.vault.Get(req.UserID)
	if err != nil {
		return nil, err
	}

	decision, err := o.health.CanMakeRequest(req.UserID)
	if err != nil {
		return nil, liserrors.NewScrapingFailed("admission check failed", err)
	}
	if !decision.Allowed {
		o.log.WarnWithFields("request denied", map[string]interface{}{
			"user_id": req.UserID,
			"reason":  decision.Reason,
			"wait":    decision.WaitTime.String(),
		})
		return nil, liserrors.NewRateLimitExceeded(decision.Reason, decision.WaitTime)
	}

	email, password, err := o.vault.Retrieve(req.UserID)
	if err != nil {
		return nil, err
	}

	// The attempt is now live: from here every exit closes the page (unless
	// the registry took ownership of it) and writes the log row.
	start := time.Now()
	held := false
	var page browser.Page
	defer func() {
		if page != nil && !held {
			page.Close()
		}
		if logErr := o.health.LogRequest(req.UserID, email, req.ProfileURL, err == nil, time.Since(start), err); logErr != nil {
			o.log.WithError(logErr).Error("failed to record request outcome")
		}
	}()

	page, err = o.driver.Acquire(ctx)
	if err != nil {
		err = liserrors.NewScrapingFailed("failed to acquire browser page", err)
		return nil, err
	}

	authenticated, err := o.restoreSession(ctx, page, email)
	if err != nil {
		return nil, err
	}
	if !authenticated {
		var outcome login.Outcome
		outcome, err = o.flow.Login(ctx, page, email, password)
		if err != nil {
			err = liserrors.NewScrapingFailed("login flow failed", err)
			return nil, err
		}

		switch outcome {
		case login.OutcomeSuccess:
			if err = o.captureSession(ctx, page, cred, email); err != nil {
				return nil, err
			}
		case login.OutcomeLoginFailed:
			err = liserrors.NewLoginFailed("credentials rejected by target")
			return nil, err
		case login.OutcomePermanentCheckpoint:
			o.invalidateSession(email)
			err = liserrors.NewCheckpointRequired("login challenged with no code path")
			return nil, err
		case login.OutcomeEmailVerificationPending:
			vs := o.registry.Register(req.UserID, cred.EmailHash, page)
			held = true
			err = liserrors.NewEmailVerificationRequired(vs.ID)
			return nil, err
		}
	}

	if err = o.sim.Wait(ctx, o.sim.Hesitation()); err != nil {
		return nil, err
	}

	timeout := o.cfg.Browser.NavTimeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	if err = page.Navigate(ctx, req.ProfileURL, timeout); err != nil {
		err = liserrors.NewScrapingFailed("profile navigation failed", err)
		return nil, err
	}

	// A session can look valid and still get challenged mid-navigation.
	currentURL, err := page.CurrentURL(ctx)
	if err != nil {
		err = liserrors.NewScrapingFailed("failed to read landing URL", err)
		return nil, err
	}
	if login.IsChallengeURL(currentURL) {
		o.invalidateSession(email)
		err = liserrors.NewCheckpointRequired("challenged during navigation")
		return nil, err
	}

	html, err := page.HTML(ctx)
	if err != nil {
		err = liserrors.NewScrapingFailed("failed to read profile page", err)
		return nil, err
	}

	if err = o.sim.Wait(ctx, o.sim.ReadingTime(len(html)/10)); err != nil {
		return nil, err
	}

	profile, err = extractProfile(html, req.ProfileURL, o.cfg.Target.Platform)
	if err != nil {
		return nil, err
	}

	o.log.InfoWithFields("profile scraped", map[string]interface{}{
		"user_id":     req.UserID,
		"profile_url": req.ProfileURL,
		"latency_ms":  time.Since(start).Milliseconds(),
	})
	return profile, nil
}

// SubmitVerificationCode is the second entry point: it resumes a held login
// with the one-time code the caller retrieved. A correct code falls through
// to the normal session save and success logging; a wrong one burns an
// attempt and keeps the page open until attempts run out.
func (o *Orchestrator) SubmitVerificationCode(ctx context.Context, id, code string) (VerificationResult, error) {
	if code == "" {
		return VerificationResult{}, liserrors.NewValidation("verification code is required")
	}

	vs, ok := o.registry.Get(id)
	if !ok {
		return VerificationResult{}, liserrors.NewValidation("unknown or expired verification session")
	}

	email, _, err := o.vault.Retrieve(vs.UserID)
	if err != nil {
		return VerificationResult{}, err
	}

	start := time.Now()
	outcome, err := o.flow.SubmitCode(ctx, vs.Page, code)
	if err != nil {
		o.registry.Discard(id)
		err = liserrors.NewScrapingFailed("code submission failed", err)
		o.logAttempt(vs.UserID, email, false, start, err)
		return VerificationResult{}, err
	}

	switch outcome {
	case login.OutcomeSuccess:
		cred, gerr := o.vault.Get(vs.UserID)
		if gerr != nil {
			o.registry.Discard(id)
			return VerificationResult{}, gerr
		}
		if serr := o.captureSession(ctx, vs.Page, cred, email); serr != nil {
			o.registry.Discard(id)
			o.logAttempt(vs.UserID, email, false, start, serr)
			return VerificationResult{}, serr
		}
		o.registry.Complete(id)
		vs.Page.Close()
		o.logAttempt(vs.UserID, email, true, start, nil)
		o.log.InfoWithFields("verification completed", map[string]interface{}{
			"verification_id": id,
		})
		return VerificationResult{Success: true}, nil

	case login.OutcomeEmailVerificationPending:
		// Wrong code; the prompt is still up. The page stays held.
		remaining := o.registry.RecordFailure(id)
		if remaining <= 0 {
			err = liserrors.NewLoginFailed("verification attempts exhausted")
			o.logAttempt(vs.UserID, email, false, start, err)
			return VerificationResult{}, err
		}
		return VerificationResult{AttemptsLeft: remaining}, nil

	case login.OutcomePermanentCheckpoint:
		o.registry.Discard(id)
		o.invalidateSession(email)
		err = liserrors.NewCheckpointRequired("verification escalated to a hard challenge")
		o.logAttempt(vs.UserID, email, false, start, err)
		return VerificationResult{}, err

	default:
		o.registry.Discard(id)
		err = liserrors.NewLoginFailed("verification rejected")
		o.logAttempt(vs.UserID, email, false, start, err)
		return VerificationResult{}, err
	}
}

// restoreSession injects a cached session into the page when one exists.
// It reports whether the page is believed authenticated. Cache problems
// degrade to a fresh login rather than failing the scrape.
func (o *Orchestrator) restoreSession(ctx context.Context, page browser.Page, email string) (bool, error) {
	payload, err := o.sessions.Load(email)
	if err != nil {
		o.log.WithError(err).Warn("session load failed, falling back to login")
		return false, nil
	}
	if payload == nil {
		return false, nil
	}

	if err := page.SetCookies(ctx, payload.Cookies); err != nil {
		o.log.WithError(err).Warn("cookie injection failed, falling back to login")
		return false, nil
	}

	if o.cfg.Session.ValidateBeforeUse {
		feedURL := fmt.Sprintf("https://%s/feed/", o.cfg.Target.Domain)
		if err := page.Navigate(ctx, feedURL, o.cfg.Browser.NavTimeout); err != nil {
			o.log.WithError(err).Warn("session pre-validation navigation failed")
			o.invalidateSession(email)
			return false, nil
		}
		outcome, err := o.flow.Classify(ctx, page)
		if err != nil || outcome != login.OutcomeSuccess {
			o.log.WarnWithFields("cached session rejected by pre-validation", map[string]interface{}{
				"outcome": outcome.String(),
			})
			o.invalidateSession(email)
			// The platform actively bounced the session; cool the identity
			// down once the forced relogin runs its course.
			if cerr := o.health.ApplySessionCooldown(email); cerr != nil {
				o.log.WithError(cerr).Warn("failed to apply session cooldown")
			}
			return false, nil
		}
	}

	o.log.Debug("cached session restored")
	return true, nil
}

// captureSession reads the jar off an authenticated page and caches it. An
// empty jar is an error: caching it would mask a login that did not really
// stick.
func (o *Orchestrator) captureSession(ctx context.Context, page browser.Page, cred *models.Credential, email string) error {
	cookies, err := page.Cookies(ctx)
	if err != nil {
		return liserrors.NewScrapingFailed("failed to read session cookies", err)
	}
	if err := o.sessions.Save(cookies, page.UserAgent(), cred.ID, email); err != nil {
		return err
	}
	if err := o.vault.MarkValidated(cred.UserID); err != nil {
		o.log.WithError(err).Warn("failed to record credential validation")
	}
	return nil
}

func (o *Orchestrator) invalidateSession(email string) {
	if err := o.sessions.Invalidate(email); err != nil {
		o.log.WithError(err).Warn("session invalidation failed")
	}
}

func (o *Orchestrator) logAttempt(userID, email string, success bool, start time.Time, attemptErr error) {
	if err := o.health.LogRequest(userID, email, "", success, time.Since(start), attemptErr); err != nil {
		o.log.WithError(err).Error("failed to record request outcome")
	}
}
