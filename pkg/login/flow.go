package login

import (
	"context"
	"fmt"
	"strings"
	"time"

	"liscraper/pkg/browser"
	"liscraper/pkg/config"
	"liscraper/pkg/humanize"
	"liscraper/pkg/logger"
)

// Form and challenge selectors, primary first. The site reshuffles markup
// periodically, so each lookup tolerates a legacy alternative.
const (
	usernameSelector = "#username"
	passwordSelector = "#password"
	submitSelector   = "button[type=submit]"
)

var (
	failureMarkers = []string{
		"#error-for-username",
		"#error-for-password",
		".form__label--error",
	}
	verificationMarkers = []string{
		"input[name=pin]",
		"#input__email_verification_pin",
		"#email-pin-challenge",
		"button.resend-button",
	}
	pinSelectors = []string{
		"input[name=pin]",
		"#input__email_verification_pin",
	}
	pinSubmitSelectors = []string{
		"#email-pin-submit-button",
		"button[type=submit]",
	}
)

// Flow drives the credential form and classifies what the site did with it.
// Every interaction is paced through the simulator.
type Flow struct {
	target  config.TargetConfig
	timeout time.Duration
	sim     *humanize.Simulator
	log     logger.Logger
}

// NewFlow creates a login flow for the configured target.
func NewFlow(target config.TargetConfig, browserCfg config.BrowserConfig, sim *humanize.Simulator, log logger.Logger) *Flow {
	return &Flow{
		target:  target,
		timeout: browserCfg.LoginTimeout,
		sim:     sim,
		log:     log,
	}
}

// Login fills and submits the credential form on page, then classifies the
// result. It does not interpret the outcome; that branching belongs to the
// caller, which owns the page and the health bookkeeping.
func (f *Flow) Login(ctx context.Context, page browser.Page, email, password string) (Outcome, error) {
	f.log.InfoWithFields("starting login", map[string]interface{}{
		"login_url": f.target.LoginURL,
	})

	if err := page.Navigate(ctx, f.target.LoginURL, f.timeout); err != nil {
		return OutcomeLoginFailed, fmt.Errorf("failed to open login page: %w", err)
	}

	if err := f.sim.Wait(ctx, f.sim.Hesitation()); err != nil {
		return OutcomeLoginFailed, err
	}
	if err := page.Type(ctx, usernameSelector, email, f.sim.TypingDelays(email)); err != nil {
		return OutcomeLoginFailed, fmt.Errorf("failed to enter email: %w", err)
	}

	if err := f.sim.Wait(ctx, f.sim.Hesitation()); err != nil {
		return OutcomeLoginFailed, err
	}
	if err := page.Type(ctx, passwordSelector, password, f.sim.TypingDelays(password)); err != nil {
		return OutcomeLoginFailed, fmt.Errorf("failed to enter password: %w", err)
	}

	if err := f.sim.Wait(ctx, f.sim.Hesitation()); err != nil {
		return OutcomeLoginFailed, err
	}
	if err := page.Click(ctx, submitSelector); err != nil {
		return OutcomeLoginFailed, fmt.Errorf("failed to submit login form: %w", err)
	}

	// Give the site time to settle on a post-submit URL before classifying.
	if err := f.sim.Wait(ctx, f.sim.Delay(2*time.Second, 4*time.Second)); err != nil {
		return OutcomeLoginFailed, err
	}

	return f.Classify(ctx, page)
}

// SubmitCode types a one-time code into the held challenge page, submits it
// and re-classifies with the same taxonomy a fresh login uses.
func (f *Flow) SubmitCode(ctx context.Context, page browser.Page, code string) (Outcome, error) {
	pin, err := f.firstPresent(ctx, page, pinSelectors)
	if err != nil {
		return OutcomePermanentCheckpoint, err
	}
	if pin == "" {
		// The held page no longer shows a code prompt; whatever it shows
		// now decides the outcome.
		return f.Classify(ctx, page)
	}

	if err := f.sim.Wait(ctx, f.sim.Hesitation()); err != nil {
		return OutcomeLoginFailed, err
	}
	if err := page.Type(ctx, pin, code, f.sim.TypingDelays(code)); err != nil {
		return OutcomeLoginFailed, fmt.Errorf("failed to enter verification code: %w", err)
	}

	submit, err := f.firstPresent(ctx, page, pinSubmitSelectors)
	if err != nil {
		return OutcomePermanentCheckpoint, err
	}
	if submit == "" {
		submit = submitSelector
	}
	if err := page.Click(ctx, submit); err != nil {
		return OutcomeLoginFailed, fmt.Errorf("failed to submit verification code: %w", err)
	}

	if err := f.sim.Wait(ctx, f.sim.Delay(2*time.Second, 4*time.Second)); err != nil {
		return OutcomeLoginFailed, err
	}

	outcome, err := f.Classify(ctx, page)
	if err != nil {
		return outcome, err
	}
	if outcome == OutcomeEmailVerificationPending {
		// Still on the code prompt: the code was wrong. The page stays
		// usable for another attempt.
		f.log.Debug("verification code rejected, prompt still present")
	}
	return outcome, nil
}

// Classify inspects the page's current URL and DOM and maps them onto the
// outcome taxonomy. A challenge URL splits on whether a code prompt is
// visible; a login URL with an error banner is a credential rejection.
func (f *Flow) Classify(ctx context.Context, page browser.Page) (Outcome, error) {
	url, err := page.CurrentURL(ctx)
	if err != nil {
		return OutcomeLoginFailed, fmt.Errorf("failed to read post-login URL: %w", err)
	}

	if IsChallengeURL(url) {
		marker, err := f.firstPresent(ctx, page, verificationMarkers)
		if err != nil {
			return OutcomePermanentCheckpoint, err
		}
		if marker != "" {
			return OutcomeEmailVerificationPending, nil
		}
		return OutcomePermanentCheckpoint, nil
	}

	if strings.Contains(url, "/login") {
		marker, err := f.firstPresent(ctx, page, failureMarkers)
		if err != nil {
			return OutcomeLoginFailed, err
		}
		if marker != "" {
			return OutcomeLoginFailed, nil
		}
		// Still on the form with no error shown: the submit did not take.
		return OutcomeLoginFailed, nil
	}

	return OutcomeSuccess, nil
}

// IsChallengeURL reports whether url points at the site's challenge
// interstitial rather than a normal page.
func IsChallengeURL(url string) bool {
	return strings.Contains(url, "/checkpoint") || strings.Contains(url, "/challenge")
}

func (f *Flow) firstPresent(ctx context.Context, page browser.Page, selectors []string) (string, error) {
	for _, sel := range selectors {
		found, err := page.Exists(ctx, sel)
		if err != nil {
			return "", fmt.Errorf("failed to probe %s: %w", sel, err)
		}
		if found {
			return sel, nil
		}
	}
	return "", nil
}
