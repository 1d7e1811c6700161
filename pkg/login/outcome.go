package login

// Outcome is the classification of a login (or code submission) attempt.
// Ambiguous results first classify as a challenge, then split into a
// recoverable code prompt or a hard block by inspecting the challenge DOM.
type Outcome int

const (
	// OutcomeSuccess means the authenticated landing page was reached.
	OutcomeSuccess Outcome = iota
	// OutcomeLoginFailed means the site rejected the credentials.
	OutcomeLoginFailed
	// OutcomeEmailVerificationPending means the site is asking for a
	// one-time code and the page is waiting for it.
	OutcomeEmailVerificationPending
	// OutcomePermanentCheckpoint means a challenge with no code path was
	// presented. The attempt is burned.
	OutcomePermanentCheckpoint
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeLoginFailed:
		return "login_failed"
	case OutcomeEmailVerificationPending:
		return "email_verification_pending"
	case OutcomePermanentCheckpoint:
		return "permanent_checkpoint"
	default:
		return "unknown"
	}
}
