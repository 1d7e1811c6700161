package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType tags an error with the branch a caller should take. Callers
// switch on the type, never on the message text.
type ErrorType string

const (
	ErrorTypeConfiguration     ErrorType = "configuration"
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeNoCredentials     ErrorType = "no_credentials"
	ErrorTypeRateLimit         ErrorType = "rate_limit"
	ErrorTypeLoginFailed       ErrorType = "login_failed"
	ErrorTypeCheckpoint        ErrorType = "checkpoint_required"
	ErrorTypeEmailVerification ErrorType = "email_verification_required"
	ErrorTypeDecryption        ErrorType = "decryption"
	ErrorTypeNoCookies         ErrorType = "no_cookies"
	ErrorTypeScraping          ErrorType = "scraping"
)

// Error is the typed error used across the scraping core.
//
// WaitTime is set for rate-limit errors (how long the caller should wait
// before retrying). VerificationID is set for email-verification errors and
// is the handle for code submission. Err carries the wrapped cause.
type Error struct {
	Type           ErrorType
	Message        string
	WaitTime       time.Duration
	VerificationID string
	Err            error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two Errors by type tag, so errors.Is works across wrapped
// chains without comparing messages.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Type == t.Type
}

// New creates an error with the given type and message.
func New(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// Wrap creates a typed error around a cause.
func Wrap(errorType ErrorType, message string, err error) *Error {
	return &Error{Type: errorType, Message: message, Err: err}
}

// NewConfiguration reports bad or missing startup configuration, fatal at
// process start rather than per call.
func NewConfiguration(message string) *Error {
	return New(ErrorTypeConfiguration, message)
}

// NewValidation reports missing or malformed call parameters. Nothing has
// happened yet when this is returned; there are no side effects to undo.
func NewValidation(message string) *Error {
	return New(ErrorTypeValidation, message)
}

// NewNoCredentials reports that no active credential is on file for a user.
func NewNoCredentials(userID string) *Error {
	return New(ErrorTypeNoCredentials, fmt.Sprintf("no credentials on file for user %s", userID))
}

// NewRateLimitExceeded reports a denied admission decision along with how
// long the caller should wait before trying again.
func NewRateLimitExceeded(reason string, wait time.Duration) *Error {
	return &Error{
		Type:     ErrorTypeRateLimit,
		Message:  reason,
		WaitTime: wait,
	}
}

// NewLoginFailed reports a terminal authentication failure.
func NewLoginFailed(message string) *Error {
	return New(ErrorTypeLoginFailed, message)
}

// NewCheckpointRequired reports that the target site challenged the account.
// The identity goes on a mandatory cooldown; there is no immediate retry.
func NewCheckpointRequired(message string) *Error {
	return New(ErrorTypeCheckpoint, message)
}

// NewEmailVerificationRequired reports a paused login awaiting a one-time
// code. The id resolves the held verification session.
func NewEmailVerificationRequired(id string) *Error {
	return &Error{
		Type:           ErrorTypeEmailVerification,
		Message:        "login paused awaiting one-time verification code",
		VerificationID: id,
	}
}

// NewDecryption reports an authenticated-decryption failure. Partially
// decrypted data is never returned alongside this.
func NewDecryption(message string, err error) *Error {
	return Wrap(ErrorTypeDecryption, message, err)
}

// NewNoCookies reports that a captured session contained no cookies for the
// target domain.
func NewNoCookies(domain string) *Error {
	return New(ErrorTypeNoCookies, fmt.Sprintf("no cookies for domain %s", domain))
}

// NewScrapingFailed reports a post-authentication navigation or extraction
// failure.
func NewScrapingFailed(detail string, err error) *Error {
	return Wrap(ErrorTypeScraping, detail, err)
}

// TypeOf returns the type tag of err, or the empty string when err is not a
// typed Error.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ""
}

// IsCheckpointRequired reports whether err carries the checkpoint tag. The
// tag is set once at detection time; downstream code calls this instead of
// re-parsing messages.
func IsCheckpointRequired(err error) bool {
	return TypeOf(err) == ErrorTypeCheckpoint
}

// IsRateLimited reports whether err is an admission denial.
func IsRateLimited(err error) bool {
	return TypeOf(err) == ErrorTypeRateLimit
}

// IsEmailVerificationRequired reports whether err is a paused login.
func IsEmailVerificationRequired(err error) bool {
	return TypeOf(err) == ErrorTypeEmailVerification
}

// IsRecoverable reports whether the caller can act on the error without
// operator intervention: waiting out a rate limit or supplying a code.
func IsRecoverable(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeRateLimit, ErrorTypeEmailVerification:
		return true
	default:
		return false
	}
}

// AsError extracts the typed Error from a wrapped chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
