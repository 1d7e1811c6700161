// Package login drives the authentication flow on the target site and
// classifies its outcome.
//
// A login attempt lands in one of four states: success, rejected
// credentials, an email verification challenge, or a permanent checkpoint
// wall. Challenge pages are told apart from checkpoint walls by probing for
// a PIN input: a page that still accepts a code can be completed, one that
// does not requires manual account recovery.
//
// Pages stuck on an email verification challenge are parked in the
// Registry until the user supplies the code. Each parked session carries a
// bounded attempt count and a TTL; expired sessions are reclaimed lazily on
// access and by a background sweep so abandoned challenges never leak
// browser pages.
package login
