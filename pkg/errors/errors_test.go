package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestTypedErrorCarriesWaitTime(t *testing.T) {
	err := NewRateLimitExceeded("hourly request cap reached", time.Hour)

	if err.WaitTime != time.Hour {
		t.Errorf("expected wait of 1h, got %s", err.WaitTime)
	}
	if !IsRateLimited(err) {
		t.Error("expected IsRateLimited to match")
	}
}

func TestVerificationErrorCarriesID(t *testing.T) {
	err := NewEmailVerificationRequired("vs-123")

	if err.VerificationID != "vs-123" {
		t.Errorf("expected verification id, got %q", err.VerificationID)
	}
	if !IsEmailVerificationRequired(err) {
		t.Error("expected IsEmailVerificationRequired to match")
	}
}

func TestTypeMatchingThroughWrapping(t *testing.T) {
	inner := NewCheckpointRequired("challenged")
	wrapped := fmt.Errorf("scrape attempt: %w", inner)

	if !IsCheckpointRequired(wrapped) {
		t.Error("expected checkpoint detection through a wrapped chain")
	}
	if TypeOf(wrapped) != ErrorTypeCheckpoint {
		t.Errorf("expected checkpoint type, got %q", TypeOf(wrapped))
	}
}

func TestErrorsIsMatchesByType(t *testing.T) {
	a := NewLoginFailed("bad password")
	b := NewLoginFailed("different message")

	if !errors.Is(a, b) {
		t.Error("expected two errors of the same type to match")
	}
	if errors.Is(a, NewCheckpointRequired("x")) {
		t.Error("expected different types not to match")
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("tag mismatch")
	err := NewDecryption("credential record", cause)

	if !errors.Is(err, cause) {
		t.Error("expected the cause to be reachable via errors.Is")
	}
}

func TestIsRecoverable(t *testing.T) {
	cases := []struct {
		err         error
		recoverable bool
	}{
		{NewRateLimitExceeded("spacing", time.Minute), true},
		{NewEmailVerificationRequired("id"), true},
		{NewCheckpointRequired("challenged"), false},
		{NewLoginFailed("rejected"), false},
		{NewDecryption("bad tag", nil), false},
		{errors.New("untyped"), false},
	}

	for _, tc := range cases {
		if got := IsRecoverable(tc.err); got != tc.recoverable {
			t.Errorf("IsRecoverable(%v) = %v, want %v", tc.err, got, tc.recoverable)
		}
	}
}

func TestTypeOfUntypedError(t *testing.T) {
	if TypeOf(errors.New("plain")) != "" {
		t.Error("expected empty type for an untyped error")
	}
	if TypeOf(nil) != "" {
		t.Error("expected empty type for nil")
	}
}

func TestAsError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewNoCredentials("user-1"))

	e, ok := AsError(wrapped)
	if !ok {
		t.Fatal("expected AsError to find the typed error")
	}
	if e.Type != ErrorTypeNoCredentials {
		t.Errorf("expected no_credentials, got %q", e.Type)
	}

	if _, ok := AsError(errors.New("plain")); ok {
		t.Error("expected AsError to reject an untyped error")
	}
}
