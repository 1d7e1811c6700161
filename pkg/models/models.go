package models

import "time"

// Credential holds one user's encrypted account secrets. Plaintext email and
// password never touch storage; only ciphertext (with the GCM tag appended)
// and the per-field nonce are persisted. EmailHash is the irreversible lookup
// key shared across components.
type Credential struct {
	ID                 string `badgerhold:"key"`
	UserID             string `badgerhold:"index"`
	EmailHash          string `badgerhold:"index"`
	EmailCiphertext    []byte
	EmailNonce         []byte
	PasswordCiphertext []byte
	PasswordNonce      []byte
	IsActive           bool
	LastValidatedAt    *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// AccountHealth tracks per-identity usage counters and cooldown state.
// Keyed by EmailHash so it joins against sessions and request logs without
// exposing the address.
type AccountHealth struct {
	EmailHash           string `badgerhold:"key"`
	RequestCount        int64
	SuccessCount        int64
	FailureCount        int64
	CheckpointCount     int64
	ConsecutiveFailures int
	CooldownUntil       *time.Time
	IsActive            bool
	LastRequestAt       *time.Time
	LastSuccessAt       *time.Time
	LastCheckpointAt    *time.Time
	UpdatedAt           time.Time
}

// RequestLog is one append-only row per scrape attempt. Rows are never
// mutated after insert.
type RequestLog struct {
	ID          string `badgerhold:"key"`
	UserID      string
	EmailHash   string `badgerhold:"index"`
	TargetURL   string
	RequestedAt time.Time
	Success     bool
	LatencyMs   int64
	Checkpoint  bool
	ErrorText   string
}

// SessionRecord is the durable, encrypted form of a captured browser
// session. Superseded records are flipped invalid, never deleted.
type SessionRecord struct {
	ID                string `badgerhold:"key"`
	CredentialID      string `badgerhold:"index"`
	EmailHash         string `badgerhold:"index"`
	CookiesCiphertext []byte
	CookiesNonce      []byte
	UserAgent         string
	IsValid           bool
	CreatedAt         time.Time
	ExpiresAt         time.Time
}

// Cookie is the structured cookie shape exchanged with the browser layer.
// Payloads coming back from the browser are validated into this type before
// anything downstream trusts them.
type Cookie struct {
	Name     string `json:"name" validate:"required"`
	Value    string `json:"value"`
	Domain   string `json:"domain"`
	Path     string `json:"path"`
	Expires  int64  `json:"expires"`
	Secure   bool   `json:"secure"`
	HTTPOnly bool   `json:"http_only"`
	SameSite string `json:"same_site"`
}

// SessionPayload is the plaintext session snapshot: the cookie jar plus the
// user agent it was captured under. It is what gets encrypted into a
// SessionRecord and what the ephemeral tier caches.
type SessionPayload struct {
	Cookies   []Cookie  `json:"cookies"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

// ScrapedProfile is the record returned to callers.
type ScrapedProfile struct {
	Name       string `json:"name"`
	Title      string `json:"title"`
	Company    string `json:"company"`
	Location   string `json:"location"`
	Bio        string `json:"bio"`
	ProfileURL string `json:"profile_url"`
	Platform   string `json:"platform"`
}
