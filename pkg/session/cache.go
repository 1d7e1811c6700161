// Package session caches reusable authenticated browser state in two tiers:
// a fast in-memory TTL store and an encrypted durable store, composed with
// read-through/write-back semantics. Concurrent writers for the same
// identity may race; last-writer-wins is acceptable because a session is an
// idempotent snapshot and reads only need most-recent-valid semantics.
package session

import (
	"strings"
	"time"

	liserrors "liscraper/pkg/errors"
	"liscraper/pkg/logger"
	"liscraper/pkg/models"
	"liscraper/pkg/vault"
)

// Repository is the session store surface the orchestrator sees.
type Repository interface {
	Save(rawCookies []models.Cookie, userAgent, credentialID, email string) error
	Load(email string) (*models.SessionPayload, error)
	Invalidate(email string) error
}

// Cache composes the two tiers behind the Repository interface.
type Cache struct {
	memory  *MemoryStore
	durable *DurableStore
	domain  string
	log     logger.Logger
}

// NewCache creates the two-tier session cache. domain is the target site
// domain cookies are filtered against.
func NewCache(memory *MemoryStore, durable *DurableStore, domain string, log logger.Logger) *Cache {
	return &Cache{
		memory:  memory,
		durable: durable,
		domain:  domain,
		log:     log,
	}
}

// Save filters the raw cookie jar down to the target domain and writes the
// resulting payload to both tiers. An empty filtered jar is an error: a
// session with no cookies for the target is worthless and caching it would
// mask login failures.
func (c *Cache) Save(rawCookies []models.Cookie, userAgent, credentialID, email string) error {
	filtered := FilterCookies(rawCookies, c.domain)
	if len(filtered) == 0 {
		return liserrors.NewNoCookies(c.domain)
	}

	payload := models.SessionPayload{
		Cookies:   filtered,
		UserAgent: userAgent,
		CreatedAt: time.Now(),
	}

	emailHash := vault.HashEmail(email)
	if err := c.durable.Put(emailHash, credentialID, payload); err != nil {
		return err
	}
	c.memory.Put(emailHash, payload)

	c.log.WithFields(map[string]interface{}{
		"email_hash": emailHash[:12],
		"cookies":    len(filtered),
	}).Debug("Session saved")

	return nil
}

// Load returns the current session for an identity, checking the ephemeral
// tier first and falling back to the durable tier. A durable hit
// repopulates the ephemeral tier. Returns nil when neither tier holds a
// valid, non-expired session.
func (c *Cache) Load(email string) (*models.SessionPayload, error) {
	emailHash := vault.HashEmail(email)

	if payload := c.memory.Get(emailHash); payload != nil {
		return payload, nil
	}

	payload, err := c.durable.Get(emailHash)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}

	c.memory.Put(emailHash, *payload)
	return payload, nil
}

// Invalidate clears the ephemeral entry and flips all durable rows for the
// identity to invalid. Invoked on checkpoint detection or failed
// validation; calling it twice is harmless.
func (c *Cache) Invalidate(email string) error {
	emailHash := vault.HashEmail(email)
	c.memory.Remove(emailHash)
	return c.durable.Invalidate(emailHash)
}

// FilterCookies keeps only cookies scoped to the target domain, matching
// exact hosts and parent domains (a ".linkedin.com" cookie matches
// "www.linkedin.com").
func FilterCookies(cookies []models.Cookie, domain string) []models.Cookie {
	var filtered []models.Cookie
	for _, cookie := range cookies {
		cookieDomain := strings.TrimPrefix(cookie.Domain, ".")
		if cookieDomain == "" {
			continue
		}
		if cookieDomain == domain || strings.HasSuffix(domain, "."+cookieDomain) {
			filtered = append(filtered, cookie)
		}
	}
	return filtered
}
