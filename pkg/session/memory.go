package session

import (
	"sync"
	"time"

	"liscraper/pkg/models"
)

type memoryEntry struct {
	payload   models.SessionPayload
	expiresAt time.Time
}

// MemoryStore is the fast ephemeral tier: a TTL-bound map keyed by identity
// hash. Entries expire lazily on read.
type MemoryStore struct {
	ttl     time.Duration
	entries map[string]memoryEntry
	mu      sync.RWMutex
}

// NewMemoryStore creates the ephemeral tier with the given entry TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

// Put stores a payload for an identity, resetting its TTL.
func (m *MemoryStore) Put(emailHash string, payload models.SessionPayload) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[emailHash] = memoryEntry{
		payload:   payload,
		expiresAt: time.Now().Add(m.ttl),
	}
}

// Get returns the cached payload for an identity, or nil on miss or expiry.
func (m *MemoryStore) Get(emailHash string) *models.SessionPayload {
	m.mu.RLock()
	entry, ok := m.entries[emailHash]
	m.mu.RUnlock()

	if !ok {
		return nil
	}
	if time.Now().After(entry.expiresAt) {
		m.Remove(emailHash)
		return nil
	}

	payload := entry.payload
	return &payload
}

// Remove drops the entry for an identity. Removing a missing entry is a
// no-op.
func (m *MemoryStore) Remove(emailHash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, emailHash)
}

// Len returns the number of live entries, counting expired-but-unswept ones.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
