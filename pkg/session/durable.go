package session

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"

	"liscraper/pkg/models"
	"liscraper/pkg/storage"
)

// Cipher seals and opens session payloads. Satisfied by *vault.Vault so the
// durable tier shares the vault's key material.
type Cipher interface {
	Seal(plaintext []byte) (ciphertext, nonce []byte, err error)
	Open(ciphertext, nonce []byte) ([]byte, error)
}

// DurableStore is the encrypted persistent tier backed by badgerhold.
// Superseded and invalidated rows are flipped invalid, never deleted.
type DurableStore struct {
	store  *storage.Store
	cipher Cipher
	maxAge time.Duration
}

// NewDurableStore creates the durable tier.
func NewDurableStore(store *storage.Store, cipher Cipher, maxAge time.Duration) *DurableStore {
	return &DurableStore{store: store, cipher: cipher, maxAge: maxAge}
}

// Put encrypts and persists a payload for a credential, superseding any
// prior valid rows for the same identity.
func (d *DurableStore) Put(emailHash, credentialID string, payload models.SessionPayload) error {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal session payload: %w", err)
	}
	ciphertext, nonce, err := d.cipher.Seal(plaintext)
	if err != nil {
		return fmt.Errorf("failed to encrypt session payload: %w", err)
	}

	// Supersede: at most one row per identity stays current.
	if err := d.Invalidate(emailHash); err != nil {
		return err
	}

	now := time.Now()
	record := &models.SessionRecord{
		ID:                uuid.NewString(),
		CredentialID:      credentialID,
		EmailHash:         emailHash,
		CookiesCiphertext: ciphertext,
		CookiesNonce:      nonce,
		UserAgent:         payload.UserAgent,
		IsValid:           true,
		CreatedAt:         now,
		ExpiresAt:         now.Add(d.maxAge),
	}
	if err := d.store.Badger().Insert(record.ID, record); err != nil {
		return fmt.Errorf("failed to store session record: %w", err)
	}
	return nil
}

// Get decrypts and returns the most recent valid, non-expired session for an
// identity, or nil when none exists.
func (d *DurableStore) Get(emailHash string) (*models.SessionPayload, error) {
	var records []models.SessionRecord
	err := d.store.Badger().Find(&records,
		badgerhold.Where("EmailHash").Eq(emailHash).Index("EmailHash").
			And("IsValid").Eq(true))
	if err != nil {
		return nil, fmt.Errorf("failed to query session records: %w", err)
	}

	now := time.Now()
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	for i := range records {
		record := &records[i]
		if record.ExpiresAt.Before(now) {
			continue
		}

		plaintext, err := d.cipher.Open(record.CookiesCiphertext, record.CookiesNonce)
		if err != nil {
			return nil, err
		}
		var payload models.SessionPayload
		if err := json.Unmarshal(plaintext, &payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session payload: %w", err)
		}
		return &payload, nil
	}

	return nil, nil
}

// Invalidate flips every valid row for an identity to invalid. Calling it
// again is a no-op.
func (d *DurableStore) Invalidate(emailHash string) error {
	var records []models.SessionRecord
	err := d.store.Badger().Find(&records,
		badgerhold.Where("EmailHash").Eq(emailHash).Index("EmailHash").
			And("IsValid").Eq(true))
	if err != nil {
		return fmt.Errorf("failed to query session records: %w", err)
	}

	for i := range records {
		records[i].IsValid = false
		if err := d.store.Badger().Update(records[i].ID, &records[i]); err != nil {
			return fmt.Errorf("failed to invalidate session record: %w", err)
		}
	}
	return nil
}
