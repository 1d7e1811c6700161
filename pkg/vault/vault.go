// Package vault encrypts and stores per-user account secrets. It owns the
// Credential entity and the identity hash every other component uses to
// reference an account without touching plaintext.
package vault

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"

	liserrors "liscraper/pkg/errors"
	"liscraper/pkg/logger"
	"liscraper/pkg/models"
	"liscraper/pkg/storage"
)

// Vault encrypts, persists and retrieves account credentials.
type Vault struct {
	store *storage.Store
	key   []byte
	log   logger.Logger
}

// New creates a Vault. The key must be exactly KeySize bytes; anything else
// is a configuration error surfaced to the caller, which should treat it as
// fatal at startup.
func New(store *storage.Store, key []byte, log logger.Logger) (*Vault, error) {
	if len(key) != KeySize {
		return nil, liserrors.NewConfiguration(
			fmt.Sprintf("vault key must be %d bytes, got %d", KeySize, len(key)))
	}
	return &Vault{store: store, key: key, log: log}, nil
}

// Store encrypts and persists credentials for a user. Upsert semantics: a
// user has at most one active credential, and linking again replaces the
// secret material in place.
func (v *Vault) Store(userID, email, password string) (*models.Credential, error) {
	if userID == "" || email == "" || password == "" {
		return nil, liserrors.NewValidation("userID, email and password are required")
	}

	emailCt, emailNonce, err := encrypt([]byte(email), v.key)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt email: %w", err)
	}
	passwordCt, passwordNonce, err := encrypt([]byte(password), v.key)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt password: %w", err)
	}

	now := time.Now()
	cred, err := v.findByUser(userID)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		cred = &models.Credential{
			ID:        uuid.NewString(),
			UserID:    userID,
			CreatedAt: now,
		}
	}

	cred.EmailHash = HashEmail(email)
	cred.EmailCiphertext = emailCt
	cred.EmailNonce = emailNonce
	cred.PasswordCiphertext = passwordCt
	cred.PasswordNonce = passwordNonce
	cred.IsActive = true
	cred.UpdatedAt = now

	if err := v.store.Badger().Upsert(cred.ID, cred); err != nil {
		return nil, fmt.Errorf("failed to store credential: %w", err)
	}

	v.log.WithFields(map[string]interface{}{
		"user_id":    userID,
		"email_hash": cred.EmailHash[:12],
	}).Info("Credential stored")

	return cred, nil
}

// Retrieve decrypts and returns the plaintext email and password for a
// user's active credential. A failed authentication tag check surfaces as a
// decryption error and nothing is returned.
func (v *Vault) Retrieve(userID string) (email, password string, err error) {
	cred, err := v.Get(userID)
	if err != nil {
		return "", "", err
	}

	emailPlain, err := decrypt(cred.EmailCiphertext, cred.EmailNonce, v.key)
	if err != nil {
		return "", "", err
	}
	passwordPlain, err := decrypt(cred.PasswordCiphertext, cred.PasswordNonce, v.key)
	if err != nil {
		return "", "", err
	}

	return string(emailPlain), string(passwordPlain), nil
}

// Get returns the active credential record for a user without decrypting it.
func (v *Vault) Get(userID string) (*models.Credential, error) {
	cred, err := v.findByUser(userID)
	if err != nil {
		return nil, err
	}
	if cred == nil || !cred.IsActive {
		return nil, liserrors.NewNoCredentials(userID)
	}
	return cred, nil
}

// HasCredential reports whether a user has an active credential on file.
func (v *Vault) HasCredential(userID string) bool {
	cred, err := v.findByUser(userID)
	return err == nil && cred != nil && cred.IsActive
}

// Revoke deactivates a user's credential. The record is kept (never
// hard-deleted) so the identity hash remains resolvable for audit rows.
func (v *Vault) Revoke(userID string) error {
	cred, err := v.findByUser(userID)
	if err != nil {
		return err
	}
	if cred == nil {
		return liserrors.NewNoCredentials(userID)
	}

	cred.IsActive = false
	cred.UpdatedAt = time.Now()
	if err := v.store.Badger().Update(cred.ID, cred); err != nil {
		return fmt.Errorf("failed to revoke credential: %w", err)
	}

	v.log.WithField("user_id", userID).Info("Credential revoked")
	return nil
}

// MarkValidated records a successful authentication against the target site.
func (v *Vault) MarkValidated(userID string) error {
	cred, err := v.Get(userID)
	if err != nil {
		return err
	}
	now := time.Now()
	cred.LastValidatedAt = &now
	cred.UpdatedAt = now
	return v.store.Badger().Update(cred.ID, cred)
}

// List returns all credential records, active and revoked.
func (v *Vault) List() ([]models.Credential, error) {
	var creds []models.Credential
	if err := v.store.Badger().Find(&creds, nil); err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	return creds, nil
}

// Seal encrypts an arbitrary payload under the vault key. Used by the
// session cache so encrypted browser state shares the vault's key material.
func (v *Vault) Seal(plaintext []byte) (ciphertext, nonce []byte, err error) {
	return encrypt(plaintext, v.key)
}

// Open decrypts a payload previously produced by Seal.
func (v *Vault) Open(ciphertext, nonce []byte) ([]byte, error) {
	return decrypt(ciphertext, nonce, v.key)
}

func (v *Vault) findByUser(userID string) (*models.Credential, error) {
	var creds []models.Credential
	if err := v.store.Badger().Find(&creds, badgerhold.Where("UserID").Eq(userID).Index("UserID")); err != nil {
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}
	if len(creds) == 0 {
		return nil, nil
	}
	return &creds[0], nil
}
