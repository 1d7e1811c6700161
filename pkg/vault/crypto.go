package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"

	liserrors "liscraper/pkg/errors"
)

// KeySize is the required master key length for AES-256-GCM.
const KeySize = 32

// encrypt seals plaintext under key with a fresh random nonce. The returned
// ciphertext has the GCM authentication tag appended; the nonce is returned
// separately so it can be persisted alongside the ciphertext.
func encrypt(plaintext, key []byte) (ciphertext, nonce []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, err
	}

	return gcm.Seal(nil, nonce, plaintext, nil), nonce, nil
}

// decrypt opens ciphertext under key and nonce. Tag verification failure
// returns a decryption error; no partial plaintext ever escapes.
func decrypt(ciphertext, nonce, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(nonce) != gcm.NonceSize() {
		return nil, liserrors.NewDecryption("invalid nonce length", nil)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, liserrors.NewDecryption("authentication tag verification failed", err)
	}

	return plaintext, nil
}

// HashEmail returns the deterministic identity hash for an email address.
// The address is trimmed and lower-cased first, so differently-cased or
// padded spellings of the same address hash identically.
func HashEmail(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
