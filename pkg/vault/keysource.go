package vault

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/pbkdf2"

	"liscraper/pkg/config"
	liserrors "liscraper/pkg/errors"
)

const (
	keyringService = "liscraper"
	keyringKeyName = "vault_master_key"

	pbkdf2Iterations = 100000
	saltSize         = 32
)

// LoadKey resolves the vault master key at process start. Sources are tried
// in order: hex-encoded environment variable, OS keychain, passphrase file
// (key derived with PBKDF2, salt stored next to the passphrase). A key that
// cannot be resolved, or one of the wrong length, is a configuration error:
// fatal at startup, never a per-call failure.
func LoadKey(cfg config.VaultConfig) ([]byte, error) {
	if encoded := os.Getenv(cfg.KeyEnv); encoded != "" {
		key, err := hex.DecodeString(encoded)
		if err != nil {
			return nil, liserrors.NewConfiguration(fmt.Sprintf("%s is not valid hex", cfg.KeyEnv))
		}
		if len(key) != KeySize {
			return nil, liserrors.NewConfiguration(
				fmt.Sprintf("%s must decode to %d bytes, got %d", cfg.KeyEnv, KeySize, len(key)))
		}
		return key, nil
	}

	if key, err := loadFromKeyring(); err == nil {
		return key, nil
	}

	if cfg.PassphraseFile != "" {
		return loadFromPassphraseFile(cfg.PassphraseFile)
	}

	return nil, liserrors.NewConfiguration(
		fmt.Sprintf("no vault key material: set %s, store a key in the OS keychain, or configure a passphrase file", cfg.KeyEnv))
}

// loadFromKeyring reads a previously stored key from the system keychain.
func loadFromKeyring() ([]byte, error) {
	encoded, err := keyring.Get(keyringService, keyringKeyName)
	if err != nil {
		return nil, fmt.Errorf("keyring unavailable: %w", err)
	}
	key, err := hex.DecodeString(encoded)
	if err != nil || len(key) != KeySize {
		return nil, liserrors.NewConfiguration("keychain vault key is malformed")
	}
	return key, nil
}

// StoreKeyInKeyring saves a key to the system keychain for later LoadKey
// calls.
func StoreKeyInKeyring(key []byte) error {
	if len(key) != KeySize {
		return liserrors.NewConfiguration(fmt.Sprintf("key must be %d bytes", KeySize))
	}
	if err := keyring.Set(keyringService, keyringKeyName, hex.EncodeToString(key)); err != nil {
		return fmt.Errorf("failed to store key in keyring: %w", err)
	}
	return nil
}

// loadFromPassphraseFile derives the key from a passphrase on disk, creating
// passphrase and salt on first use.
func loadFromPassphraseFile(path string) ([]byte, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, liserrors.NewConfiguration(fmt.Sprintf("cannot create key directory: %v", err))
	}

	passphrase, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		passphrase, err = generatePassphrase(path)
	}
	if err != nil {
		return nil, liserrors.NewConfiguration(fmt.Sprintf("cannot read passphrase file: %v", err))
	}

	saltPath := path + ".salt"
	salt, err := os.ReadFile(saltPath)
	if os.IsNotExist(err) {
		salt = make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}
		if err := os.WriteFile(saltPath, salt, 0600); err != nil {
			return nil, liserrors.NewConfiguration(fmt.Sprintf("cannot write salt file: %v", err))
		}
	} else if err != nil {
		return nil, liserrors.NewConfiguration(fmt.Sprintf("cannot read salt file: %v", err))
	}

	return pbkdf2.Key(passphrase, salt, pbkdf2Iterations, KeySize, sha256.New), nil
}

func generatePassphrase(path string) ([]byte, error) {
	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, fmt.Errorf("failed to generate passphrase: %w", err)
	}
	passphrase := []byte(base64.URLEncoding.EncodeToString(b))
	if err := os.WriteFile(path, passphrase, 0600); err != nil {
		return nil, err
	}
	return passphrase, nil
}
