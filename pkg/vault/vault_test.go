package vault

import (
	"bytes"
	"crypto/rand"
	"path/filepath"
	"testing"

	"liscraper/pkg/config"
	liserrors "liscraper/pkg/errors"
	"liscraper/pkg/logger"
	"liscraper/pkg/storage"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return key
}

func testVault(t *testing.T) *Vault {
	t.Helper()
	store, err := storage.Open(config.StorageConfig{
		Path: filepath.Join(t.TempDir(), "db"),
	}, logger.Nop())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	v, err := New(store, testKey(t), logger.Nop())
	if err != nil {
		t.Fatalf("failed to create vault: %v", err)
	}
	return v
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := testKey(t)

	cases := []string{
		"hunter2",
		"",
		"päss wörd with ünicode ✓",
	}
	for _, plaintext := range cases {
		ciphertext, nonce, err := encrypt([]byte(plaintext), key)
		if err != nil {
			t.Fatalf("encrypt failed: %v", err)
		}
		if plaintext != "" && bytes.Contains(ciphertext, []byte(plaintext)) {
			t.Error("ciphertext contains plaintext")
		}

		got, err := decrypt(ciphertext, nonce, key)
		if err != nil {
			t.Fatalf("decrypt failed: %v", err)
		}
		if string(got) != plaintext {
			t.Errorf("round trip mismatch: got %q, want %q", got, plaintext)
		}
	}
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	key := testKey(t)
	ciphertext, nonce, err := encrypt([]byte("secret"), key)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	// Flip one bit anywhere in the sealed blob
	ciphertext[0] ^= 0x01

	got, err := decrypt(ciphertext, nonce, key)
	if err == nil {
		t.Fatal("expected tampered ciphertext to fail decryption")
	}
	if got != nil {
		t.Error("expected no partial plaintext from failed decryption")
	}
	if liserrors.TypeOf(err) != liserrors.ErrorTypeDecryption {
		t.Errorf("expected decryption error type, got %q", liserrors.TypeOf(err))
	}
}

func TestDecryptWrongKey(t *testing.T) {
	ciphertext, nonce, err := encrypt([]byte("secret"), testKey(t))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	if _, err := decrypt(ciphertext, nonce, testKey(t)); err == nil {
		t.Fatal("expected decryption with the wrong key to fail")
	}
}

func TestHashEmailNormalization(t *testing.T) {
	if HashEmail(" A@B.com ") != HashEmail("a@b.com") {
		t.Error("expected case and whitespace to normalize to the same hash")
	}
	if HashEmail("a@b.com") == HashEmail("a@b.org") {
		t.Error("expected different emails to hash differently")
	}
	if len(HashEmail("a@b.com")) != 64 {
		t.Error("expected a fixed-length hex digest")
	}
}

func TestNewRejectsBadKeyLength(t *testing.T) {
	store, err := storage.Open(config.StorageConfig{
		Path: filepath.Join(t.TempDir(), "db"),
	}, logger.Nop())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	_, err = New(store, []byte("short"), logger.Nop())
	if err == nil {
		t.Fatal("expected a short key to be rejected")
	}
	if liserrors.TypeOf(err) != liserrors.ErrorTypeConfiguration {
		t.Errorf("expected configuration error, got %q", liserrors.TypeOf(err))
	}
}

func TestStoreAndRetrieve(t *testing.T) {
	v := testVault(t)

	cred, err := v.Store("user-1", " Alice@Example.com ", "s3cret")
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if cred.EmailHash != HashEmail("alice@example.com") {
		t.Error("expected stored hash to use the normalized email")
	}

	email, password, err := v.Retrieve("user-1")
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if email != " Alice@Example.com " || password != "s3cret" {
		t.Errorf("retrieve returned %q/%q", email, password)
	}
}

func TestStoreUpsertsOneCredentialPerUser(t *testing.T) {
	v := testVault(t)

	if _, err := v.Store("user-1", "old@example.com", "old"); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if _, err := v.Store("user-1", "new@example.com", "new"); err != nil {
		t.Fatalf("second store failed: %v", err)
	}

	email, password, err := v.Retrieve("user-1")
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if email != "new@example.com" || password != "new" {
		t.Errorf("expected second store to replace the first, got %q/%q", email, password)
	}

	creds, err := v.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	active := 0
	for _, c := range creds {
		if c.UserID == "user-1" && c.IsActive {
			active++
		}
	}
	if active != 1 {
		t.Errorf("expected exactly one active credential, got %d", active)
	}
}

func TestRetrieveMissingUser(t *testing.T) {
	v := testVault(t)

	_, _, err := v.Retrieve("nobody")
	if err == nil {
		t.Fatal("expected an error for an unknown user")
	}
	if liserrors.TypeOf(err) != liserrors.ErrorTypeNoCredentials {
		t.Errorf("expected no_credentials error, got %q", liserrors.TypeOf(err))
	}
}

func TestRevokeDeactivatesWithoutDeleting(t *testing.T) {
	v := testVault(t)

	if _, err := v.Store("user-1", "a@b.com", "pw"); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if err := v.Revoke("user-1"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}

	if _, _, err := v.Retrieve("user-1"); err == nil {
		t.Fatal("expected retrieval of a revoked credential to fail")
	}

	// The row itself survives for the audit trail
	creds, err := v.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	found := false
	for _, c := range creds {
		if c.UserID == "user-1" && !c.IsActive {
			found = true
		}
	}
	if !found {
		t.Error("expected the revoked credential row to remain, inactive")
	}
}
