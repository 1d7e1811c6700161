package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liscraper/pkg/config"
	liserrors "liscraper/pkg/errors"
	"liscraper/pkg/logger"
	"liscraper/pkg/models"
	"liscraper/pkg/storage"
)

// passthroughCipher stands in for the vault in tests; sealing is the
// identity function.
type passthroughCipher struct{}

func (passthroughCipher) Seal(plaintext []byte) ([]byte, []byte, error) {
	ct := make([]byte, len(plaintext))
	copy(ct, plaintext)
	return ct, []byte{0x01}, nil
}

func (passthroughCipher) Open(ciphertext, nonce []byte) ([]byte, error) {
	pt := make([]byte, len(ciphertext))
	copy(pt, ciphertext)
	return pt, nil
}

func testStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(config.StorageConfig{
		Path: filepath.Join(t.TempDir(), "db"),
	}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testCache(t *testing.T, maxAge time.Duration) *Cache {
	t.Helper()
	store := testStore(t)
	memory := NewMemoryStore(maxAge)
	durable := NewDurableStore(store, passthroughCipher{}, maxAge)
	return NewCache(memory, durable, "www.linkedin.com", logger.Nop())
}

func sampleCookies() []models.Cookie {
	return []models.Cookie{
		{Name: "li_at", Value: "tok", Domain: ".linkedin.com", Path: "/"},
		{Name: "JSESSIONID", Value: "abc", Domain: ".www.linkedin.com", Path: "/"},
		{Name: "tracker", Value: "x", Domain: ".adnetwork.example", Path: "/"},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cache := testCache(t, time.Hour)

	require.NoError(t, cache.Save(sampleCookies(), "Mozilla/5.0 test", "cred-1", "a@b.com"))

	payload, err := cache.Load("a@b.com")
	require.NoError(t, err)
	require.NotNil(t, payload)
	assert.Equal(t, "Mozilla/5.0 test", payload.UserAgent)
	require.Len(t, payload.Cookies, 2, "off-domain cookie should be filtered out")
	assert.Equal(t, "li_at", payload.Cookies[0].Name)
}

func TestLoadMissReturnsNil(t *testing.T) {
	cache := testCache(t, time.Hour)

	payload, err := cache.Load("nobody@b.com")
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestSaveRejectsEmptyJar(t *testing.T) {
	cache := testCache(t, time.Hour)

	offDomain := []models.Cookie{
		{Name: "tracker", Value: "x", Domain: ".adnetwork.example"},
	}
	err := cache.Save(offDomain, "ua", "cred-1", "a@b.com")
	require.Error(t, err)
	assert.Equal(t, liserrors.ErrorTypeNoCookies, liserrors.TypeOf(err))
}

func TestExpiredSessionNotReturned(t *testing.T) {
	// Negative max age: everything written is already expired
	cache := testCache(t, -time.Second)

	require.NoError(t, cache.Save(sampleCookies(), "ua", "cred-1", "a@b.com"))

	payload, err := cache.Load("a@b.com")
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestInvalidateRemovesBothTiers(t *testing.T) {
	cache := testCache(t, time.Hour)

	require.NoError(t, cache.Save(sampleCookies(), "ua", "cred-1", "a@b.com"))
	require.NoError(t, cache.Invalidate("a@b.com"))

	payload, err := cache.Load("a@b.com")
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestInvalidateTwiceIsNoOp(t *testing.T) {
	cache := testCache(t, time.Hour)

	require.NoError(t, cache.Save(sampleCookies(), "ua", "cred-1", "a@b.com"))
	require.NoError(t, cache.Invalidate("a@b.com"))
	require.NoError(t, cache.Invalidate("a@b.com"), "second invalidation should be a no-op")
}

func TestNewerSessionSupersedes(t *testing.T) {
	cache := testCache(t, time.Hour)

	require.NoError(t, cache.Save(sampleCookies(), "first", "cred-1", "a@b.com"))
	require.NoError(t, cache.Save(sampleCookies(), "second", "cred-1", "a@b.com"))

	payload, err := cache.Load("a@b.com")
	require.NoError(t, err)
	require.NotNil(t, payload)
	assert.Equal(t, "second", payload.UserAgent)
}

func TestDurableTierSurvivesMemoryLoss(t *testing.T) {
	store := testStore(t)
	durable := NewDurableStore(store, passthroughCipher{}, time.Hour)

	first := NewCache(NewMemoryStore(time.Hour), durable, "www.linkedin.com", logger.Nop())
	require.NoError(t, first.Save(sampleCookies(), "ua", "cred-1", "a@b.com"))

	// Fresh memory tier, same durable store: simulates a process restart
	second := NewCache(NewMemoryStore(time.Hour), durable, "www.linkedin.com", logger.Nop())
	payload, err := second.Load("a@b.com")
	require.NoError(t, err)
	require.NotNil(t, payload)
	assert.Equal(t, "ua", payload.UserAgent)
}

func TestFilterCookies(t *testing.T) {
	cookies := []models.Cookie{
		{Name: "parent", Domain: ".linkedin.com"},
		{Name: "exact", Domain: "www.linkedin.com"},
		{Name: "other", Domain: "evil-linkedin.com"},
		{Name: "blank", Domain: ""},
	}

	filtered := FilterCookies(cookies, "www.linkedin.com")
	require.Len(t, filtered, 2)
	assert.Equal(t, "parent", filtered[0].Name)
	assert.Equal(t, "exact", filtered[1].Name)
}

func TestMemoryStoreLazyExpiry(t *testing.T) {
	m := NewMemoryStore(-time.Second)
	m.Put("k", models.SessionPayload{UserAgent: "ua"})

	assert.Nil(t, m.Get("k"))
	assert.Equal(t, 0, m.Len(), "expired entry should be dropped on read")
}
