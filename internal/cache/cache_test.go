package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/glycohq/glyco/internal/configs"
	gerrors "github.com/glycohq/glyco/internal/errors"
	"github.com/glycohq/glyco/internal/keyring"
	logger "github.com/glycohq/glyco/internal/logging"
)

// memStore is an in-memory keyring.SecretStore for tests.
type memStore struct {
	secrets map[string]string
}

func (s *memStore) Get(service, account string) (string, error) {
	secret, ok := s.secrets[service+"/"+account]
	if !ok {
		return "", gerrors.ErrMasterKeyNotFound
	}
	return secret, nil
}

func (s *memStore) Set(service, account, secret string) error {
	s.secrets[service+"/"+account] = secret
	return nil
}

func (s *memStore) Delete(service, account string) error {
	if _, ok := s.secrets[service+"/"+account]; !ok {
		return gerrors.ErrMasterKeyNotFound
	}
	delete(s.secrets, service+"/"+account)
	return nil
}

func newTestCache(t *testing.T) (*Cache, *keyring.Manager) {
	t.Helper()
	settings := configs.SettingsAt(t.TempDir())
	keys := keyring.NewManager(&memStore{secrets: make(map[string]string)}, settings.MasterKeyPath, logger.Logger{})
	return New(keys, logger.Logger{}), keys
}

type reading struct {
	Glucose float64 `json:"glucose"`
	Insulin float64 `json:"insulin"`
}

func TestCache_PlaintextRoundtrip(t *testing.T) {
	c, _ := newTestCache(t)

	if err := c.Set("food:search:apple", []string{"apple", "apple juice"}, time.Minute, false); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	data, ok := c.Get("food:search:apple")
	if !ok {
		t.Fatal("Expected a cache hit")
	}
	if string(data) != `["apple","apple juice"]` {
		t.Errorf("Unexpected payload: %s", data)
	}
}

func TestCache_EncryptedRoundtrip(t *testing.T) {
	c, _ := newTestCache(t)

	if err := c.Set("entries:2026-08-01", reading{Glucose: 5.6, Insulin: 4}, time.Minute, true); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	data, ok := c.Get("entries:2026-08-01")
	if !ok {
		t.Fatal("Expected a cache hit")
	}
	if string(data) != `{"glucose":5.6,"insulin":4}` {
		t.Errorf("Unexpected payload: %s", data)
	}
}

func TestCache_MissOnUnknownKey(t *testing.T) {
	c, _ := newTestCache(t)

	if _, ok := c.Get("never-set"); ok {
		t.Error("Expected a miss for an unknown key")
	}
}

func TestCache_ExpiryEvicts(t *testing.T) {
	c, _ := newTestCache(t)

	current := time.Now()
	c.now = func() time.Time { return current }

	if err := c.Set("entries:today", reading{Glucose: 7.1}, 3*time.Minute, true); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok := c.Get("entries:today"); !ok {
		t.Fatal("Expected a hit before expiry")
	}

	current = current.Add(3*time.Minute + time.Second)
	if _, ok := c.Get("entries:today"); ok {
		t.Error("Expected a miss after expiry")
	}
	if got := c.Len(); got != 0 {
		t.Errorf("Expired entry should be evicted on read, %d entries remain", got)
	}
}

func TestCache_CorruptEncryptedEntrySelfHeals(t *testing.T) {
	c, keys := newTestCache(t)

	if err := c.Set("profile", reading{Glucose: 5.0}, time.Minute, true); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Rotating the master key makes the stored blob undecryptable, the
	// same failure mode as a key lost between runs.
	if !keys.DeleteMasterKey() {
		t.Fatal("Expected master key deletion to report success")
	}

	if _, ok := c.Get("profile"); ok {
		t.Fatal("Undecryptable entry must read as a miss")
	}
	if got := c.Len(); got != 0 {
		t.Errorf("Undecryptable entry should be evicted, %d entries remain", got)
	}

	// The slot is immediately reusable under the fresh key.
	if err := c.Set("profile", reading{Glucose: 6.2}, time.Minute, true); err != nil {
		t.Fatalf("Set after eviction failed: %v", err)
	}
	if _, ok := c.Get("profile"); !ok {
		t.Error("Expected a hit after rewrite")
	}
}

func TestCache_MapKeysAreHashed(t *testing.T) {
	c, _ := newTestCache(t)

	semantic := "entries:user@example.com:2026-08-01"
	if err := c.Set(semantic, reading{}, time.Minute, false); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	sum := sha256.Sum256([]byte(semantic))
	hashed := hex.EncodeToString(sum[:])

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[hashed]; !ok {
		t.Error("Entry is not stored under the hashed key")
	}
	if _, ok := c.entries[semantic]; ok {
		t.Error("Semantic key must never appear as a map key")
	}
}

func TestCache_CleanupCountsExpired(t *testing.T) {
	c, _ := newTestCache(t)

	current := time.Now()
	c.now = func() time.Time { return current }

	if err := c.Set("short", 1, time.Minute, false); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := c.Set("long", 2, time.Hour, false); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	current = current.Add(10 * time.Minute)
	if removed := c.Cleanup(); removed != 1 {
		t.Errorf("Expected 1 removed entry, got %d", removed)
	}
	if got := c.Len(); got != 1 {
		t.Errorf("Expected 1 surviving entry, got %d", got)
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("Unexpired entry must survive Cleanup")
	}
}

func TestCache_OverwriteReplacesEntry(t *testing.T) {
	c, _ := newTestCache(t)

	if err := c.Set("stats", reading{Glucose: 5.0}, time.Minute, false); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := c.Set("stats", reading{Glucose: 9.9}, time.Minute, false); err != nil {
		t.Fatalf("Second Set failed: %v", err)
	}

	data, ok := c.Get("stats")
	if !ok {
		t.Fatal("Expected a hit")
	}
	if string(data) != `{"glucose":9.9,"insulin":0}` {
		t.Errorf("Expected overwritten payload, got %s", data)
	}
	if got := c.Len(); got != 1 {
		t.Errorf("Overwrite must not grow the cache, got %d entries", got)
	}
}
