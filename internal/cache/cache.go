package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/glycohq/glyco/internal/crypto"
	"github.com/glycohq/glyco/internal/keyring"
	logger "github.com/glycohq/glyco/internal/logging"
)

// entry is a stored payload. Exactly one of payload and blob is set,
// selected by encrypted.
type entry struct {
	payload   json.RawMessage
	blob      *crypto.EncryptedBlob
	encrypted bool
	createdAt time.Time
	expiresAt time.Time
}

// Cache is an in-memory TTL cache keyed by hashed semantic keys.
type Cache struct {
	keys *keyring.Manager
	log  logger.Logger

	mu      sync.Mutex
	entries map[string]*entry

	// now is swappable for TTL tests.
	now func() time.Time
}

// New builds a cache. The keyring manager is only consulted when an
// encrypted entry is set or read.
func New(keys *keyring.Manager, log logger.Logger) *Cache {
	return &Cache{
		keys:    keys,
		log:     log,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Set stores value under the semantic key for ttl. With encrypt set, the
// serialized payload is sealed under the master key before it is kept.
func (c *Cache) Set(key string, value any, ttl time.Duration, encrypt bool) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to serialize cache payload: %w", err)
	}

	e := &entry{
		encrypted: encrypt,
		createdAt: c.now(),
		expiresAt: c.now().Add(ttl),
	}

	if encrypt {
		masterKey, err := c.keys.MasterKey()
		if err != nil {
			return fmt.Errorf("failed to obtain master key for cache: %w", err)
		}
		blob, err := crypto.Encrypt(data, masterKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt cache payload: %w", err)
		}
		e.blob = blob
	} else {
		e.payload = data
	}

	c.mu.Lock()
	c.entries[hashKey(key)] = e
	c.mu.Unlock()
	return nil
}

// Get returns the payload for key, or a miss. Expired entries and
// encrypted entries that fail to decrypt are evicted and reported as
// misses; Get never returns an error condition to the caller.
func (c *Cache) Get(key string) (json.RawMessage, bool) {
	hashed := hashKey(key)

	c.mu.Lock()
	e, ok := c.entries[hashed]
	if !ok {
		c.mu.Unlock()
		return nil, false
	}
	if !e.expiresAt.After(c.now()) {
		delete(c.entries, hashed)
		c.mu.Unlock()
		return nil, false
	}
	c.mu.Unlock()

	if !e.encrypted {
		return e.payload, true
	}

	masterKey, err := c.keys.MasterKey()
	if err != nil {
		c.log.Warnf("Cache cannot obtain master key, treating entry as miss: %v", err)
		c.evict(hashed)
		return nil, false
	}
	data, err := crypto.Decrypt(e.blob, masterKey)
	if err != nil {
		c.log.Warnf("Cached entry no longer decrypts, evicting it")
		c.evict(hashed)
		return nil, false
	}
	return data, true
}

// Cleanup sweeps all expired entries and returns how many were removed.
func (c *Cache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := c.now()
	for key, e := range c.entries {
		if !e.expiresAt.After(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) evict(hashed string) {
	c.mu.Lock()
	delete(c.entries, hashed)
	c.mu.Unlock()
}

// hashKey hides the semantic key. The raw key is never used as a map key
// or logged.
func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
