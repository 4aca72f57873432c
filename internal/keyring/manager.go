package keyring

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/glycohq/glyco/internal/crypto"
	gerrors "github.com/glycohq/glyco/internal/errors"
	logger "github.com/glycohq/glyco/internal/logging"
)

// Backend names which key store is active for this process.
type Backend string

const (
	// BackendNative means the OS secret store holds the master key.
	BackendNative Backend = "native"

	// BackendFile means the machine-bound encrypted key file is in use.
	BackendFile Backend = "file"
)

// Manager resolves the master key once per process and remembers which
// backend produced it.
type Manager struct {
	store       SecretStore
	keyFilePath string
	log         logger.Logger

	mu        sync.Mutex
	masterKey []byte
	backend   Backend
}

// NewManager builds a Manager over the given secret store. Pass
// NewSystemStore() in production, an in-memory store in tests.
func NewManager(store SecretStore, keyFilePath string, log logger.Logger) *Manager {
	return &Manager{
		store:       store,
		keyFilePath: keyFilePath,
		log:         log,
	}
}

// MasterKey returns the process master key, sourcing it on first call.
// The native store is probed once; on any native-store error the manager
// commits to the machine-bound file for the rest of the process.
func (m *Manager) MasterKey() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.masterKey != nil {
		return m.masterKey, nil
	}

	key, backend, err := m.resolve()
	if err != nil {
		return nil, err
	}

	m.masterKey = key
	m.backend = backend
	return key, nil
}

// ActiveBackend reports which store holds the master key. It resolves the
// key if that has not happened yet, but never generates or writes state a
// plain MasterKey call would not.
func (m *Manager) ActiveBackend() (Backend, error) {
	if _, err := m.MasterKey(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.backend, nil
}

// DeleteMasterKey best-effort removes the key from both stores and resets
// the memoized state. It reports whether anything was actually deleted.
func (m *Manager) DeleteMasterKey() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := false

	switch err := m.store.Delete(ServiceName, AccountName); {
	case err == nil:
		deleted = true
	case errors.Is(err, gerrors.ErrMasterKeyNotFound):
		// Nothing in the native store.
	default:
		m.log.Warnf("Failed to delete master key from OS keyring: %v", err)
	}

	switch err := os.Remove(m.keyFilePath); {
	case err == nil:
		deleted = true
	case os.IsNotExist(err):
		// Nothing in the file store.
	default:
		m.log.Warnf("Failed to delete fallback key file: %v", err)
	}

	m.masterKey = nil
	m.backend = ""
	return deleted
}

// resolve performs the one-time probe-and-source sequence.
func (m *Manager) resolve() ([]byte, Backend, error) {
	secret, err := m.store.Get(ServiceName, AccountName)
	switch {
	case err == nil:
		key, decodeErr := base64.StdEncoding.DecodeString(secret)
		if decodeErr != nil || len(key) != crypto.MasterKeySize {
			return nil, "", fmt.Errorf("master key entry in OS keyring is corrupt: %w", gerrors.ErrDecryptionFailed)
		}
		m.log.Debugf("Master key loaded from OS keyring")
		return key, BackendNative, nil

	case errors.Is(err, gerrors.ErrMasterKeyNotFound):
		key, genErr := crypto.GenerateMasterKey()
		if genErr != nil {
			return nil, "", genErr
		}
		if setErr := m.store.Set(ServiceName, AccountName, base64.StdEncoding.EncodeToString(key)); setErr != nil {
			m.log.Warnf("OS keyring rejected the new master key, using machine-bound file: %v", setErr)
			return m.resolveFile()
		}
		m.log.Debugf("Generated master key and stored it in OS keyring")
		return key, BackendNative, nil

	default:
		m.log.Warnf("OS keyring unavailable, using machine-bound file: %v", err)
		return m.resolveFile()
	}
}

// resolveFile loads or creates the machine-bound key file. A decrypt
// failure is terminal: it signals corruption or a foreign machine and must
// not be retried against the same file.
func (m *Manager) resolveFile() ([]byte, Backend, error) {
	key, err := readFallbackKey(m.keyFilePath)
	if err == nil {
		m.log.Debugf("Master key loaded from machine-bound key file")
		return key, BackendFile, nil
	}
	if !os.IsNotExist(err) {
		return nil, "", fmt.Errorf("failed to read fallback key file: %w", err)
	}

	key, err = crypto.GenerateMasterKey()
	if err != nil {
		return nil, "", err
	}
	if err := writeFallbackKey(m.keyFilePath, key); err != nil {
		return nil, "", err
	}
	m.log.Debugf("Generated master key and stored it in machine-bound key file")
	return key, BackendFile, nil
}
