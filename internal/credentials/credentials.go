package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/glycohq/glyco/internal/configs"
	"github.com/glycohq/glyco/internal/crypto"
	"github.com/glycohq/glyco/internal/keyring"
	logger "github.com/glycohq/glyco/internal/logging"
)

// StoredCredentials is the on-disk shape of credentials.json.
type StoredCredentials struct {
	Email     *crypto.EncryptedBlob `json:"email"`
	Password  *crypto.EncryptedBlob `json:"password"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

// Credentials is the decrypted in-memory pair.
type Credentials struct {
	Email    string
	Password string
}

// Manager owns the two encrypted documents in the config directory.
type Manager struct {
	settings *configs.Settings
	keys     *keyring.Manager
	log      logger.Logger
}

// NewManager builds a credentials manager over the given key source.
func NewManager(settings *configs.Settings, keys *keyring.Manager, log logger.Logger) *Manager {
	return &Manager{settings: settings, keys: keys, log: log}
}

// StoreCredentials encrypts both fields under the master key and writes
// credentials.json, replacing any previous document.
func (m *Manager) StoreCredentials(email, password string) error {
	masterKey, err := m.keys.MasterKey()
	if err != nil {
		return fmt.Errorf("failed to obtain master key: %w", err)
	}

	emailBlob, err := crypto.Encrypt([]byte(email), masterKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt email: %w", err)
	}
	passwordBlob, err := crypto.Encrypt([]byte(password), masterKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt password: %w", err)
	}

	now := time.Now().UTC()
	doc := StoredCredentials{
		Email:     emailBlob,
		Password:  passwordBlob,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if prev, err := m.readCredentialsFile(); err == nil && prev != nil {
		doc.CreatedAt = prev.CreatedAt
	}

	return m.writeDocument(m.settings.CredentialsPath, doc)
}

// Credentials decrypts and returns the stored pair. A missing or corrupt
// document yields (nil, nil) with a logged warning; the caller must treat
// that as "needs setup".
func (m *Manager) Credentials() (*Credentials, error) {
	doc, err := m.readCredentialsFile()
	if err != nil {
		m.log.Warnf("Stored credentials are unreadable: %v", err)
		return nil, nil
	}
	if doc == nil {
		return nil, nil
	}

	masterKey, err := m.keys.MasterKey()
	if err != nil {
		return nil, fmt.Errorf("failed to obtain master key: %w", err)
	}

	email, err := crypto.Decrypt(doc.Email, masterKey)
	if err != nil {
		m.log.Warnf("Stored credentials cannot be decrypted: %v", err)
		return nil, nil
	}
	password, err := crypto.Decrypt(doc.Password, masterKey)
	if err != nil {
		m.log.Warnf("Stored credentials cannot be decrypted: %v", err)
		return nil, nil
	}

	return &Credentials{Email: string(email), Password: string(password)}, nil
}

// ClearAll removes both documents. Missing files are not an error.
func (m *Manager) ClearAll() error {
	if err := os.Remove(m.settings.CredentialsPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	if err := m.DeleteTokens(); err != nil {
		return err
	}
	return nil
}

func (m *Manager) readCredentialsFile() (*StoredCredentials, error) {
	data, err := os.ReadFile(m.settings.CredentialsPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var doc StoredCredentials
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("malformed credentials document: %w", err)
	}
	if doc.Email == nil || doc.Password == nil {
		return nil, fmt.Errorf("credentials document is missing fields")
	}
	return &doc, nil
}

// writeDocument marshals and writes a JSON document with mode 0600 inside
// the 0700 config directory.
func (m *Manager) writeDocument(path string, doc any) error {
	if err := m.settings.EnsureConfigDir(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
