package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/glycohq/glyco/internal/crypto"
)

// StoredSession is the on-disk shape of session.json. ExpiresAt stays in
// plaintext so expiry can be checked without the master key.
type StoredSession struct {
	AccessToken *crypto.EncryptedBlob `json:"accessToken"`
	SessionID   *crypto.EncryptedBlob `json:"sessionId,omitempty"`
	ExpiresAt   time.Time             `json:"expiresAt"`
	CreatedAt   time.Time             `json:"createdAt"`
}

// Tokens is the decrypted in-memory session.
type Tokens struct {
	AccessToken string
	SessionID   string
	ExpiresAt   time.Time
}

// StoreTokens encrypts the session tokens and writes session.json.
func (m *Manager) StoreTokens(accessToken, sessionID string, expiresAt time.Time) error {
	masterKey, err := m.keys.MasterKey()
	if err != nil {
		return fmt.Errorf("failed to obtain master key: %w", err)
	}

	tokenBlob, err := crypto.Encrypt([]byte(accessToken), masterKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}

	doc := StoredSession{
		AccessToken: tokenBlob,
		ExpiresAt:   expiresAt.UTC(),
		CreatedAt:   time.Now().UTC(),
	}
	if sessionID != "" {
		sessionBlob, err := crypto.Encrypt([]byte(sessionID), masterKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt session ID: %w", err)
		}
		doc.SessionID = sessionBlob
	}

	return m.writeDocument(m.settings.SessionPath, doc)
}

// Tokens returns the stored session, enforcing expiry: an expired document
// is deleted and reported absent, never returned stale. Missing or corrupt
// documents also report absent with a logged warning.
func (m *Manager) Tokens() (*Tokens, error) {
	data, err := os.ReadFile(m.settings.SessionPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		m.log.Warnf("Stored session is unreadable: %v", err)
		return nil, nil
	}

	var doc StoredSession
	if err := json.Unmarshal(data, &doc); err != nil || doc.AccessToken == nil {
		m.log.Warnf("Stored session document is malformed, discarding it")
		_ = m.DeleteTokens()
		return nil, nil
	}

	if !doc.ExpiresAt.After(time.Now()) {
		m.log.Infof("Stored session expired at %s, discarding it", doc.ExpiresAt.Format(time.RFC3339))
		if err := m.DeleteTokens(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	masterKey, err := m.keys.MasterKey()
	if err != nil {
		return nil, fmt.Errorf("failed to obtain master key: %w", err)
	}

	accessToken, err := crypto.Decrypt(doc.AccessToken, masterKey)
	if err != nil {
		m.log.Warnf("Stored session cannot be decrypted, discarding it: %v", err)
		_ = m.DeleteTokens()
		return nil, nil
	}

	tokens := &Tokens{
		AccessToken: string(accessToken),
		ExpiresAt:   doc.ExpiresAt,
	}
	if doc.SessionID != nil {
		sessionID, err := crypto.Decrypt(doc.SessionID, masterKey)
		if err != nil {
			m.log.Warnf("Stored session cannot be decrypted, discarding it: %v", err)
			_ = m.DeleteTokens()
			return nil, nil
		}
		tokens.SessionID = string(sessionID)
	}
	return tokens, nil
}

// DeleteTokens removes session.json. Deleting a missing file is fine.
func (m *Manager) DeleteTokens() error {
	if err := os.Remove(m.settings.SessionPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}
