package configs

import (
	"fmt"
	"os"
	"path/filepath"
)

// Settings resolves where glyco keeps its local state. All secret-bearing
// files live under ConfigDir, which is created with mode 0700.
type Settings struct {
	// ConfigDir is the restricted per-user directory, e.g.
	// ~/.config/glyco on Linux.
	ConfigDir string

	// ConfigPath is the TOML application config.
	ConfigPath string

	// CredentialsPath is the encrypted login-credentials document.
	CredentialsPath string

	// SessionPath is the encrypted session-token document.
	SessionPath string

	// MasterKeyPath is the encrypted master-key file used only when no
	// native OS keyring is available.
	MasterKeyPath string

	// AuditLogPath is the plaintext JSONL audit log. Entries contain only
	// hashed identifiers.
	AuditLogPath string
}

// DefaultSettings resolves paths under the platform config directory.
func DefaultSettings() (*Settings, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user config directory: %w", err)
	}
	return SettingsAt(filepath.Join(configDir, "glyco")), nil
}

// SettingsAt builds Settings rooted at dir. Tests point this at a temp dir.
func SettingsAt(dir string) *Settings {
	return &Settings{
		ConfigDir:       dir,
		ConfigPath:      filepath.Join(dir, "config.toml"),
		CredentialsPath: filepath.Join(dir, "credentials.json"),
		SessionPath:     filepath.Join(dir, "session.json"),
		MasterKeyPath:   filepath.Join(dir, "master.key"),
		AuditLogPath:    filepath.Join(dir, "audit.jsonl"),
	}
}

// EnsureConfigDir creates the config directory with restrictive permissions.
func (s *Settings) EnsureConfigDir() error {
	if err := os.MkdirAll(s.ConfigDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}
