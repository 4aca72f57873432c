package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
)

// Config is the TOML application configuration. Everything has a working
// default; the file only needs to exist once setup has run, because the
// device identity is persisted here.
type Config struct {
	API    APIConfig    `toml:"api"`
	Limits LimitsConfig `toml:"limits"`
	Cache  CacheConfig  `toml:"cache"`
	Device DeviceConfig `toml:"device"`
}

type APIConfig struct {
	// BaseURL overrides the built-in remote endpoint. Useful only for
	// testing against a mock server.
	BaseURL string `toml:"base_url,omitempty"`

	// RequestTimeoutSeconds is the hard per-request timeout.
	RequestTimeoutSeconds int `toml:"request_timeout_seconds"`
}

type LimitsConfig struct {
	// Burst is the token-bucket capacity.
	Burst int `toml:"burst"`

	// IntervalMillis is how long one token takes to refill.
	IntervalMillis int `toml:"interval_millis"`

	// MaxRetries bounds retry attempts for transient failures.
	MaxRetries int `toml:"max_retries"`

	// InitialDelayMillis seeds the exponential backoff.
	InitialDelayMillis int `toml:"initial_delay_millis"`

	// MaxDelayMillis caps the exponential backoff.
	MaxDelayMillis int `toml:"max_delay_millis"`
}

type CacheConfig struct {
	// PersonalTTLMinutes is the TTL for encrypted personal payloads.
	PersonalTTLMinutes int `toml:"personal_ttl_minutes"`

	// PublicTTLMinutes is the TTL for unencrypted public payloads.
	PublicTTLMinutes int `toml:"public_ttl_minutes"`
}

type DeviceConfig struct {
	// ID is the persisted UUID identifying this install in login payloads.
	ID string `toml:"id"`

	// Name is sent as the device name during login.
	Name string `toml:"name"`
}

// DefaultConfig returns the configuration used when no file exists yet.
func DefaultConfig() *Config {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "glyco-device"
	}
	return &Config{
		API: APIConfig{
			RequestTimeoutSeconds: 30,
		},
		Limits: LimitsConfig{
			Burst:              5,
			IntervalMillis:     1000,
			MaxRetries:         3,
			InitialDelayMillis: 1000,
			MaxDelayMillis:     30000,
		},
		Cache: CacheConfig{
			PersonalTTLMinutes: 3,
			PublicTTLMinutes:   360,
		},
		Device: DeviceConfig{
			Name: hostname,
		},
	}
}

// LoadConfig reads the config file, returning defaults if it is missing.
func LoadConfig(settings *Settings) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(settings.ConfigPath); os.IsNotExist(err) {
		return config, nil
	}

	if err := LoadTOML(settings.ConfigPath, config); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return config, nil
}

// SaveConfig writes the config file.
func SaveConfig(settings *Settings, config *Config) error {
	if err := SaveTOML(settings.ConfigPath, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// EnsureDeviceID makes sure the config carries a persisted device UUID,
// generating and saving one on first use. The remote login payload needs a
// stable device identity across sessions.
func EnsureDeviceID(settings *Settings, config *Config) (string, error) {
	if config.Device.ID != "" {
		return config.Device.ID, nil
	}

	config.Device.ID = uuid.New().String()
	if err := SaveConfig(settings, config); err != nil {
		return "", fmt.Errorf("failed to persist device ID: %w", err)
	}
	return config.Device.ID, nil
}

// RequestTimeout returns the per-request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.API.RequestTimeoutSeconds) * time.Second
}

// SaveTOML saves a struct to a TOML file inside a 0700 directory.
func SaveTOML(filePath string, data interface{}) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0700); err != nil {
		return err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	return toml.NewEncoder(file).Encode(data)
}

// LoadTOML loads a TOML file into a struct.
func LoadTOML(filePath string, data interface{}) error {
	_, err := toml.DecodeFile(filePath, data)
	return err
}
