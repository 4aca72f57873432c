package configs

import (
	"os"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Limits.Burst != 5 {
		t.Errorf("Expected burst 5, got %d", config.Limits.Burst)
	}
	if config.Limits.MaxRetries != 3 {
		t.Errorf("Expected 3 retries, got %d", config.Limits.MaxRetries)
	}
	if config.Cache.PersonalTTLMinutes != 3 || config.Cache.PublicTTLMinutes != 360 {
		t.Errorf("Unexpected cache TTLs: %+v", config.Cache)
	}
	if config.RequestTimeout() != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %s", config.RequestTimeout())
	}
	if config.Device.Name == "" {
		t.Error("Device name should default to the hostname")
	}
}

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	settings := SettingsAt(t.TempDir())

	config, err := LoadConfig(settings)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Limits.Burst != 5 {
		t.Errorf("Expected default burst, got %d", config.Limits.Burst)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	settings := SettingsAt(t.TempDir())

	config := DefaultConfig()
	config.API.BaseURL = "http://localhost:9999"
	config.Limits.Burst = 2
	if err := SaveConfig(settings, config); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(settings)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.API.BaseURL != "http://localhost:9999" {
		t.Errorf("BaseURL did not roundtrip: %q", loaded.API.BaseURL)
	}
	if loaded.Limits.Burst != 2 {
		t.Errorf("Burst did not roundtrip: %d", loaded.Limits.Burst)
	}
	if loaded.Cache.PublicTTLMinutes != 360 {
		t.Errorf("Untouched defaults should survive the roundtrip, got %d", loaded.Cache.PublicTTLMinutes)
	}
}

func TestEnsureDeviceID_GeneratesAndPersists(t *testing.T) {
	settings := SettingsAt(t.TempDir())
	config := DefaultConfig()

	id, err := EnsureDeviceID(settings, config)
	if err != nil {
		t.Fatalf("EnsureDeviceID failed: %v", err)
	}
	if id == "" {
		t.Fatal("Expected a generated device ID")
	}

	// A second process loading the same config must see the same ID.
	loaded, err := LoadConfig(settings)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	again, err := EnsureDeviceID(settings, loaded)
	if err != nil {
		t.Fatalf("Second EnsureDeviceID failed: %v", err)
	}
	if again != id {
		t.Errorf("Device ID changed across loads: %q vs %q", again, id)
	}
}

func TestEnsureDeviceID_KeepsExisting(t *testing.T) {
	settings := SettingsAt(t.TempDir())
	config := DefaultConfig()
	config.Device.ID = "fixed-id"

	id, err := EnsureDeviceID(settings, config)
	if err != nil {
		t.Fatalf("EnsureDeviceID failed: %v", err)
	}
	if id != "fixed-id" {
		t.Errorf("Existing ID must be kept, got %q", id)
	}
	// Nothing should have been written for an already-assigned ID.
	if _, err := os.Stat(settings.ConfigPath); !os.IsNotExist(err) {
		t.Error("Config file should not exist when the ID was already set")
	}
}

func TestEnsureConfigDir_Permissions(t *testing.T) {
	settings := SettingsAt(t.TempDir() + "/nested/glyco")

	if err := settings.EnsureConfigDir(); err != nil {
		t.Fatalf("EnsureConfigDir failed: %v", err)
	}
	info, err := os.Stat(settings.ConfigDir)
	if err != nil {
		t.Fatalf("Config dir missing: %v", err)
	}
	if info.Mode().Perm() != 0700 {
		t.Errorf("Expected 0700 config dir, got %o", info.Mode().Perm())
	}
}
