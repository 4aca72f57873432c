package cmd

import (
	"fmt"
	"time"

	"github.com/glycohq/glyco/internal/api"
	"github.com/glycohq/glyco/internal/audit"
	"github.com/glycohq/glyco/internal/auth"
	"github.com/glycohq/glyco/internal/cache"
	"github.com/glycohq/glyco/internal/configs"
	"github.com/glycohq/glyco/internal/credentials"
	"github.com/glycohq/glyco/internal/keyring"
)

// App is the composition root: every service is constructed here, once,
// and handed its dependencies explicitly. Nothing below holds global
// state, so tests can assemble the same graph over temp dirs and mock
// servers.
type App struct {
	Settings *configs.Settings
	Config   *configs.Config
	Keys     *keyring.Manager
	Creds    *credentials.Manager
	Auth     *auth.Manager
	Client   *api.Client
	Cache    *cache.Cache
	Audit    *audit.Log
}

// buildApp wires the service graph from the on-disk configuration.
func buildApp() (*App, error) {
	settings, err := configs.DefaultSettings()
	if err != nil {
		return nil, err
	}
	config, err := configs.LoadConfig(settings)
	if err != nil {
		return nil, err
	}
	deviceID, err := configs.EnsureDeviceID(settings, config)
	if err != nil {
		return nil, err
	}

	auditLog := audit.New(settings.AuditLogPath)
	keys := keyring.NewManager(keyring.NewSystemStore(), settings.MasterKeyPath, Logger)
	creds := credentials.NewManager(settings, keys, Logger)

	authManager, err := auth.NewManager(
		baseURL(config),
		auth.Device{ID: deviceID, Name: config.Device.Name},
		creds,
		auditLog,
		config.RequestTimeout(),
		Logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build auth manager: %w", err)
	}

	client := api.NewClient(api.OptionsFromConfig(config), authManager, auditLog, Logger)

	return &App{
		Settings: settings,
		Config:   config,
		Keys:     keys,
		Creds:    creds,
		Auth:     authManager,
		Client:   client,
		Cache:    cache.New(keys, Logger),
		Audit:    auditLog,
	}, nil
}

func baseURL(config *configs.Config) string {
	if config.API.BaseURL != "" {
		return config.API.BaseURL
	}
	return api.DefaultBaseURL
}

// personalTTL and publicTTL translate the cache policy config.
func (a *App) personalTTL() time.Duration {
	return time.Duration(a.Config.Cache.PersonalTTLMinutes) * time.Minute
}

func (a *App) publicTTL() time.Duration {
	return time.Duration(a.Config.Cache.PublicTTLMinutes) * time.Minute
}
