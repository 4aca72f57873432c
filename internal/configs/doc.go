// Package configs manages application configuration and local state paths
// for glyco.
//
// Configuration is stored in TOML format at a single level:
//
//   - App config: <os config dir>/glyco/config.toml
//
// # Application Configuration
//
// The config stores:
//   - Optional API base URL override and the per-request timeout
//   - Rate-limit and retry tuning (burst, refill interval, backoff bounds)
//   - Cache TTL policy for personal and public payloads
//   - Device identity (persisted UUID plus display name) sent at login
//
// The device UUID is auto-generated on first use and persists across
// sessions. The remote API uses it to distinguish installs.
//
// # Settings
//
// Settings resolves every file glyco touches: the TOML config, the
// encrypted credentials and session documents, the fallback master-key
// file, and the audit log. All of them live in one directory created with
// mode 0700. SettingsAt lets tests root the whole tree in a temp dir
// instead of the real user config directory.
//
// Unlike the config file, Settings is constructed explicitly and passed to
// the services that need it; there is no package-level global.
package configs
