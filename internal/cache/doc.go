// Package cache is a TTL cache for remote payloads, optionally encrypting
// entries at rest in memory.
//
// # Keys
//
// Callers pass semantic string keys ("diary:2024-06-01", "food:apple").
// Entries are stored under the SHA-256 hash of the key, so even a memory
// dump of the map never reveals what was looked up.
//
// # Encryption Policy
//
// Non-sensitive payloads (public food-database results) are cached
// unencrypted with a long TTL. Personal health payloads are always cached
// encrypted under the master key with a short TTL (minutes), trading hit
// rate for a smaller exposure window. The master key is fetched lazily on
// the first encrypted Set.
//
// # Self-Healing
//
// Get never fails: an expired entry is evicted and reported as a miss,
// and an encrypted entry that no longer decrypts (key rotated, state
// reset) is likewise evicted and reported as a miss. Cleanup sweeps all
// expired entries on demand; no background timers run.
package cache
