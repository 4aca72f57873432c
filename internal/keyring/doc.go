// Package keyring sources and persists the master key protecting all local
// ciphertext.
//
// # Key Sourcing
//
// The master key is resolved once per process, in order:
//
//  1. The native OS secret store (macOS Keychain, Windows Credential
//     Manager, libsecret on Linux), holding one (service, account) entry
//     with the base64 master key.
//  2. A machine-bound encrypted key file in the config directory. The file
//     is sealed under a key derived via scrypt from stable machine markers
//     (home directory, OS, architecture) and a fixed salt, so copying it
//     to another host makes it undecryptable. That is intentional: the
//     fallback trades portability for not leaving the root secret in
//     plaintext anywhere.
//
// If neither store holds a key, a new one is generated and persisted to
// whichever store is active. A decrypt failure on the fallback file is
// terminal for the call; it means corruption or a different machine, and
// retrying against the same file cannot succeed.
//
// # Capability Interface
//
// SecretStore abstracts Get/Set/Delete on the native store so tests can
// substitute an in-memory implementation and the manager never has to
// feature-probe at call sites. The backend is selected once, on the first
// master-key fetch, and memoized.
package keyring
