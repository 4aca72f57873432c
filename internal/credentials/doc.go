// Package credentials persists login credentials and session tokens as
// independently encrypted JSON documents in the config directory.
//
// # Storage Layout
//
// Two files, both mode 0600:
//
//   - credentials.json: the user's email and password, each field wrapped
//     in its own EncryptedBlob. Written by setup, overwritten on re-setup,
//     removed by reset.
//   - session.json: the access token and optional session ID from the last
//     successful login, plus a plaintext expiry timestamp. Written after
//     login, removed on logout or auth failure.
//
// The two documents are encrypted and expirable independently: wiping a
// session never touches credentials, and vice versa.
//
// # Degradation
//
// A missing or undecryptable document is reported as absent (nil, nil),
// never as an error, with a warning logged. Callers degrade to a
// "needs setup" or "needs login" path instead of crashing on corrupt
// state. An expired session is deleted on read and reported absent, so a
// stale token can never be returned.
package credentials
