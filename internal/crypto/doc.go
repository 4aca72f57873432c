// Package crypto provides the authenticated encryption primitive protecting
// all local state in glyco.
//
// # Encryption Architecture
//
// Every secret persisted to disk (credentials, session tokens, cached
// health payloads, the fallback master-key file) is wrapped in an
// EncryptedBlob:
//
//  1. A fresh 64-byte salt and 16-byte IV are drawn from crypto/rand
//  2. A per-blob key is derived via PBKDF2-HMAC-SHA512 (100,000 iterations)
//     from the master key and the salt
//  3. The plaintext is sealed with AES-256-GCM
//  4. salt ‖ iv ‖ tag ‖ ciphertext is base64-encoded into the blob
//
// Because the salt and IV are random, encrypting identical plaintext twice
// produces different blobs (non-deterministic encryption).
//
// # Decryption Guarantees
//
// Decrypt authenticates before returning anything: a flipped ciphertext
// bit, a truncated blob, or an unknown version all fail with
// ErrDecryptionFailed. Partially decrypted data is never returned.
//
// # Audit Hashing
//
// HashForAudit produces a short, non-reversible digest of an identifier
// for log correlation, so audit entries never contain raw emails or
// tokens.
package crypto
