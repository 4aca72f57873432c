// Package errors provides typed error values for the glyco application.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching. This makes
// error handling more robust and refactoring-safe.
//
// # Error Categories
//
// Errors are grouped by category:
//
//   - Authentication errors: Session establishment failures (ErrAuthenticationFailed, ErrNotSetUp)
//   - Transport errors: Remote API failures (ErrRateLimited, ErrNetwork)
//   - Crypto errors: Encryption/decryption failures (ErrDecryptionFailed)
//   - Keyring errors: Master key sourcing issues (ErrKeyringUnavailable)
//
// # Usage
//
// Return errors from internal packages:
//
//	if len(key) != 32 {
//	    return nil, errors.ErrInvalidKeyLength
//	}
//
// Handle errors in the CLI layer:
//
//	creds, err := store.Credentials()
//	if errors.Is(err, gerrors.ErrNotSetUp) {
//	    // Tell the user to run `glyco setup`
//	}
//
// Wrap errors with additional context:
//
//	return fmt.Errorf("loading session for %s: %w", hashed, errors.ErrDecryptionFailed)
//
// Expected remote-API outcomes (auth expiry, rate limits, network failures)
// are additionally reported through api.Result rather than returned as Go
// errors; these sentinels back the Result's error classification.
package errors
