package errors

import "errors"

// Authentication errors indicate failures establishing or keeping a session.
var (
	// ErrAuthenticationFailed indicates the remote rejected the supplied credentials.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrAuthenticationRequired indicates an operation needs a session and none could be established.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrSessionExpired indicates the session was rejected and could not be refreshed.
	ErrSessionExpired = errors.New("session expired")

	// ErrNotSetUp indicates no stored credentials exist; the user must run setup.
	ErrNotSetUp = errors.New("credentials have not been set up")
)

// Transport errors indicate failures talking to the remote API.
var (
	// ErrRateLimited indicates the remote kept returning 429 after all retries.
	ErrRateLimited = errors.New("rate limited by remote API")

	// ErrNetwork indicates a network or timeout failure that outlived the retry budget.
	ErrNetwork = errors.New("network error")

	// ErrInvalidResponse indicates the remote returned an unexpected status or body.
	ErrInvalidResponse = errors.New("invalid response from remote API")
)

// Cryptographic errors indicate failures protecting or recovering local state.
var (
	// ErrDecryptionFailed indicates a ciphertext could not be authenticated and decrypted.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrInvalidKeyLength indicates the master key has an unexpected length.
	ErrInvalidKeyLength = errors.New("invalid master key length")

	// ErrUnknownBlobVersion indicates an encrypted blob carries an unsupported version.
	ErrUnknownBlobVersion = errors.New("unknown encrypted blob version")
)

// Keyring errors indicate issues sourcing the master key.
var (
	// ErrKeyringUnavailable indicates no native secret store could be reached.
	ErrKeyringUnavailable = errors.New("OS keyring unavailable")

	// ErrMasterKeyNotFound indicates no master key exists in any store.
	ErrMasterKeyNotFound = errors.New("master key not found")
)

// Input errors indicate the caller supplied unusable values.
var (
	// ErrValidation indicates a request or argument failed validation before any I/O.
	ErrValidation = errors.New("validation failed")
)
