package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	gerrors "github.com/glycohq/glyco/internal/errors"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// BlobVersion is the current EncryptedBlob format version.
	BlobVersion = 1

	// MasterKeySize is the master key length in bytes (AES-256).
	MasterKeySize = 32

	saltSize = 64
	ivSize   = 16
	tagSize  = 16

	// minBlobSize is the fixed-width header: salt + iv + tag. Anything
	// shorter cannot be a valid blob, even with empty plaintext.
	minBlobSize = saltSize + ivSize + tagSize

	kdfIterations = 100000
	derivedKeyLen = 32

	auditHashLen = 16 // hex characters kept from the SHA-256 digest
)

// EncryptedBlob is the versioned container for all ciphertext at rest.
// Data holds base64(salt[64] ‖ iv[16] ‖ tag[16] ‖ ciphertext).
type EncryptedBlob struct {
	Data      string    `json:"data"`
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// GenerateMasterKey returns 32 bytes from the system CSPRNG.
func GenerateMasterKey() ([]byte, error) {
	key := make([]byte, MasterKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}
	return key, nil
}

// deriveKey stretches the master key into a per-blob AES key. The same
// parameters must be used on both sides; changing them is a format break.
func deriveKey(masterKey, salt []byte) []byte {
	return pbkdf2.Key(masterKey, salt, kdfIterations, derivedKeyLen, sha512.New)
}

// Encrypt seals plaintext under the master key into an EncryptedBlob.
// Two calls with identical inputs yield different blobs.
func Encrypt(plaintext, masterKey []byte) (*EncryptedBlob, error) {
	if len(masterKey) != MasterKeySize {
		return nil, gerrors.ErrInvalidKeyLength
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("failed to generate iv: %w", err)
	}

	block, err := aes.NewCipher(deriveKey(masterKey, salt))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}

	// Seal appends the tag after the ciphertext; the blob layout wants
	// the tag in the header, so split and reorder.
	sealed := gcm.Seal(nil, iv, plaintext, nil)
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	raw := make([]byte, 0, minBlobSize+len(ciphertext))
	raw = append(raw, salt...)
	raw = append(raw, iv...)
	raw = append(raw, tag...)
	raw = append(raw, ciphertext...)

	return &EncryptedBlob{
		Data:      base64.StdEncoding.EncodeToString(raw),
		Version:   BlobVersion,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Decrypt authenticates and opens a blob. It fails with ErrDecryptionFailed
// on tag mismatch or truncation and ErrUnknownBlobVersion on a version the
// current build does not understand. It never returns partial plaintext.
func Decrypt(blob *EncryptedBlob, masterKey []byte) ([]byte, error) {
	if len(masterKey) != MasterKeySize {
		return nil, gerrors.ErrInvalidKeyLength
	}
	if blob.Version != BlobVersion {
		return nil, fmt.Errorf("blob version %d: %w", blob.Version, gerrors.ErrUnknownBlobVersion)
	}

	raw, err := base64.StdEncoding.DecodeString(blob.Data)
	if err != nil {
		return nil, fmt.Errorf("malformed base64: %w", gerrors.ErrDecryptionFailed)
	}
	if len(raw) < minBlobSize {
		return nil, fmt.Errorf("blob shorter than header (%d bytes): %w", len(raw), gerrors.ErrDecryptionFailed)
	}

	salt := raw[:saltSize]
	iv := raw[saltSize : saltSize+ivSize]
	tag := raw[saltSize+ivSize : minBlobSize]
	ciphertext := raw[minBlobSize:]

	block, err := aes.NewCipher(deriveKey(masterKey, salt))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}

	sealed := make([]byte, 0, len(ciphertext)+tagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, gerrors.ErrDecryptionFailed
	}
	return plaintext, nil
}

// HashForAudit returns a truncated SHA-256 hex digest of input, suitable
// for correlating audit-log entries without exposing the identifier.
func HashForAudit(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:auditHashLen]
}
