package keyring

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/crypto/scrypt"

	"github.com/glycohq/glyco/internal/crypto"
)

// fallbackSalt is deliberately fixed. The machine binding comes from the
// derivation input (home dir, OS, architecture), not from the salt.
const fallbackSalt = "glyco-machine-key-v1"

const (
	scryptN = 32768
	scryptR = 8
	scryptP = 1
)

// machineKey derives the key wrapping the fallback master-key file from
// stable machine markers. The same user on the same machine always gets
// the same key; any other host gets a different one and fails to decrypt.
func machineKey() ([]byte, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}

	seed := homeDir + runtime.GOOS + runtime.GOARCH
	key, err := scrypt.Key([]byte(seed), []byte(fallbackSalt), scryptN, scryptR, scryptP, crypto.MasterKeySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive machine key: %w", err)
	}
	return key, nil
}

// writeFallbackKey seals the master key into the key file (0600) inside a
// 0700 directory.
func writeFallbackKey(path string, masterKey []byte) error {
	wrapKey, err := machineKey()
	if err != nil {
		return err
	}

	blob, err := crypto.Encrypt(masterKey, wrapKey)
	if err != nil {
		return fmt.Errorf("failed to seal master key: %w", err)
	}

	data, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("failed to marshal key file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}

// readFallbackKey opens the key file and unseals the master key. A decrypt
// failure here means corruption or a different machine; the caller must
// not retry against the same file.
func readFallbackKey(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var blob crypto.EncryptedBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("malformed key file: %w", err)
	}

	wrapKey, err := machineKey()
	if err != nil {
		return nil, err
	}

	masterKey, err := crypto.Decrypt(&blob, wrapKey)
	if err != nil {
		return nil, fmt.Errorf("key file cannot be decrypted on this machine: %w", err)
	}
	return masterKey, nil
}
