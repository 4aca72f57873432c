package keyring

import (
	"errors"
	"fmt"

	zkeyring "github.com/zalando/go-keyring"

	gerrors "github.com/glycohq/glyco/internal/errors"
)

const (
	// ServiceName is the keyring service under which the master key lives.
	ServiceName = "glyco"

	// AccountName is the keyring account for the master-key entry.
	AccountName = "master-key"
)

// SecretStore is the capability interface over an OS secret store. Tests
// substitute an in-memory implementation.
type SecretStore interface {
	// Get retrieves the secret, returning ErrMasterKeyNotFound when the
	// entry does not exist.
	Get(service, account string) (string, error)

	// Set stores or replaces the secret.
	Set(service, account, secret string) error

	// Delete removes the secret, returning ErrMasterKeyNotFound when the
	// entry does not exist.
	Delete(service, account string) error
}

// systemStore backs SecretStore with the platform keyring.
type systemStore struct{}

// NewSystemStore returns the native OS secret store.
func NewSystemStore() SecretStore {
	return systemStore{}
}

func (systemStore) Get(service, account string) (string, error) {
	secret, err := zkeyring.Get(service, account)
	if errors.Is(err, zkeyring.ErrNotFound) {
		return "", gerrors.ErrMasterKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", gerrors.ErrKeyringUnavailable, err)
	}
	return secret, nil
}

func (systemStore) Set(service, account, secret string) error {
	if err := zkeyring.Set(service, account, secret); err != nil {
		return fmt.Errorf("%w: %v", gerrors.ErrKeyringUnavailable, err)
	}
	return nil
}

func (systemStore) Delete(service, account string) error {
	err := zkeyring.Delete(service, account)
	if errors.Is(err, zkeyring.ErrNotFound) {
		return gerrors.ErrMasterKeyNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", gerrors.ErrKeyringUnavailable, err)
	}
	return nil
}
