package keyring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/datebook/internal/constants"
)

var (
	// ErrNotFound is returned when no data source is stored in the keyring
	ErrNotFound = errors.New("data source not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// GetDataSource returns the data source stored in the OS keyring. It is
// typically a Postgres or Redis URL carrying credentials that should not
// live in a config file.
func GetDataSource() (string, error) {
	source, err := keyring.Get(constants.AppName, constants.DefaultKeyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return source, nil
}

// SetDataSource stores the data source in the OS keyring.
func SetDataSource(source string) error {
	if strings.TrimSpace(source) == "" {
		return errors.New("data source cannot be empty")
	}
	if err := keyring.Set(constants.AppName, constants.DefaultKeyringUser, source); err != nil {
		return fmt.Errorf("failed to store data source in keyring: %w", err)
	}
	return nil
}

// DeleteDataSource removes the data source from the OS keyring.
func DeleteDataSource() error {
	err := keyring.Delete(constants.AppName, constants.DefaultKeyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete data source from keyring: %w", err)
	}
	return nil
}

// IsAvailable is a best-effort check that the OS keyring can be read.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
