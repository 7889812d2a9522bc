// Package credential keeps account passwords in the system keyring.
package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "airsync"

// ErrNotFound is returned when no password is stored for an account.
var ErrNotFound = errors.New("credential not found")

// Store reads and writes passwords keyed by login and host.
type Store struct {
	ring keyring.Keyring
}

// Open returns a store backed by the platform keyring, falling back to an
// encrypted file under fileDir.
func Open(fileDir string) (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt("airsync-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &Store{ring: ring}, nil
}

// New wraps an existing keyring.
func New(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Key names the keyring item for a login on a host.
func Key(user, host string) string {
	return user + "@" + host
}

// Get returns the password stored for user on host.
func (s *Store) Get(user, host string) (string, error) {
	item, err := s.ring.Get(Key(user, host))
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", fmt.Errorf("password for %s: %w", Key(user, host), ErrNotFound)
		}
		return "", fmt.Errorf("getting credential %q: %w", Key(user, host), err)
	}
	return string(item.Data), nil
}

// Set stores the password for user on host.
func (s *Store) Set(user, host, password string) error {
	err := s.ring.Set(keyring.Item{
		Key:         Key(user, host),
		Data:        []byte(password),
		Label:       "airsync " + Key(user, host),
		Description: "Exchange ActiveSync password",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", Key(user, host), err)
	}
	return nil
}

// Delete removes the password for user on host.
func (s *Store) Delete(user, host string) error {
	if err := s.ring.Remove(Key(user, host)); err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return fmt.Errorf("password for %s: %w", Key(user, host), ErrNotFound)
		}
		return fmt.Errorf("deleting credential %q: %w", Key(user, host), err)
	}
	return nil
}

// Resolve returns override when set, and otherwise the stored password.
// override carries the AIRSYNC_PASSWORD environment variable.
func (s *Store) Resolve(override, user, host string) (string, error) {
	if override != "" {
		return override, nil
	}
	if s == nil {
		return "", fmt.Errorf("password for %s: %w", Key(user, host), ErrNotFound)
	}
	return s.Get(user, host)
}
