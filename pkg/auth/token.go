// Package auth handles the OAuth flow and access-token storage. Tokens live
// in the system keychain when one is available, with an encrypted file as
// fallback, so the bearer token never sits on disk in the clear.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Token is a stored OAuth access token.
type Token struct {
	AccessToken string    `json:"access_token"`
	Scope       string    `json:"scope,omitempty"`
	ObtainedAt  time.Time `json:"obtained_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IsExpired reports whether the token has passed its expiry. Tokens without
// an expiry never expire locally; the API decides.
func (t *Token) IsExpired() bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(t.ExpiresAt)
}

// TokenStore is the interface for persisting the access token.
type TokenStore interface {
	// Store saves the token.
	Store(token *Token) error

	// Retrieve gets the stored token.
	Retrieve() (*Token, error)

	// Delete removes the stored token.
	Delete() error

	// Exists checks whether a token is stored.
	Exists() bool
}

var (
	ErrTokenNotFound    = errors.New("no stored token")
	ErrInvalidToken     = errors.New("invalid token")
	ErrStoreUnavailable = errors.New("token store unavailable")
)

// Manager persists the token through an ordered list of stores: the first
// store that works wins on save, the first that has a token wins on load.
type Manager struct {
	stores []TokenStore
}

// NewManager creates a token manager with the available storage backends.
func NewManager() (*Manager, error) {
	var stores []TokenStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "token.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over explicit stores.
func NewManagerWithStores(stores ...TokenStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves the token using the first store that accepts it.
func (m *Manager) Store(token *Token) error {
	if token == nil || token.AccessToken == "" {
		return ErrInvalidToken
	}
	if token.ObtainedAt.IsZero() {
		token.ObtainedAt = time.Now()
	}

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(token); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store token: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets the token from the first store that has one. An environment
// override (LIARCHIVE_ACCESS_TOKEN) beats every store, which keeps CI and
// one-off runs away from the keychain.
func (m *Manager) Retrieve() (*Token, error) {
	if env := os.Getenv("LIARCHIVE_ACCESS_TOKEN"); env != "" {
		return &Token{AccessToken: env, ObtainedAt: time.Now()}, nil
	}

	for _, store := range m.stores {
		if token, err := store.Retrieve(); err == nil && token != nil {
			return token, nil
		}
	}
	return nil, ErrTokenNotFound
}

// Delete removes the token from every store.
func (m *Manager) Delete() error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete token: %w", lastErr)
	}
	if !deleted {
		return ErrTokenNotFound
	}
	return nil
}

// Exists reports whether any store holds a token.
func (m *Manager) Exists() bool {
	for _, store := range m.stores {
		if store.Exists() {
			return true
		}
	}
	return false
}

// getConfigDir returns the configuration directory path.
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "liarchive")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "liarchive")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "liarchive")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "liarchive")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

// MaskToken masks all but the first 4 and last 4 characters of a token for
// display.
func MaskToken(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
