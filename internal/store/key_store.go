package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"conduit/internal/domain"
)

const (
	keyFile       = "conduit_key.pem"
	sealedKeyFile = "conduit_key.pem.sealed"
)

var (
	// ErrNoKey means keygen has not been run for this home directory.
	ErrNoKey = errors.New("store: no private key")
	// ErrKeySealed means the key is sealed and no passphrase was given.
	ErrKeySealed = errors.New("store: private key is sealed, passphrase required")
)

// KeyFileStore persists the desktop's private key. With a passphrase the PEM
// is sealed with scrypt and XChaCha20-Poly1305; without one it is stored as
// plain PEM readable only by the owner.
type KeyFileStore struct {
	dir    string
	params scryptParams
	mu     sync.Mutex
}

// NewKeyFileStore returns a KeyFileStore rooted at dir.
func NewKeyFileStore(dir string) *KeyFileStore {
	return &KeyFileStore{dir: dir, params: defaultScrypt}
}

// SavePrivateKeyPEM replaces any existing key in either form.
func (s *KeyFileStore) SavePrivateKeyPEM(passphrase string, pem []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plainPath := filepath.Join(s.dir, keyFile)
	sealedPath := filepath.Join(s.dir, sealedKeyFile)

	if passphrase == "" {
		if err := writeFile(plainPath, pem, 0o600); err != nil {
			return err
		}
		return removeIfExists(sealedPath)
	}

	blob, err := seal(passphrase, pem, s.params)
	if err != nil {
		return err
	}
	if err := writeFile(sealedPath, blob, 0o600); err != nil {
		return err
	}
	return removeIfExists(plainPath)
}

// LoadPrivateKeyPEM returns the stored PEM.
func (s *KeyFileStore) LoadPrivateKeyPEM(passphrase string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sealedPath := filepath.Join(s.dir, sealedKeyFile)
	if exists(sealedPath) {
		if passphrase == "" {
			return nil, ErrKeySealed
		}
		b, err := os.ReadFile(sealedPath)
		if err != nil {
			return nil, err
		}
		return unseal(passphrase, b)
	}

	b, err := readFile(filepath.Join(s.dir, keyFile))
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("%w in %s", ErrNoKey, s.dir)
	}
	return b, nil
}

// HasKey reports whether a key exists in either form.
func (s *KeyFileStore) HasKey() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return exists(filepath.Join(s.dir, keyFile)) || exists(filepath.Join(s.dir, sealedKeyFile))
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Compile-time assertion that KeyFileStore implements domain.KeyStore.
var _ domain.KeyStore = (*KeyFileStore)(nil)
