package store

import (
	"path/filepath"
	"strings"
	"sync"

	"conduit/internal/domain"
)

const registrationsFile = "registrations.json"

// RegistrationFileStore persists per-relay registrations to disk.
type RegistrationFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewRegistrationFileStore returns a RegistrationFileStore rooted at dir.
func NewRegistrationFileStore(dir string) *RegistrationFileStore {
	return &RegistrationFileStore{dir: dir}
}

// SaveRegistration stores or replaces the registration for reg.RelayURL.
func (s *RegistrationFileStore) SaveRegistration(reg domain.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, registrationsFile)
	regs := make(map[string]domain.Registration)
	if err := readJSON(path, &regs); err != nil {
		return err
	}
	regs[relayKey(reg.RelayURL)] = reg
	return writeJSON(path, regs, 0o600)
}

// LoadRegistration retrieves the registration for relayURL.
func (s *RegistrationFileStore) LoadRegistration(relayURL string) (domain.Registration, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, registrationsFile)
	regs := make(map[string]domain.Registration)
	if err := readJSON(path, &regs); err != nil {
		return domain.Registration{}, false, err
	}
	reg, ok := regs[relayKey(relayURL)]
	return reg, ok, nil
}

func relayKey(relayURL string) string {
	return strings.TrimRight(strings.ToLower(relayURL), "/")
}

// Compile-time assertion that RegistrationFileStore implements domain.RegistrationStore.
var _ domain.RegistrationStore = (*RegistrationFileStore)(nil)
