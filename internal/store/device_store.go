package store

import (
	"path/filepath"
	"sort"
	"sync"

	"conduit/internal/domain"
)

const devicesFile = "devices.json"

// DeviceFileStore persists the devices the user approved for pairing.
type DeviceFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewDeviceFileStore returns a DeviceFileStore rooted at dir.
func NewDeviceFileStore(dir string) *DeviceFileStore {
	return &DeviceFileStore{dir: dir}
}

func (s *DeviceFileStore) load() (map[domain.DeviceIdentity]domain.ApprovedDevice, error) {
	devices := make(map[domain.DeviceIdentity]domain.ApprovedDevice)
	if err := readJSON(filepath.Join(s.dir, devicesFile), &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// IsApproved reports whether identity has been approved.
func (s *DeviceFileStore) IsApproved(identity domain.DeviceIdentity) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices, err := s.load()
	if err != nil {
		return false, err
	}
	_, ok := devices[identity]
	return ok, nil
}

// Approve records device, replacing an earlier record for the same identity.
func (s *DeviceFileStore) Approve(device domain.ApprovedDevice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices, err := s.load()
	if err != nil {
		return err
	}
	devices[device.Identity] = device
	return writeJSON(filepath.Join(s.dir, devicesFile), devices, 0o600)
}

// Revoke forgets identity. It reports whether the identity was known.
func (s *DeviceFileStore) Revoke(identity domain.DeviceIdentity) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices, err := s.load()
	if err != nil {
		return false, err
	}
	if _, ok := devices[identity]; !ok {
		return false, nil
	}
	delete(devices, identity)
	return true, writeJSON(filepath.Join(s.dir, devicesFile), devices, 0o600)
}

// ListDevices returns approved devices, oldest approval first.
func (s *DeviceFileStore) ListDevices() ([]domain.ApprovedDevice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]domain.ApprovedDevice, 0, len(devices))
	for _, d := range devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ApprovedUTC != out[j].ApprovedUTC {
			return out[i].ApprovedUTC < out[j].ApprovedUTC
		}
		return out[i].Identity < out[j].Identity
	})
	return out, nil
}

// Compile-time assertion that DeviceFileStore implements domain.DeviceStore.
var _ domain.DeviceStore = (*DeviceFileStore)(nil)
