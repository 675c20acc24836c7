package interfaces

import domaintypes "conduit/internal/domain/types"

// DeviceStore persists the identities of devices the user has approved.
type DeviceStore interface {
	IsApproved(identity domaintypes.DeviceIdentity) (bool, error)
	Approve(device domaintypes.ApprovedDevice) error
	Revoke(identity domaintypes.DeviceIdentity) (bool, error)
	ListDevices() ([]domaintypes.ApprovedDevice, error)
}

// RegistrationStore caches per-relay registrations so the pairing code survives restarts.
type RegistrationStore interface {
	SaveRegistration(reg domaintypes.Registration) error
	LoadRegistration(relayURL string) (domaintypes.Registration, bool, error)
}

// KeyStore persists the desktop's long-lived private key as PEM.
type KeyStore interface {
	SavePrivateKeyPEM(passphrase string, pem []byte) error
	LoadPrivateKeyPEM(passphrase string) ([]byte, error)
}
