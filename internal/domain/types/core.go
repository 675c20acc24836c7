package types

// PeerID identifies one mobile peer connection on the relay link.
type PeerID string

// String returns the string form of the peer identifier.
func (p PeerID) String() string { return string(p) }

// DeviceIdentity is the stable identity a mobile device presents when pairing.
type DeviceIdentity string

// String returns the string form of the device identity.
func (d DeviceIdentity) String() string { return string(d) }

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }
