package types

// PairingState is the trust state of one session.
type PairingState int

const (
	// Unpaired sessions accept only a Secret offer.
	Unpaired PairingState = iota
	// AwaitingApproval sessions hold an offer while the user decides.
	AwaitingApproval
	// Paired sessions own a session key; all traffic except SecretResponse is encrypted.
	Paired
)

// String returns a lower-case label suitable for logs and metrics.
func (s PairingState) String() string {
	switch s {
	case Unpaired:
		return "unpaired"
	case AwaitingApproval:
		return "awaiting_approval"
	case Paired:
		return "paired"
	default:
		return "unknown"
	}
}

// PairingOffer is the decoded content of an asymmetrically encrypted Secret message.
// It is never persisted.
type PairingOffer struct {
	Secret   []byte
	Identity DeviceIdentity
	Device   string
	Browser  string
}

// DeviceInfo returns the display and lookup fields of the offer.
func (o PairingOffer) DeviceInfo() DeviceInfo {
	return DeviceInfo{Identity: o.Identity, Device: o.Device, Browser: o.Browser}
}

// DeviceInfo is what the approval prompt shows the user.
type DeviceInfo struct {
	Identity DeviceIdentity `json:"identity"`
	Device   string         `json:"device"`
	Browser  string         `json:"browser"`
}

// ApprovedDevice is a persisted approval record.
type ApprovedDevice struct {
	Identity    DeviceIdentity `json:"identity"`
	Device      string         `json:"device"`
	Browser     string         `json:"browser"`
	ApprovedUTC int64          `json:"approved_utc"`
}
