package domain

import (
	interfaces "conduit/internal/domain/interfaces"
	types "conduit/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	PeerID         = types.PeerID
	DeviceIdentity = types.DeviceIdentity
	Fingerprint    = types.Fingerprint
	PairingState   = types.PairingState
	PairingOffer   = types.PairingOffer
	DeviceInfo     = types.DeviceInfo
	ApprovedDevice = types.ApprovedDevice
	APIEvent       = types.APIEvent
	APIResponse    = types.APIResponse
	Registration   = types.Registration
)

// Pairing states.
const (
	Unpaired         = types.Unpaired
	AwaitingApproval = types.AwaitingApproval
	Paired           = types.Paired
)

// Local API change types.
const (
	ChangeCreate = types.ChangeCreate
	ChangeUpdate = types.ChangeUpdate
	ChangeDelete = types.ChangeDelete
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	DeviceStore       = interfaces.DeviceStore
	RegistrationStore = interfaces.RegistrationStore
	KeyStore          = interfaces.KeyStore
	RelayClient       = interfaces.RelayClient
	PeerSender        = interfaces.PeerSender
	PeerHandler       = interfaces.PeerHandler
	LocalAPI          = interfaces.LocalAPI
	EventFeed         = interfaces.EventFeed
	EventSubscription = interfaces.EventSubscription
	Approver          = interfaces.Approver
)
