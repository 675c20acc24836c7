package interfaces

import (
	"context"

	domaintypes "conduit/internal/domain/types"
)

// RelayClient is how we talk to the relay's registration endpoints.
type RelayClient interface {
	Register(ctx context.Context, publicKeyPEM []byte) (domaintypes.Registration, error)
	FetchPublicKey(ctx context.Context, code string) ([]byte, error)
}

// PeerSender delivers one text frame to a single mobile peer.
type PeerSender interface {
	Send(text string) error
}

// PeerHandler receives the lifecycle of mobile peers multiplexed over the relay link.
type PeerHandler interface {
	OnOpen(peer domaintypes.PeerID, sender PeerSender)
	OnMessage(peer domaintypes.PeerID, text string)
	OnClose(peer domaintypes.PeerID)
}
