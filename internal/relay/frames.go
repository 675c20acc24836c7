package relay

import (
	"encoding/json"
	"fmt"

	"conduit/internal/domain"
)

// Control frame types on the desktop link.
const (
	FrameOpen    = "open"
	FrameMessage = "message"
	FrameClose   = "close"
	FrameSend    = "send"
)

// ControlFrame is one relay <-> desktop link message. Data carries a mobile
// frame verbatim; the relay never inspects it.
type ControlFrame struct {
	Type string        `json:"type"`
	Peer domain.PeerID `json:"peer"`
	Data string        `json:"data,omitempty"`
}

func decodeControl(raw []byte) (ControlFrame, error) {
	var f ControlFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return ControlFrame{}, fmt.Errorf("relay: control frame: %w", err)
	}
	if f.Peer == "" {
		return ControlFrame{}, fmt.Errorf("relay: control frame %q without peer", f.Type)
	}
	switch f.Type {
	case FrameOpen, FrameMessage, FrameClose, FrameSend:
		return f, nil
	default:
		return ControlFrame{}, fmt.Errorf("relay: unknown control frame %q", f.Type)
	}
}
