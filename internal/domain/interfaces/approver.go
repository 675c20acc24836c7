package interfaces

import (
	"context"

	domaintypes "conduit/internal/domain/types"
)

// Approver asks the user whether a new device may pair. It may block for a
// human-scale duration and must return when ctx is done.
type Approver interface {
	Approve(ctx context.Context, device domaintypes.DeviceInfo) (bool, error)
}
