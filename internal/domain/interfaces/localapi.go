package interfaces

import (
	"context"

	domaintypes "conduit/internal/domain/types"
)

// LocalAPI issues requests against the privileged local API.
// Non-2xx statuses are results, not errors; an error means the call never completed.
type LocalAPI interface {
	Request(ctx context.Context, method, path string, body []byte) (domaintypes.APIResponse, error)
}

// EventFeed hands out independent subscriptions to the local API's change events.
type EventFeed interface {
	Subscribe() EventSubscription
}

// EventSubscription is one consumer's view of the event feed.
type EventSubscription interface {
	Events() <-chan domaintypes.APIEvent
	Close()
}
