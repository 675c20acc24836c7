package types

import "encoding/json"

// Change types reported by the local API event feed.
const (
	ChangeCreate = "Create"
	ChangeUpdate = "Update"
	ChangeDelete = "Delete"
)

// APIEvent is one change notification from the local API.
type APIEvent struct {
	Path       string          `json:"uri"`
	ChangeType string          `json:"eventType"`
	Data       json.RawMessage `json:"data"`
}

// APIResponse is the full result of one local API call.
type APIResponse struct {
	Status int
	Body   []byte
}
