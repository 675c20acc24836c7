package types

// Registration identifies this desktop on a specific relay server.
type Registration struct {
	RelayURL      string `json:"relay_url"`
	Code          string `json:"code"`
	Token         string `json:"token"`
	RegisteredUTC int64  `json:"registered_utc"`
}
