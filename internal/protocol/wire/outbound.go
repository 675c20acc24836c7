package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Outbound is one desktop -> mobile operation.
type Outbound interface {
	Opcode() Opcode
	json.Marshaler
}

// SecretResponse reports the outcome of a pairing offer. It is always sent in clear text.
type SecretResponse struct {
	OK bool
}

// HandshakeComplete advertises the desktop's protocol version, host name and
// notification subscription token.
type HandshakeComplete struct {
	Version  string
	HostName string
	Token    string
}

// Response answers the Request with the same ID.
type Response struct {
	ID     int64
	Status int
	Body   json.RawMessage
}

// Update pushes a local API change for a subscribed path.
type Update struct {
	Path   string
	Status int
	Data   json.RawMessage
}

// Pong echoes a Ping.
type Pong struct {
	Echo json.RawMessage
}

func (SecretResponse) Opcode() Opcode    { return OpSecretResponse }
func (HandshakeComplete) Opcode() Opcode { return OpHandshakeComplete }
func (Response) Opcode() Opcode          { return OpResponse }
func (Update) Opcode() Opcode            { return OpUpdate }
func (Pong) Opcode() Opcode              { return OpPong }

func (m SecretResponse) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{OpSecretResponse, m.OK})
}

func (m HandshakeComplete) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{OpHandshakeComplete, m.Version, m.HostName, m.Token})
}

func (m Response) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{OpResponse, m.ID, m.Status, orNull(m.Body)})
}

func (m Update) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{OpUpdate, m.Path, m.Status, orNull(m.Data)})
}

func (m Pong) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{OpPong, orNull(m.Echo)})
}

// Encode serializes op to its array form.
func Encode(op Outbound) ([]byte, error) {
	return json.Marshal(op)
}

// EncodeEnvelope wraps a sealed token as the outer relay frame.
func EncodeEnvelope(token string) ([]byte, error) {
	return json.Marshal(token)
}

// DecodeEnvelope extracts the sealed token from an outer relay frame.
func DecodeEnvelope(data []byte) (string, error) {
	var token string
	if err := json.Unmarshal(data, &token); err != nil {
		return "", fmt.Errorf("%w: envelope: %v", ErrMalformed, err)
	}
	if token == "" {
		return "", fmt.Errorf("%w: envelope: empty token", ErrMalformed)
	}
	return token, nil
}

// NormalizeBody turns a raw local API body into the JSON value sent to clients:
// empty bodies become null, valid JSON passes through, anything else is sent
// as a JSON string.
func NormalizeBody(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(trimmed) {
		return append(json.RawMessage(nil), trimmed...)
	}
	quoted, err := json.Marshal(string(body))
	if err != nil {
		return json.RawMessage("null")
	}
	return quoted
}

func orNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}
