package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed reports a frame whose shape does not match its opcode.
var ErrMalformed = errors.New("wire: malformed frame")

// Inbound is one decoded mobile -> desktop operation.
type Inbound interface {
	Opcode() Opcode
}

// Secret carries the asymmetrically encrypted pairing offer.
type Secret struct {
	Blob string
}

// Handshake asks the desktop to identify itself.
type Handshake struct{}

// Subscribe adds a path to the session's subscriptions.
type Subscribe struct {
	Path string
}

// Unsubscribe removes a path from the session's subscriptions.
type Unsubscribe struct {
	Path string
}

// Request forwards one call to the local API. Body is empty when the client sent "" or null.
type Request struct {
	ID     int64
	Path   string
	Method string
	Body   string
}

// Ping asks for an immediate Pong carrying Echo back unchanged.
type Ping struct {
	Echo json.RawMessage
}

func (Secret) Opcode() Opcode      { return OpSecret }
func (Handshake) Opcode() Opcode   { return OpHandshake }
func (Subscribe) Opcode() Opcode   { return OpSubscribe }
func (Unsubscribe) Opcode() Opcode { return OpUnsubscribe }
func (Request) Opcode() Opcode     { return OpRequest }
func (Ping) Opcode() Opcode        { return OpPing }

// DecodeInbound parses one plaintext frame.
func DecodeInbound(data []byte) (Inbound, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(elems) == 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrMalformed)
	}
	raw, err := decodeInt(elems[0])
	if err != nil {
		return nil, fmt.Errorf("%w: opcode: %v", ErrMalformed, err)
	}
	op := Opcode(raw)
	args := elems[1:]

	switch op {
	case OpSecret:
		if err := arity(op, args, 1); err != nil {
			return nil, err
		}
		blob, err := decodeString(args[0])
		if err != nil {
			return nil, field(op, "blob", err)
		}
		return Secret{Blob: blob}, nil

	case OpHandshake:
		if err := arity(op, args, 0); err != nil {
			return nil, err
		}
		return Handshake{}, nil

	case OpSubscribe, OpUnsubscribe:
		if err := arity(op, args, 1); err != nil {
			return nil, err
		}
		path, err := decodeString(args[0])
		if err != nil {
			return nil, field(op, "path", err)
		}
		if op == OpSubscribe {
			return Subscribe{Path: path}, nil
		}
		return Unsubscribe{Path: path}, nil

	case OpRequest:
		if err := arity(op, args, 4); err != nil {
			return nil, err
		}
		id, err := decodeInt(args[0])
		if err != nil {
			return nil, field(op, "id", err)
		}
		path, err := decodeString(args[1])
		if err != nil {
			return nil, field(op, "path", err)
		}
		method, err := decodeString(args[2])
		if err != nil {
			return nil, field(op, "method", err)
		}
		body, err := decodeOptionalString(args[3])
		if err != nil {
			return nil, field(op, "body", err)
		}
		return Request{ID: id, Path: path, Method: method, Body: body}, nil

	case OpPing:
		if err := arity(op, args, 1); err != nil {
			return nil, err
		}
		return Ping{Echo: append(json.RawMessage(nil), args[0]...)}, nil

	default:
		return nil, fmt.Errorf("%w: %s is not accepted from clients", ErrMalformed, op)
	}
}

func arity(op Opcode, args []json.RawMessage, want int) error {
	if len(args) != want {
		return fmt.Errorf("%w: %s takes %d arguments, got %d", ErrMalformed, op, want, len(args))
	}
	return nil
}

func field(op Opcode, name string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", ErrMalformed, op, name, err)
}

func decodeInt(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '"' {
		return 0, errors.New("not a number")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return 0, err
	}
	return n.Int64()
}

func decodeString(raw json.RawMessage) (string, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", errors.New("null is not a string")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	return s, nil
}

func decodeOptionalString(raw json.RawMessage) (string, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", nil
	}
	return decodeString(raw)
}
