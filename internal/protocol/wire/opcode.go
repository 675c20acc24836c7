package wire

import "fmt"

// Opcode tags a protocol message.
type Opcode int

const (
	OpSecret            Opcode = 1
	OpSecretResponse    Opcode = 2
	OpHandshake         Opcode = 3
	OpHandshakeComplete Opcode = 4
	OpSubscribe         Opcode = 5
	OpUnsubscribe       Opcode = 6
	OpRequest           Opcode = 7
	OpResponse          Opcode = 8
	OpUpdate            Opcode = 9
	OpPing              Opcode = 10
	OpPong              Opcode = 11
)

var opcodeNames = map[Opcode]string{
	OpSecret:            "secret",
	OpSecretResponse:    "secret_response",
	OpHandshake:         "handshake",
	OpHandshakeComplete: "handshake_complete",
	OpSubscribe:         "subscribe",
	OpUnsubscribe:       "unsubscribe",
	OpRequest:           "request",
	OpResponse:          "response",
	OpUpdate:            "update",
	OpPing:              "ping",
	OpPong:              "pong",
}

// String returns a lower-case label suitable for logs and metrics.
func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("opcode(%d)", int(o))
}
