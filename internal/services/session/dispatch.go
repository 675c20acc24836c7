package session

import (
	"errors"
	"fmt"

	"conduit/internal/domain"
	"conduit/internal/observability"
	"conduit/internal/protocol/wire"
)

// Drop reasons, used as metric labels.
const (
	dropEnvelope  = "envelope"
	dropDecrypt   = "decrypt"
	dropMalformed = "malformed"
	dropUnpaired  = "unpaired"
	dropViolation = "violation"
	dropOffer     = "offer"
	dropOverflow  = "overflow"
)

var (
	errSecretWhilePaired = errors.New("secret offer on a paired session")
	errPairingInProgress = errors.New("secret offer while awaiting approval")
)

func (s *Session) handleFrame(text string) {
	observability.RecordFrameReceived()

	if s.state == domain.Paired {
		token, err := wire.DecodeEnvelope([]byte(text))
		if err != nil {
			s.drop(dropEnvelope, err)
			return
		}
		plain, err := s.channel.Open(token)
		if err != nil {
			s.drop(dropDecrypt, err)
			return
		}
		op, err := wire.DecodeInbound(plain)
		if err != nil {
			s.drop(dropMalformed, err)
			return
		}
		s.dispatch(op)
		return
	}

	op, err := wire.DecodeInbound([]byte(text))
	if err != nil {
		s.drop(dropMalformed, err)
		return
	}
	secret, ok := op.(wire.Secret)
	if !ok {
		s.drop(dropUnpaired, fmt.Errorf("%s before pairing", op.Opcode()))
		return
	}
	s.handleSecret(secret)
}

func (s *Session) dispatch(op wire.Inbound) {
	switch op := op.(type) {
	case wire.Secret:
		s.drop(dropViolation, errSecretWhilePaired)
	case wire.Handshake:
		s.send(wire.HandshakeComplete{
			Version:  s.cfg.Version,
			HostName: s.cfg.HostName,
			Token:    s.cfg.NotificationToken,
		})
	case wire.Subscribe:
		s.log.Debug().Str("path", op.Path).Msg("subscribe")
		s.subs.Add(op.Path)
	case wire.Unsubscribe:
		s.log.Debug().Str("path", op.Path).Msg("unsubscribe")
		s.subs.Remove(op.Path)
	case wire.Request:
		s.startRequest(op)
	case wire.Ping:
		s.send(wire.Pong{Echo: op.Echo})
	default:
		s.drop(dropMalformed, fmt.Errorf("unhandled %s", op.Opcode()))
	}
}

// send seals op under the session key. Only valid while Paired.
func (s *Session) send(op wire.Outbound) {
	if s.state != domain.Paired {
		return
	}
	payload, err := wire.Encode(op)
	if err != nil {
		s.log.Warn().Err(err).Stringer("opcode", op.Opcode()).Msg("encode outbound")
		return
	}
	token, err := s.channel.Seal(payload)
	if err != nil {
		s.log.Warn().Err(err).Stringer("opcode", op.Opcode()).Msg("seal outbound")
		return
	}
	frame, err := wire.EncodeEnvelope(token)
	if err != nil {
		s.log.Warn().Err(err).Msg("encode envelope")
		return
	}
	s.write(op.Opcode(), frame)
}

// sendClear writes op without an envelope. Used only for SecretResponse.
func (s *Session) sendClear(op wire.Outbound) {
	frame, err := wire.Encode(op)
	if err != nil {
		s.log.Warn().Err(err).Stringer("opcode", op.Opcode()).Msg("encode outbound")
		return
	}
	s.write(op.Opcode(), frame)
}

func (s *Session) write(op wire.Opcode, frame []byte) {
	if err := s.deps.Sender.Send(string(frame)); err != nil {
		s.log.Warn().Err(err).Stringer("opcode", op).Msg("relay send")
		return
	}
	observability.RecordFrameSent(op.String())
}

func (s *Session) drop(reason string, err error) {
	observability.RecordFrameDropped(reason)
	s.log.Debug().Err(err).Str("reason", reason).Stringer("state", s.state).Msg("frame dropped")
}
