package session

import (
	"context"
	"errors"
	"time"

	"conduit/internal/crypto"
	"conduit/internal/domain"
	"conduit/internal/observability"
	"conduit/internal/protocol/wire"
	"conduit/internal/util/memzero"
)

// Pairing outcomes, used as metric labels.
const (
	pairKnown    = "known"
	pairApproved = "approved"
	pairRejected = "rejected"
	pairFailed   = "decrypt_failed"
)

// pendingApproval is an offer waiting on the user. At most one exists per session.
type pendingApproval struct {
	device  domain.DeviceInfo
	channel *crypto.Channel
}

func (s *Session) handleSecret(msg wire.Secret) {
	if s.state != domain.Unpaired {
		s.drop(dropViolation, errPairingInProgress)
		return
	}

	plain, err := s.deps.Offers.DecryptOffer(msg.Blob)
	if err != nil {
		s.log.Info().Err(err).Msg("pairing offer could not be decrypted")
		observability.RecordPairing(pairFailed)
		s.sendClear(wire.SecretResponse{OK: false})
		return
	}
	offer, err := wire.DecodeOffer(plain)
	memzero.Zero(plain)
	if err != nil {
		s.drop(dropOffer, err)
		return
	}
	channel, err := crypto.NewChannel(offer.Secret)
	memzero.Zero(offer.Secret)
	if err != nil {
		s.drop(dropOffer, err)
		return
	}

	device := offer.DeviceInfo()
	log := s.log.With().Str("identity", device.Identity.String()).Str("device", device.Device).Logger()

	known, err := s.deps.Devices.IsApproved(device.Identity)
	if err != nil {
		log.Warn().Err(err).Msg("device lookup failed, asking for approval")
	}
	if known {
		s.pair(device, channel)
		observability.RecordPairing(pairKnown)
		log.Info().Msg("paired with known device")
		s.sendClear(wire.SecretResponse{OK: true})
		return
	}

	s.state = domain.AwaitingApproval
	s.pending = &pendingApproval{device: device, channel: channel}
	log.Info().Msg("awaiting approval")
	go s.askApprover(s.pending)
}

// askApprover runs outside the session goroutine; the decision is posted back.
func (s *Session) askApprover(p *pendingApproval) {
	ctx := s.ctx
	if s.cfg.ApprovalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ApprovalTimeout)
		defer cancel()
	}
	ok, err := s.deps.Approver.Approve(ctx, p.device)
	s.submit(func() { s.resolveApproval(p, ok, err) })
}

func (s *Session) resolveApproval(p *pendingApproval, ok bool, err error) {
	if s.pending != p {
		return
	}
	s.pending = nil
	log := s.log.With().Str("identity", p.device.Identity.String()).Logger()

	if err != nil {
		ok = false
		if errors.Is(err, context.DeadlineExceeded) {
			log.Info().Msg("approval timed out")
		} else {
			log.Warn().Err(err).Msg("approval failed")
		}
	}

	if !ok {
		p.channel.Close()
		s.state = domain.Unpaired
		observability.RecordPairing(pairRejected)
		log.Info().Msg("pairing rejected")
		s.sendClear(wire.SecretResponse{OK: false})
		return
	}

	err = s.deps.Devices.Approve(domain.ApprovedDevice{
		Identity:    p.device.Identity,
		Device:      p.device.Device,
		Browser:     p.device.Browser,
		ApprovedUTC: time.Now().UTC().Unix(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("persist approval")
	}
	s.pair(p.device, p.channel)
	observability.RecordPairing(pairApproved)
	log.Info().Msg("pairing approved")
	s.sendClear(wire.SecretResponse{OK: true})
}

// pair installs the session key and starts listening for local API events.
func (s *Session) pair(device domain.DeviceInfo, channel *crypto.Channel) {
	s.channel.Close()
	s.channel = channel
	s.device = device
	s.state = domain.Paired
	if s.feed == nil && s.deps.Feed != nil {
		s.feed = s.deps.Feed.Subscribe()
	}
}
