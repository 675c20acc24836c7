package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"conduit/internal/crypto"
	"conduit/internal/domain"
	"conduit/internal/observability"
)

const defaultInboxSize = 64

// OfferDecrypter opens the asymmetric blob of a Secret frame.
type OfferDecrypter interface {
	DecryptOffer(blob string) ([]byte, error)
}

// Config carries the values advertised in HandshakeComplete and the approval policy.
type Config struct {
	Version           string
	HostName          string
	NotificationToken string

	// ApprovalTimeout bounds how long a pairing offer waits for the user.
	// Zero waits indefinitely.
	ApprovalTimeout time.Duration

	InboxSize int
}

// Deps are the collaborators a Session calls out to.
type Deps struct {
	Sender   domain.PeerSender
	Offers   OfferDecrypter
	Devices  domain.DeviceStore
	Approver domain.Approver
	API      domain.LocalAPI
	Feed     domain.EventFeed
	Logger   zerolog.Logger
}

// Session is the desktop-side state for one mobile peer.
type Session struct {
	peer domain.PeerID
	cfg  Config
	deps Deps
	log  zerolog.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	inbox     chan func()
	done      chan struct{}
	closeOnce sync.Once

	// Owned by the run goroutine.
	state   domain.PairingState
	channel *crypto.Channel
	subs    *Subscriptions
	device  domain.DeviceInfo
	pending *pendingApproval
	feed    domain.EventSubscription
}

// New starts a Session for peer. The caller must Close it when the relay reports the peer gone.
func New(parent context.Context, peer domain.PeerID, cfg Config, deps Deps) *Session {
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = defaultInboxSize
	}
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		peer:   peer,
		cfg:    cfg,
		deps:   deps,
		log:    deps.Logger.With().Str("peer", peer.String()).Logger(),
		ctx:    ctx,
		cancel: cancel,
		inbox:  make(chan func(), cfg.InboxSize),
		done:   make(chan struct{}),
		state:  domain.Unpaired,
		subs:   NewSubscriptions(),
	}
	observability.SessionOpened()
	go s.run()
	return s
}

// Peer returns the relay peer this session serves.
func (s *Session) Peer() domain.PeerID { return s.peer }

// HandleFrame queues one relay frame. Frames are processed in arrival order.
// It never blocks the caller; a frame that finds the inbox full is dropped.
func (s *Session) HandleFrame(text string) {
	select {
	case <-s.ctx.Done():
		return
	default:
	}
	select {
	case s.inbox <- func() { s.handleFrame(text) }:
	default:
		observability.RecordFrameDropped(dropOverflow)
		s.log.Debug().Str("reason", dropOverflow).Msg("frame dropped")
	}
}

// Close tears the session down and waits for its goroutine to exit.
// Approval prompts and requests still in flight are abandoned.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
		observability.SessionClosed()
	})
}

// Done is closed once the session has been torn down.
func (s *Session) Done() <-chan struct{} { return s.done }

// State reports the pairing state; a closed session reports Unpaired.
func (s *Session) State() domain.PairingState {
	state := domain.Unpaired
	s.inspect(func() { state = s.state })
	return state
}

// Subscriptions returns the lower-cased subscribed paths, sorted.
func (s *Session) Subscriptions() []string {
	var paths []string
	s.inspect(func() { paths = s.subs.Paths() })
	return paths
}

// submit hands fn to the run goroutine. It reports false once the session is closed.
func (s *Session) submit(fn func()) bool {
	select {
	case <-s.ctx.Done():
		return false
	default:
	}
	select {
	case s.inbox <- fn:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// inspect runs fn on the run goroutine and waits for it.
func (s *Session) inspect(fn func()) bool {
	ran := make(chan struct{})
	if !s.submit(func() { fn(); close(ran) }) {
		return false
	}
	select {
	case <-ran:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) run() {
	defer close(s.done)
	defer s.teardown()

	for {
		var events <-chan domain.APIEvent
		if s.feed != nil {
			events = s.feed.Events()
		}
		select {
		case <-s.ctx.Done():
			return
		case fn := <-s.inbox:
			fn()
		case ev, ok := <-events:
			if !ok {
				s.feed = nil
				continue
			}
			s.handleEvent(ev)
		}
	}
}

func (s *Session) teardown() {
	if s.feed != nil {
		s.feed.Close()
		s.feed = nil
	}
	if s.pending != nil {
		s.pending.channel.Close()
		s.pending = nil
	}
	s.channel.Close()
	s.channel = nil
	s.subs.Clear()
	s.state = domain.Unpaired
	s.log.Debug().Msg("session closed")
}
