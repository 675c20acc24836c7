package hub

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"conduit/internal/domain"
	"conduit/internal/services/session"
)

// Hub owns every live Session. It is safe for concurrent use.
type Hub struct {
	ctx  context.Context
	cfg  session.Config
	deps session.Deps
	log  zerolog.Logger

	mu       sync.Mutex
	sessions map[domain.PeerID]*session.Session
}

// New returns a Hub whose sessions share cfg and deps. deps.Sender is set per peer.
func New(ctx context.Context, cfg session.Config, deps session.Deps) *Hub {
	return &Hub{
		ctx:      ctx,
		cfg:      cfg,
		deps:     deps,
		log:      deps.Logger.With().Str("component", "hub").Logger(),
		sessions: make(map[domain.PeerID]*session.Session),
	}
}

// OnOpen starts a session for peer, replacing any stale one with the same id.
func (h *Hub) OnOpen(peer domain.PeerID, sender domain.PeerSender) {
	deps := h.deps
	deps.Sender = sender
	s := session.New(h.ctx, peer, h.cfg, deps)

	h.mu.Lock()
	old := h.sessions[peer]
	h.sessions[peer] = s
	n := len(h.sessions)
	h.mu.Unlock()

	if old != nil {
		old.Close()
	}
	h.log.Info().Str("peer", peer.String()).Int("sessions", n).Msg("peer opened")
}

// OnMessage routes one relay frame. Frames for unknown peers are dropped.
func (h *Hub) OnMessage(peer domain.PeerID, text string) {
	h.mu.Lock()
	s := h.sessions[peer]
	h.mu.Unlock()
	if s == nil {
		h.log.Debug().Str("peer", peer.String()).Msg("message for unknown peer")
		return
	}
	s.HandleFrame(text)
}

// OnClose tears down the peer's session.
func (h *Hub) OnClose(peer domain.PeerID) {
	h.mu.Lock()
	s := h.sessions[peer]
	delete(h.sessions, peer)
	n := len(h.sessions)
	h.mu.Unlock()
	if s == nil {
		return
	}
	s.Close()
	h.log.Info().Str("peer", peer.String()).Int("sessions", n).Msg("peer closed")
}

// CloseAll tears down every session. The relay link calls it when it disconnects.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[domain.PeerID]*session.Session)
	h.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *session.Session) {
			defer wg.Done()
			s.Close()
		}(s)
	}
	wg.Wait()
}

// Len reports the number of open sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Session returns the live session for peer, if any.
func (h *Hub) Session(peer domain.PeerID) (*session.Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[peer]
	return s, ok
}

var _ domain.PeerHandler = (*Hub)(nil)
