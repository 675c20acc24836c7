package relay

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"conduit/internal/domain"
	"conduit/internal/util/backoff"
)

const (
	linkWriteWait  = 10 * time.Second
	linkPongWait   = 60 * time.Second
	linkPingPeriod = linkPongWait * 9 / 10
	linkReadLimit  = 16 << 20
)

var errLinkClosed = errors.New("relay: link closed")

// LinkURL turns a relay base URL into the desktop websocket endpoint.
func LinkURL(base, code, token string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("relay url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("relay url: unsupported scheme %q", u.Scheme)
	}
	u.Path += "/conduit"
	q := url.Values{}
	q.Set("code", code)
	if token != "" {
		q.Set("token", token)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Link keeps the desktop's websocket to the relay open and turns control
// frames into PeerHandler calls. Every peer opened on a connection is closed
// when that connection drops.
type Link struct {
	URL     string
	Dialer  *websocket.Dialer
	Backoff backoff.Config
	Logger  zerolog.Logger

	// OnState, if set, is told when the link connects or disconnects.
	OnState func(connected bool)
}

// Run connects and serves until ctx is cancelled, reconnecting with backoff.
func (l *Link) Run(ctx context.Context, handler domain.PeerHandler) error {
	dialer := l.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	attempt := 0
	for {
		connected, err := l.serve(ctx, dialer, handler)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			attempt = 0
		}
		attempt++
		delay := backoff.Next(l.Backoff, attempt, rng)
		l.Logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("relay link down")
		if !backoff.Sleep(ctx.Done(), delay) {
			return nil
		}
	}
}

// serve runs one connection. It reports whether the dial succeeded.
func (l *Link) serve(ctx context.Context, dialer *websocket.Dialer, handler domain.PeerHandler) (bool, error) {
	conn, _, err := dialer.DialContext(ctx, l.URL, nil)
	if err != nil {
		return false, fmt.Errorf("dial relay: %w", err)
	}
	lc := &linkConn{conn: conn}
	defer lc.close()

	l.Logger.Info().Msg("relay link connected")
	if l.OnState != nil {
		l.OnState(true)
		defer l.OnState(false)
	}

	peers := make(map[domain.PeerID]*peerSender)
	defer func() {
		for id, ps := range peers {
			ps.detach()
			handler.OnClose(id)
		}
	}()

	stop := make(chan struct{})
	defer close(stop)
	go lc.keepAlive(ctx, stop)

	conn.SetReadLimit(linkReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(linkPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(linkPongWait))
	})

	for {
		kind, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return true, nil
			}
			return true, fmt.Errorf("read relay: %w", err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(linkPongWait))
		if kind != websocket.TextMessage {
			continue
		}
		frame, err := decodeControl(raw)
		if err != nil {
			l.Logger.Debug().Err(err).Msg("bad control frame")
			continue
		}

		switch frame.Type {
		case FrameOpen:
			if old := peers[frame.Peer]; old != nil {
				old.detach()
				handler.OnClose(frame.Peer)
			}
			ps := &peerSender{link: lc, peer: frame.Peer}
			peers[frame.Peer] = ps
			handler.OnOpen(frame.Peer, ps)
		case FrameMessage:
			if _, ok := peers[frame.Peer]; !ok {
				l.Logger.Debug().Str("peer", frame.Peer.String()).Msg("message for unopened peer")
				continue
			}
			handler.OnMessage(frame.Peer, frame.Data)
		case FrameClose:
			if ps, ok := peers[frame.Peer]; ok {
				delete(peers, frame.Peer)
				ps.detach()
				handler.OnClose(frame.Peer)
			}
		default:
			l.Logger.Debug().Str("type", frame.Type).Msg("unexpected control frame from relay")
		}
	}
}

// linkConn serializes writes; gorilla allows one concurrent writer.
type linkConn struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	closed bool
}

func (c *linkConn) write(f ControlFrame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errLinkClosed
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(linkWriteWait))
	return c.conn.WriteJSON(f)
}

func (c *linkConn) close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	_ = c.conn.Close()
}

// keepAlive pings until stop closes, and closes the socket when ctx ends so
// the blocked reader returns.
func (c *linkConn) keepAlive(ctx context.Context, stop <-chan struct{}) {
	t := time.NewTicker(linkPingPeriod)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = c.conn.Close()
			return
		case <-t.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(linkWriteWait)); err != nil {
				_ = c.conn.Close()
				return
			}
		}
	}
}

// peerSender is the PeerSender handed to a session. After detach it refuses writes
// so a late reply can never reach a different peer reusing the id.
type peerSender struct {
	link *linkConn
	peer domain.PeerID

	mu       sync.Mutex
	detached bool
}

func (p *peerSender) Send(text string) error {
	p.mu.Lock()
	detached := p.detached
	p.mu.Unlock()
	if detached {
		return errLinkClosed
	}
	return p.link.write(ControlFrame{Type: FrameSend, Peer: p.peer, Data: text})
}

func (p *peerSender) detach() {
	p.mu.Lock()
	p.detached = true
	p.mu.Unlock()
}

var _ domain.PeerSender = (*peerSender)(nil)
