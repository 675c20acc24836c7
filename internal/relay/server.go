package relay

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"conduit/internal/crypto"
	"conduit/internal/domain"
)

const maxRegisterBody = 64 << 10

// Server is an in-memory relay. Registrations and connections are lost on restart.
type Server struct {
	log      zerolog.Logger
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	mu     sync.Mutex
	byCode map[string]*registration
	byKey  map[string]*registration
}

type registration struct {
	code      string
	token     string
	publicKey string

	desktop *wsConn
	mobiles map[domain.PeerID]*wsConn
}

// wsConn serializes writes to one websocket.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) writeText(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(linkWriteWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) writeControl(f ControlFrame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return c.writeText(b)
}

func NewServer(log zerolog.Logger) *Server {
	s := &Server{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		mux:    http.NewServeMux(),
		byCode: make(map[string]*registration),
		byKey:  make(map[string]*registration),
	}
	s.mux.HandleFunc("POST /register", s.handleRegister)
	s.mux.HandleFunc("GET /pubkey/{code}", s.handlePublicKey)
	s.mux.HandleFunc("GET /conduit", s.handleDesktop)
	s.mux.HandleFunc("GET /mobile", s.handleMobile)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req RegisterRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRegisterBody)).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	pub, err := crypto.ParsePublicKeyPEM([]byte(req.PublicKey))
	if err != nil {
		http.Error(w, "invalid public key", http.StatusBadRequest)
		return
	}
	fp, err := crypto.PublicKeyFingerprint(pub)
	if err != nil {
		http.Error(w, "invalid public key", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	reg, ok := s.byKey[fp]
	if !ok {
		reg = &registration{
			code:      newCode(),
			token:     uuid.NewString(),
			publicKey: req.PublicKey,
			mobiles:   make(map[domain.PeerID]*wsConn),
		}
		s.byKey[fp] = reg
		s.byCode[reg.code] = reg
	}
	resp := RegisterResponse{Code: reg.code, Token: reg.token}
	s.mu.Unlock()

	s.log.Info().Str("code", resp.Code).Str("fingerprint", fp).Bool("new", !ok).Msg("register")
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handlePublicKey(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	reg, ok := s.byCode[strings.ToUpper(r.PathValue("code"))]
	var pem string
	if ok {
		pem = reg.publicKey
	}
	s.mu.Unlock()
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/x-pem-file")
	_, _ = io.WriteString(w, pem)
}

func (s *Server) handleDesktop(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(r.URL.Query().Get("code"))
	token := r.URL.Query().Get("token")

	s.mu.Lock()
	reg, ok := s.byCode[code]
	s.mu.Unlock()
	if !ok || reg.token != token {
		http.Error(w, "unknown code or token", http.StatusForbidden)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("desktop upgrade")
		return
	}
	desk := &wsConn{conn: conn}
	log := s.log.With().Str("code", code).Logger()

	s.mu.Lock()
	old := reg.desktop
	reg.desktop = desk
	peers := make([]domain.PeerID, 0, len(reg.mobiles))
	for id := range reg.mobiles {
		peers = append(peers, id)
	}
	s.mu.Unlock()
	if old != nil {
		_ = old.conn.Close()
	}
	log.Info().Int("mobiles", len(peers)).Msg("desktop connected")
	for _, id := range peers {
		_ = desk.writeControl(ControlFrame{Type: FrameOpen, Peer: id})
	}

	defer func() {
		s.mu.Lock()
		if reg.desktop == desk {
			reg.desktop = nil
		}
		s.mu.Unlock()
		_ = conn.Close()
		log.Info().Msg("desktop disconnected")
	}()

	conn.SetReadLimit(linkReadLimit)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		frame, err := decodeControl(raw)
		if err != nil || frame.Type != FrameSend {
			log.Debug().Err(err).Msg("bad frame from desktop")
			continue
		}
		s.mu.Lock()
		mobile := reg.mobiles[frame.Peer]
		s.mu.Unlock()
		if mobile == nil {
			continue
		}
		if err := mobile.writeText([]byte(frame.Data)); err != nil {
			log.Debug().Err(err).Str("peer", frame.Peer.String()).Msg("forward to mobile")
		}
	}
}

func (s *Server) handleMobile(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(r.URL.Query().Get("code"))

	s.mu.Lock()
	reg, ok := s.byCode[code]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "unknown code", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("mobile upgrade")
		return
	}
	peer := domain.PeerID(uuid.NewString())
	mobile := &wsConn{conn: conn}
	log := s.log.With().Str("code", code).Str("peer", peer.String()).Logger()

	s.mu.Lock()
	reg.mobiles[peer] = mobile
	desk := reg.desktop
	s.mu.Unlock()
	if desk != nil {
		_ = desk.writeControl(ControlFrame{Type: FrameOpen, Peer: peer})
	}
	log.Info().Msg("mobile connected")

	defer func() {
		s.mu.Lock()
		delete(reg.mobiles, peer)
		desk := reg.desktop
		s.mu.Unlock()
		if desk != nil {
			_ = desk.writeControl(ControlFrame{Type: FrameClose, Peer: peer})
		}
		_ = conn.Close()
		log.Info().Msg("mobile disconnected")
	}()

	conn.SetReadLimit(linkReadLimit)
	for {
		kind, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		s.mu.Lock()
		desk := reg.desktop
		s.mu.Unlock()
		if desk == nil {
			continue
		}
		if err := desk.writeControl(ControlFrame{Type: FrameMessage, Peer: peer, Data: string(raw)}); err != nil {
			log.Debug().Err(err).Msg("forward to desktop")
		}
	}
}

// newCode returns an 8 character pairing code.
func newCode() string {
	id := uuid.New()
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}
