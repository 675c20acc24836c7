package session_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"conduit/internal/crypto"
	"conduit/internal/domain"
	"conduit/internal/protocol/wire"
	"conduit/internal/services/session"
)

const waitFor = 2 * time.Second

// sender records frames handed to the relay.
type sender struct {
	frames chan string
}

func newSender() *sender { return &sender{frames: make(chan string, 64)} }

func (s *sender) Send(text string) error {
	s.frames <- text
	return nil
}

func (s *sender) next(t *testing.T) string {
	t.Helper()
	select {
	case f := <-s.frames:
		return f
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for a frame")
		return ""
	}
}

func (s *sender) none(t *testing.T) {
	t.Helper()
	select {
	case f := <-s.frames:
		t.Fatalf("unexpected frame %s", f)
	case <-time.After(50 * time.Millisecond):
	}
}

// offers treats a blob as base64 plaintext. Blobs starting with "!" fail.
type offers struct{}

func (offers) DecryptOffer(blob string) ([]byte, error) {
	if strings.HasPrefix(blob, "!") {
		return nil, crypto.ErrDecrypt
	}
	return base64.StdEncoding.DecodeString(blob)
}

type devices struct {
	mu       sync.Mutex
	approved map[domain.DeviceIdentity]domain.ApprovedDevice
}

func newDevices(known ...domain.DeviceIdentity) *devices {
	d := &devices{approved: make(map[domain.DeviceIdentity]domain.ApprovedDevice)}
	for _, id := range known {
		d.approved[id] = domain.ApprovedDevice{Identity: id}
	}
	return d
}

func (d *devices) IsApproved(id domain.DeviceIdentity) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.approved[id]
	return ok, nil
}

func (d *devices) Approve(dev domain.ApprovedDevice) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.approved[dev.Identity] = dev
	return nil
}

func (d *devices) Revoke(id domain.DeviceIdentity) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.approved[id]
	delete(d.approved, id)
	return ok, nil
}

func (d *devices) ListDevices() ([]domain.ApprovedDevice, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]domain.ApprovedDevice, 0, len(d.approved))
	for _, dev := range d.approved {
		out = append(out, dev)
	}
	return out, nil
}

func (d *devices) has(id domain.DeviceIdentity) bool {
	ok, _ := d.IsApproved(id)
	return ok
}

// approver blocks each prompt until the test answers on decisions.
type approver struct {
	asked     chan domain.DeviceInfo
	decisions chan bool
}

func newApprover() *approver {
	return &approver{asked: make(chan domain.DeviceInfo, 8), decisions: make(chan bool, 8)}
}

func (a *approver) Approve(ctx context.Context, info domain.DeviceInfo) (bool, error) {
	a.asked <- info
	select {
	case ok := <-a.decisions:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (a *approver) waitAsked(t *testing.T) domain.DeviceInfo {
	t.Helper()
	select {
	case info := <-a.asked:
		return info
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for the approval prompt")
		return domain.DeviceInfo{}
	}
}

// api answers requests from a handler; a nil handler echoes method and path.
type api struct {
	handle func(ctx context.Context, method, path string, body []byte) (domain.APIResponse, error)
}

func (a *api) Request(ctx context.Context, method, path string, body []byte) (domain.APIResponse, error) {
	if a.handle != nil {
		return a.handle(ctx, method, path, body)
	}
	echo, _ := json.Marshal(map[string]string{"method": method, "path": path, "body": string(body)})
	return domain.APIResponse{Status: 200, Body: echo}, nil
}

var errAPIDown = errors.New("local api down")

type feed struct {
	mu   sync.Mutex
	subs []*feedSub
}

type feedSub struct {
	events chan domain.APIEvent
	once   sync.Once
	closed chan struct{}
}

func (f *feed) Subscribe() domain.EventSubscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := &feedSub{events: make(chan domain.APIEvent, 16), closed: make(chan struct{})}
	f.subs = append(f.subs, sub)
	return sub
}

func (f *feed) publish(ev domain.APIEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		select {
		case <-s.closed:
		case s.events <- ev:
		}
	}
}

func (f *feed) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (s *feedSub) Events() <-chan domain.APIEvent { return s.events }
func (s *feedSub) Close()                         { s.once.Do(func() { close(s.closed) }) }

type harness struct {
	sess     *session.Session
	sender   *sender
	devices  *devices
	approver *approver
	api      *api
	feed     *feed
}

func newHarness(t *testing.T, cfg session.Config, known ...domain.DeviceIdentity) *harness {
	t.Helper()
	h := &harness{
		sender:   newSender(),
		devices:  newDevices(known...),
		approver: newApprover(),
		api:      &api{},
		feed:     &feed{},
	}
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
		cfg.HostName = "desk"
		cfg.NotificationToken = "tok"
	}
	h.sess = session.New(context.Background(), "peer-1", cfg, session.Deps{
		Sender:   h.sender,
		Offers:   offers{},
		Devices:  h.devices,
		Approver: h.approver,
		API:      h.api,
		Feed:     h.feed,
		Logger:   zerolog.Nop(),
	})
	t.Cleanup(h.sess.Close)
	return h
}

// mobile is the client side of a pairing.
type mobile struct {
	identity domain.DeviceIdentity
	key      []byte
	channel  *crypto.Channel
}

func newMobile(t *testing.T, identity string) *mobile {
	t.Helper()
	key := make([]byte, crypto.SessionKeyBytes)
	_, err := rand.Read(key)
	require.NoError(t, err)
	ch, err := crypto.NewChannel(key)
	require.NoError(t, err)
	return &mobile{identity: domain.DeviceIdentity(identity), key: key, channel: ch}
}

func (m *mobile) secretFrame(t *testing.T) string {
	t.Helper()
	plain, err := wire.EncodeOffer(domain.PairingOffer{
		Secret:   m.key,
		Identity: m.identity,
		Device:   "Pixel",
		Browser:  "Chrome",
	})
	require.NoError(t, err)
	return rawFrame(t, wire.OpSecret, base64.StdEncoding.EncodeToString(plain))
}

// seal wraps an inner frame in an envelope.
func (m *mobile) seal(t *testing.T, inner string) string {
	t.Helper()
	token, err := m.channel.Seal([]byte(inner))
	require.NoError(t, err)
	frame, err := wire.EncodeEnvelope(token)
	require.NoError(t, err)
	return string(frame)
}

// open unwraps an envelope and returns the inner frame.
func (m *mobile) open(t *testing.T, frame string) string {
	t.Helper()
	token, err := wire.DecodeEnvelope([]byte(frame))
	require.NoError(t, err, "expected an envelope, got %s", frame)
	plain, err := m.channel.Open(token)
	require.NoError(t, err)
	return string(plain)
}

func rawFrame(t *testing.T, args ...any) string {
	t.Helper()
	b, err := json.Marshal(args)
	require.NoError(t, err)
	return string(b)
}
