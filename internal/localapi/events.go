package localapi

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"conduit/internal/domain"
	"conduit/internal/util/backoff"
)

// WAMP message types used by the event socket.
const (
	wampSubscribe = 5
	wampEvent     = 8

	jsonAPITopic = "OnJsonApiEvent"
)

// Watcher streams JSON API events from the game client into a Feed,
// reconnecting whenever the client restarts.
type Watcher struct {
	Source  Source
	Feed    *Feed
	Backoff backoff.Config
	Logger  zerolog.Logger
	Dialer  *websocket.Dialer
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	dialer := w.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{
			NetDialContext:   loopbackDial,
			TLSClientConfig:  &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // loopback only
			HandshakeTimeout: 10 * time.Second,
		}
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	attempt := 0
	for {
		connected, err := w.serve(ctx, dialer)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			attempt = 0
		}
		attempt++
		delay := backoff.Next(w.Backoff, attempt, rng)
		level := zerolog.WarnLevel
		if errors.Is(err, ErrNotRunning) {
			level = zerolog.DebugLevel
		}
		w.Logger.WithLevel(level).Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("local api events unavailable")
		if !backoff.Sleep(ctx.Done(), delay) {
			return nil
		}
	}
}

func (w *Watcher) serve(ctx context.Context, dialer *websocket.Dialer) (bool, error) {
	lf, err := w.Source()
	if err != nil {
		return false, err
	}
	header := http.Header{}
	header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(authUser+":"+lf.Password)))

	conn, _, err := dialer.DialContext(ctx, lf.EventURL(), header)
	if err != nil {
		return false, fmt.Errorf("dial local api events: %w", err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	sub, _ := json.Marshal([]any{wampSubscribe, jsonAPITopic})
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		return true, fmt.Errorf("subscribe local api events: %w", err)
	}
	w.Logger.Info().Int("port", lf.Port).Msg("local api events connected")

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return true, nil
			}
			return true, fmt.Errorf("read local api events: %w", err)
		}
		ev, ok := DecodeEvent(raw)
		if !ok {
			continue
		}
		w.Feed.Publish(ev)
	}
}

// DecodeEvent parses a WAMP event frame [8, "OnJsonApiEvent", {uri, eventType, data}].
// Anything else is reported as not an event.
func DecodeEvent(raw []byte) (domain.APIEvent, bool) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil || len(elems) != 3 {
		return domain.APIEvent{}, false
	}
	var kind int
	var topic string
	if json.Unmarshal(elems[0], &kind) != nil || kind != wampEvent {
		return domain.APIEvent{}, false
	}
	if json.Unmarshal(elems[1], &topic) != nil || topic != jsonAPITopic {
		return domain.APIEvent{}, false
	}
	var ev domain.APIEvent
	if json.Unmarshal(elems[2], &ev) != nil || ev.Path == "" {
		return domain.APIEvent{}, false
	}
	return ev, true
}
