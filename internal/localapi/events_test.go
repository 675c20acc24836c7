package localapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conduit/internal/domain"
	"conduit/internal/localapi"
	"conduit/internal/util/backoff"
)

func TestDecodeEvent(t *testing.T) {
	ev, ok := localapi.DecodeEvent([]byte(`[8,"OnJsonApiEvent",{"uri":"/lol-lobby/v2/lobby","eventType":"Delete","data":null}]`))
	require.True(t, ok)
	assert.Equal(t, "/lol-lobby/v2/lobby", ev.Path)
	assert.Equal(t, domain.ChangeDelete, ev.ChangeType)

	for _, raw := range []string{
		`[0,"session","1"]`,
		`[8,"OnOtherEvent",{"uri":"/x","eventType":"Update"}]`,
		`[8,"OnJsonApiEvent",{"eventType":"Update"}]`,
		`[8,"OnJsonApiEvent"]`,
		`{}`,
		`garbage`,
	} {
		_, ok := localapi.DecodeEvent([]byte(raw))
		assert.False(t, ok, raw)
	}
}

func TestWatcher_PublishesEvents(t *testing.T) {
	subscribed := make(chan string, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, pass, ok := r.BasicAuth(); !ok || pass != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		subscribed <- string(msg)
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`[0,"welcome"]`))
		_ = conn.WriteMessage(websocket.TextMessage,
			[]byte(`[8,"OnJsonApiEvent",{"uri":"/lol-gameflow/v1/session","eventType":"Update","data":{"phase":"Lobby"}}]`))
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	lf := lockfileFor(t, srv, "http")
	feed := localapi.NewFeed(8, zerolog.Nop())
	sub := feed.Subscribe()
	w := &localapi.Watcher{
		Source:  func() (localapi.Lockfile, error) { return lf, nil },
		Feed:    feed,
		Backoff: backoff.Config{InitialDelay: 10 * time.Millisecond},
		Logger:  zerolog.Nop(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case msg := <-subscribed:
		assert.Equal(t, `[5,"OnJsonApiEvent"]`, msg)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher never subscribed")
	}

	select {
	case ev := <-sub.Events():
		assert.Equal(t, "/lol-gameflow/v1/session", ev.Path)
		assert.Equal(t, domain.ChangeUpdate, ev.ChangeType)
		assert.JSONEq(t, `{"phase":"Lobby"}`, string(ev.Data))
	case <-time.After(3 * time.Second):
		t.Fatal("no event published")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_StopsWhileClientAbsent(t *testing.T) {
	w := &localapi.Watcher{
		Source:  localapi.FileSource(t.TempDir() + "/lockfile"),
		Feed:    localapi.NewFeed(1, zerolog.Nop()),
		Backoff: backoff.Config{InitialDelay: time.Hour},
		Logger:  zerolog.Nop(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NoError(t, w.Run(ctx))
}
