package localapi_test

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conduit/internal/domain"
	"conduit/internal/localapi"
)

func TestFeed_FanOut(t *testing.T) {
	f := localapi.NewFeed(4, zerolog.Nop())
	a, b := f.Subscribe(), f.Subscribe()
	assert.Equal(t, 2, f.Len())

	ev := domain.APIEvent{Path: "/x", ChangeType: domain.ChangeUpdate, Data: json.RawMessage(`1`)}
	f.Publish(ev)
	assert.Equal(t, ev, <-a.Events())
	assert.Equal(t, ev, <-b.Events())

	a.Close()
	a.Close()
	assert.Equal(t, 1, f.Len())
	_, open := <-a.Events()
	assert.False(t, open)

	f.Publish(ev)
	assert.Equal(t, ev, <-b.Events())
}

func TestFeed_FullSubscriberDoesNotBlockOthers(t *testing.T) {
	f := localapi.NewFeed(1, zerolog.Nop())
	slow, fast := f.Subscribe(), f.Subscribe()

	for i := 0; i < 3; i++ {
		f.Publish(domain.APIEvent{Path: "/x", Data: json.RawMessage(`1`)})
		require.Len(t, fast.Events(), 1)
		<-fast.Events()
	}
	assert.Len(t, slow.Events(), 1)
}
