package localapi

import (
	"sync"

	"github.com/rs/zerolog"

	"conduit/internal/domain"
	"conduit/internal/observability"
)

const defaultFeedBuffer = 256

// Feed fans local API events out to subscribers. Publish never blocks: a
// subscriber whose buffer is full loses the event.
type Feed struct {
	buffer int
	log    zerolog.Logger

	mu   sync.Mutex
	subs map[*subscription]struct{}
}

func NewFeed(buffer int, log zerolog.Logger) *Feed {
	if buffer <= 0 {
		buffer = defaultFeedBuffer
	}
	return &Feed{buffer: buffer, log: log, subs: make(map[*subscription]struct{})}
}

type subscription struct {
	feed   *Feed
	events chan domain.APIEvent
	once   sync.Once
}

func (s *subscription) Events() <-chan domain.APIEvent { return s.events }

// Close detaches the subscription and closes its channel.
func (s *subscription) Close() {
	s.once.Do(func() {
		s.feed.mu.Lock()
		delete(s.feed.subs, s)
		s.feed.mu.Unlock()
		close(s.events)
	})
}

func (f *Feed) Subscribe() domain.EventSubscription {
	s := &subscription{feed: f, events: make(chan domain.APIEvent, f.buffer)}
	f.mu.Lock()
	f.subs[s] = struct{}{}
	f.mu.Unlock()
	return s
}

// Publish delivers ev to every subscriber that has room.
func (f *Feed) Publish(ev domain.APIEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for s := range f.subs {
		select {
		case s.events <- ev:
		default:
			observability.RecordEventDropped()
			f.log.Debug().Str("uri", ev.Path).Msg("subscriber full, event dropped")
		}
	}
}

// Len reports the number of live subscriptions.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

var _ domain.EventFeed = (*Feed)(nil)
