package session

import (
	"net/http"
	"sort"
	"strings"

	"conduit/internal/domain"
	"conduit/internal/protocol/wire"
)

// Subscriptions is a set of lower-cased local API paths.
// It is not safe for concurrent use.
type Subscriptions struct {
	paths map[string]struct{}
}

func NewSubscriptions() *Subscriptions {
	return &Subscriptions{paths: make(map[string]struct{})}
}

// Add is idempotent.
func (s *Subscriptions) Add(path string) {
	s.paths[strings.ToLower(path)] = struct{}{}
}

// Remove is a no-op for unknown paths.
func (s *Subscriptions) Remove(path string) {
	delete(s.paths, strings.ToLower(path))
}

// Match reports whether path is subscribed and returns its lower-cased form.
func (s *Subscriptions) Match(path string) (string, bool) {
	lower := strings.ToLower(path)
	_, ok := s.paths[lower]
	return lower, ok
}

func (s *Subscriptions) Len() int { return len(s.paths) }

func (s *Subscriptions) Clear() { clear(s.paths) }

// Paths returns the subscribed paths in sorted order.
func (s *Subscriptions) Paths() []string {
	out := make([]string, 0, len(s.paths))
	for p := range s.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// StatusFor maps a local API change type to the status carried by Update.
func StatusFor(changeType string) int {
	switch changeType {
	case domain.ChangeCreate, domain.ChangeUpdate:
		return http.StatusOK
	default:
		return http.StatusNotFound
	}
}

func (s *Session) handleEvent(ev domain.APIEvent) {
	if s.state != domain.Paired {
		return
	}
	path, ok := s.subs.Match(ev.Path)
	if !ok {
		return
	}
	s.send(wire.Update{Path: path, Status: StatusFor(ev.ChangeType), Data: ev.Data})
}
