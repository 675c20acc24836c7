package session

import (
	"conduit/internal/observability"
	"conduit/internal/protocol/wire"
)

// startRequest forwards req to the local API without blocking the session.
// Responses are sent in completion order, not request order.
func (s *Session) startRequest(req wire.Request) {
	log := s.log.With().Int64("request_id", req.ID).Str("method", req.Method).Str("path", req.Path).Logger()
	log.Debug().Msg("request")

	go func() {
		var body []byte
		if req.Body != "" {
			body = []byte(req.Body)
		}
		resp, err := s.deps.API.Request(s.ctx, req.Method, req.Path, body)
		if err != nil {
			observability.RecordRequest(req.Method, 0)
			if s.ctx.Err() == nil {
				log.Warn().Err(err).Msg("local api request failed")
			}
			return
		}
		observability.RecordRequest(req.Method, resp.Status)
		s.submit(func() {
			s.send(wire.Response{ID: req.ID, Status: resp.Status, Body: wire.NormalizeBody(resp.Body)})
		})
	}()
}
