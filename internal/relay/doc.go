// Package relay talks to the relay that carries conduit's traffic.
//
// The relay knows nothing about the session protocol. It offers:
//   - HTTP registration: POST /register with the desktop's public key returns a
//     pairing code and a notification token; GET /pubkey/{code} returns the key
//     a mobile client encrypts its pairing offer to.
//   - A websocket link per desktop (/conduit?code=) over which the relay
//     multiplexes mobile peers using small JSON control frames.
//
// HTTP drives the registration endpoints, Link drives the websocket side and
// reconnects with backoff, and Server is an in-memory relay for development
// and tests.
package relay
