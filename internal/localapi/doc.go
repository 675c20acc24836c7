// Package localapi talks to the privileged API of the locally running game
// client.
//
// The game client writes a lockfile (name:pid:port:password:protocol) while it
// runs. Client reads it on demand and issues HTTPS requests to 127.0.0.1 with
// basic auth; the server's certificate is self-signed, so verification is
// skipped and the dialer refuses anything but loopback. Watcher holds the
// client's websocket, subscribes to JSON API events and publishes them on a
// Feed, which fans them out to per-session subscriptions.
package localapi
