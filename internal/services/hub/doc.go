// Package hub maps relay peers to sessions. It is the PeerHandler the relay
// link drives: one Session per open peer, torn down when the relay reports
// the peer gone or the link drops.
package hub
