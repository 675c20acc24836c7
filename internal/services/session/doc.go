// Package session runs conduit's per-peer protocol state machine.
//
// A Session owns one mobile peer's pairing state, session key, and
// subscriptions. All of that state is touched only by the session's own
// goroutine: relay frames, approval decisions, request completions and local
// API events are all funneled into it, so a pairing decision can never
// interleave with a Subscribe or an Update for the same peer.
//
// Flow for one relay frame:
//
//	frame -> (paired) open envelope -> decode opcode -> pairing | subscriptions | request
//	      -> encode reply -> (paired) seal envelope -> relay
//
// The approval prompt and local API calls run on their own goroutines and
// post their results back; results that land after Close are discarded.
package session
