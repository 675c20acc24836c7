// Command relay runs an in-memory conduit relay for development.
//
// It serves the registration endpoints (POST /register, GET /pubkey/{code})
// and forwards text frames between a registered desktop (/conduit) and any
// number of mobile clients (/mobile) sharing its pairing code. Nothing is
// persisted; restart the desktop after restarting the relay.
package main
