// Package crypto exposes the primitives conduit's session protocol relies on.
//
// Contents
//
//   - Envelope sealing for paired sessions: zstd compression followed by
//     XChaCha20-Poly1305 under the session key (Channel)
//   - One-shot RSA-OAEP decryption of pairing offers with the desktop's
//     long-lived private key (OfferDecrypter), plus the matching client-side
//     EncryptOffer used by mobile clients and tests
//   - RSA key generation and PEM encoding (GenerateKey, EncodePrivateKeyPEM, ...)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// Every integrity or format failure while opening an envelope or an offer is
// reported as ErrDecrypt; callers never see partial plaintext. Key buffers
// are wiped with internal/util/memzero when a Channel is closed. Seal and Open
// may run concurrently; Close must not race with either.
package crypto
