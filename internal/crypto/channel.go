package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/chacha20poly1305"

	"conduit/internal/util/memzero"
)

const (
	// SessionKeyBytes is the size of the symmetric key carried in a pairing offer.
	SessionKeyBytes = chacha20poly1305.KeySize

	// maxEnvelopeBytes bounds the decompressed size of one envelope.
	maxEnvelopeBytes = 8 << 20
)

var (
	// ErrDecrypt is returned for every envelope or offer that fails to open.
	ErrDecrypt = errors.New("crypto: decrypt failed")
	// ErrNoKey is returned when a closed or zero Channel is used.
	ErrNoKey = errors.New("crypto: channel has no key")
)

// EncodeAll/DecodeAll are safe for concurrent use, so one pair serves every session.
var (
	envelopeEncoder *zstd.Encoder
	envelopeDecoder *zstd.Decoder
)

func init() {
	var err error
	envelopeEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithZeroFrames(true),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		panic("crypto: zstd encoder initialization failed: " + err.Error())
	}

	envelopeDecoder, err = zstd.NewReader(nil,
		zstd.WithDecoderMaxMemory(maxEnvelopeBytes),
		zstd.WithDecoderConcurrency(0),
	)
	if err != nil {
		panic("crypto: zstd decoder initialization failed: " + err.Error())
	}
}

// Channel seals and opens envelopes under one session key.
//
// A token is base64(nonce || XChaCha20-Poly1305(zstd(plaintext))). The nonce
// is random per envelope; 24 bytes makes collisions negligible for the
// lifetime of a key.
type Channel struct {
	key  []byte
	aead cipher.AEAD
}

// NewChannel copies key and returns a Channel bound to it.
func NewChannel(key []byte) (*Channel, error) {
	if len(key) != SessionKeyBytes {
		return nil, fmt.Errorf("crypto: session key must be %d bytes, got %d", SessionKeyBytes, len(key))
	}
	k := append([]byte(nil), key...)
	aead, err := chacha20poly1305.NewX(k)
	if err != nil {
		memzero.Zero(k)
		return nil, err
	}
	return &Channel{key: k, aead: aead}, nil
}

// Seal compresses then encrypts plaintext and returns the envelope token.
func (c *Channel) Seal(plaintext []byte) (string, error) {
	if c == nil || c.aead == nil {
		return "", ErrNoKey
	}
	compressed := envelopeEncoder.EncodeAll(plaintext, make([]byte, 0, len(plaintext)/2+64))

	ns := c.aead.NonceSize()
	out := make([]byte, ns, ns+len(compressed)+c.aead.Overhead())
	if _, err := rand.Read(out); err != nil {
		return "", err
	}
	out = c.aead.Seal(out, out[:ns], compressed, nil)
	return B64(out), nil
}

// Open reverses Seal. Any failure yields ErrDecrypt.
func (c *Channel) Open(token string) ([]byte, error) {
	if c == nil || c.aead == nil {
		return nil, ErrNoKey
	}
	raw, err := UnB64(token)
	if err != nil {
		return nil, ErrDecrypt
	}
	ns := c.aead.NonceSize()
	if len(raw) < ns+c.aead.Overhead() {
		return nil, ErrDecrypt
	}
	compressed, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	plain, err := envelopeDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	if plain == nil {
		plain = []byte{}
	}
	return plain, nil
}

// Close wipes the key. The Channel refuses further use.
func (c *Channel) Close() {
	if c == nil {
		return
	}
	memzero.Zero(c.key)
	c.key = nil
	c.aead = nil
}
