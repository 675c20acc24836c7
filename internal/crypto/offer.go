package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
)

// OfferDecrypter opens pairing offers with the desktop's long-lived private key.
// The key is process-scoped and never mutated after construction.
type OfferDecrypter struct {
	priv *rsa.PrivateKey
}

// NewOfferDecrypter binds priv for offer decryption.
func NewOfferDecrypter(priv *rsa.PrivateKey) *OfferDecrypter {
	return &OfferDecrypter{priv: priv}
}

// DecryptOffer base64-decodes blob and opens it with RSA-OAEP (SHA-256).
// Any failure yields ErrDecrypt.
func (d *OfferDecrypter) DecryptOffer(blob string) ([]byte, error) {
	if d == nil || d.priv == nil {
		return nil, ErrDecrypt
	}
	ct, err := UnB64(blob)
	if err != nil {
		return nil, ErrDecrypt
	}
	pt, err := rsa.DecryptOAEP(sha256.New(), nil, d.priv, ct, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return pt, nil
}

// EncryptOffer is the mobile side of DecryptOffer.
func EncryptOffer(pub *rsa.PublicKey, plaintext []byte) (string, error) {
	ct, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, plaintext, nil)
	if err != nil {
		return "", err
	}
	return B64(ct), nil
}
