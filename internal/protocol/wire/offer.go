package wire

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"conduit/internal/domain"
)

var errEmptyField = errors.New("empty")

// offerJSON is the plaintext of a Secret blob.
type offerJSON struct {
	Secret   string `json:"secret"`
	Identity string `json:"identity"`
	Device   string `json:"device"`
	Browser  string `json:"browser"`
}

// DecodeOffer parses a decrypted pairing offer. Every field must be present
// and non-empty, and secret must be valid base64.
func DecodeOffer(data []byte) (domain.PairingOffer, error) {
	var raw offerJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.PairingOffer{}, fmt.Errorf("%w: offer: %v", ErrMalformed, err)
	}
	for name, v := range map[string]string{
		"secret":   raw.Secret,
		"identity": raw.Identity,
		"device":   raw.Device,
		"browser":  raw.Browser,
	} {
		if v == "" {
			return domain.PairingOffer{}, fmt.Errorf("%w: offer %s: %v", ErrMalformed, name, errEmptyField)
		}
	}
	secret, err := base64.StdEncoding.DecodeString(raw.Secret)
	if err != nil {
		return domain.PairingOffer{}, fmt.Errorf("%w: offer secret: %v", ErrMalformed, err)
	}
	return domain.PairingOffer{
		Secret:   secret,
		Identity: domain.DeviceIdentity(raw.Identity),
		Device:   raw.Device,
		Browser:  raw.Browser,
	}, nil
}

// EncodeOffer is the mobile side of DecodeOffer.
func EncodeOffer(offer domain.PairingOffer) ([]byte, error) {
	return json.Marshal(offerJSON{
		Secret:   base64.StdEncoding.EncodeToString(offer.Secret),
		Identity: offer.Identity.String(),
		Device:   offer.Device,
		Browser:  offer.Browser,
	})
}
