package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"conduit/internal/domain"
)

const maxPublicKeyBytes = 64 << 10

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	PublicKey string `json:"public_key"`
}

// RegisterResponse is the reply to POST /register.
type RegisterResponse struct {
	Code  string `json:"code"`
	Token string `json:"token"`
}

type HTTP struct {
	Base string
	HTTP *http.Client
}

func NewHTTP(base string) *HTTP {
	return &HTTP{Base: strings.TrimRight(base, "/"), HTTP: &http.Client{Timeout: 30 * time.Second}}
}

// Register publishes publicKeyPEM and returns the pairing code the relay assigned.
func (c *HTTP) Register(ctx context.Context, publicKeyPEM []byte) (domain.Registration, error) {
	var out RegisterResponse
	if err := c.post(ctx, "/register", RegisterRequest{PublicKey: string(publicKeyPEM)}, &out); err != nil {
		return domain.Registration{}, err
	}
	if out.Code == "" {
		return domain.Registration{}, fmt.Errorf("relay register: empty pairing code")
	}
	return domain.Registration{
		RelayURL:      c.Base,
		Code:          out.Code,
		Token:         out.Token,
		RegisteredUTC: time.Now().UTC().Unix(),
	}, nil
}

// FetchPublicKey returns the PEM registered under code.
func (c *HTTP) FetchPublicKey(ctx context.Context, code string) ([]byte, error) {
	u := c.Base + "/pubkey/" + url.PathEscape(code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("relay get %s: %s", u, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPublicKeyBytes))
}

func (c *HTTP) post(ctx context.Context, path string, in any, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay post %s: %s", path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

var _ domain.RelayClient = (*HTTP)(nil)
