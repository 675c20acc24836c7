package localapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"conduit/internal/domain"
)

const maxResponseBytes = 32 << 20

// Source yields the current lockfile.
type Source func() (Lockfile, error)

// FileSource reads the lockfile at path on every call.
func FileSource(path string) Source {
	return func() (Lockfile, error) { return ReadLockfile(path) }
}

// Client issues requests against the local API. The lockfile is re-read after
// any transport failure so a restarted game client is picked up.
type Client struct {
	source Source
	http   *http.Client

	mu  sync.Mutex
	cur *Lockfile
}

func NewClient(source Source) *Client {
	return &Client{
		source: source,
		http: &http.Client{
			Timeout:   30 * time.Second,
			Transport: loopbackTransport(),
		},
	}
}

// Request performs one call. A non-2xx status is a response, not an error.
func (c *Client) Request(ctx context.Context, method, path string, body []byte) (domain.APIResponse, error) {
	if !strings.HasPrefix(path, "/") {
		return domain.APIResponse{}, fmt.Errorf("localapi: path %q must start with /", path)
	}
	lf, err := c.lockfile()
	if err != nil {
		return domain.APIResponse{}, err
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), lf.BaseURL()+path, rd)
	if err != nil {
		return domain.APIResponse{}, err
	}
	req.SetBasicAuth(authUser, lf.Password)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.forget()
		return domain.APIResponse{}, fmt.Errorf("localapi %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.APIResponse{}, fmt.Errorf("localapi %s %s: read body: %w", method, path, err)
	}
	return domain.APIResponse{Status: resp.StatusCode, Body: data}, nil
}

func (c *Client) lockfile() (Lockfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur != nil {
		return *c.cur, nil
	}
	lf, err := c.source()
	if err != nil {
		return Lockfile{}, err
	}
	c.cur = &lf
	return lf, nil
}

func (c *Client) forget() {
	c.mu.Lock()
	c.cur = nil
	c.mu.Unlock()
}

var errNotLoopback = errors.New("localapi: refusing non-loopback address")

// loopbackTransport accepts the API's self-signed certificate. It only dials loopback.
func loopbackTransport() *http.Transport {
	return &http.Transport{
		DialContext:         loopbackDial,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // loopback only
		MaxIdleConns:        8,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

func loopbackDial(ctx context.Context, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	ip := net.ParseIP(host)
	if ip == nil || !ip.IsLoopback() {
		return nil, errNotLoopback
	}
	var d net.Dialer
	return d.DialContext(ctx, network, addr)
}

var _ domain.LocalAPI = (*Client)(nil)
