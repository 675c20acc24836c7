package app

import (
	"context"
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"conduit/internal/crypto"
	"conduit/internal/domain"
	"conduit/internal/localapi"
	"conduit/internal/relay"
	"conduit/internal/store"
)

// Wire bundles the stores and clients commands need.
type Wire struct {
	Config        Config
	Log           zerolog.Logger
	Keys          *store.KeyFileStore
	Devices       domain.DeviceStore
	Registrations domain.RegistrationStore
	Relay         *relay.HTTP
	LocalAPI      *localapi.Client
	Feed          *localapi.Feed
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config, log zerolog.Logger) (*Wire, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return nil, fmt.Errorf("create home %s: %w", cfg.Home, err)
	}
	return &Wire{
		Config:        cfg,
		Log:           log,
		Keys:          store.NewKeyFileStore(cfg.Home),
		Devices:       store.NewDeviceFileStore(cfg.Home),
		Registrations: store.NewRegistrationFileStore(cfg.Home),
		Relay:         relay.NewHTTP(cfg.RelayURL),
		LocalAPI:      localapi.NewClient(localapi.FileSource(cfg.Lockfile)),
		Feed:          localapi.NewFeed(cfg.EventBuffer, log.With().Str("component", "feed").Logger()),
	}, nil
}

// PrivateKey loads the desktop key from private_key if set, otherwise from the key store.
func (w *Wire) PrivateKey() (*rsa.PrivateKey, error) {
	var (
		pem []byte
		err error
	)
	if w.Config.PrivateKey != "" {
		pem, err = os.ReadFile(w.Config.PrivateKey)
	} else {
		pem, err = w.Keys.LoadPrivateKeyPEM(w.Config.Passphrase(os.Getenv))
	}
	if err != nil {
		return nil, fmt.Errorf("load private key: %w", err)
	}
	key, err := crypto.ParsePrivateKeyPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("load private key: %w", err)
	}
	return key, nil
}

// PublicKeyPEM returns the PEM of key's public half.
func PublicKeyPEM(key *rsa.PrivateKey) ([]byte, error) {
	return crypto.EncodePublicKeyPEM(&key.PublicKey)
}

// EnsureRegistration returns the cached registration for the configured
// relay, registering publicKeyPEM when there is none or force is set.
func (w *Wire) EnsureRegistration(ctx context.Context, publicKeyPEM []byte, force bool) (domain.Registration, error) {
	if !force {
		reg, ok, err := w.Registrations.LoadRegistration(w.Config.RelayURL)
		if err != nil {
			return domain.Registration{}, fmt.Errorf("load registration: %w", err)
		}
		if ok {
			return reg, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	reg, err := w.Relay.Register(ctx, publicKeyPEM)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("register with relay: %w", err)
	}
	reg.RelayURL = w.Config.RelayURL
	if err := w.Registrations.SaveRegistration(reg); err != nil {
		return domain.Registration{}, fmt.Errorf("save registration: %w", err)
	}
	w.Log.Info().Str("relay", reg.RelayURL).Str("code", reg.Code).Msg("registered with relay")
	return reg, nil
}
