package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"conduit/internal/crypto"
	"conduit/internal/domain"
	"conduit/internal/localapi"
	"conduit/internal/observability"
	"conduit/internal/relay"
	"conduit/internal/services/hub"
	"conduit/internal/services/session"
	"conduit/internal/util/backoff"
)

// App is the desktop daemon.
type App struct {
	wire     *Wire
	approver domain.Approver
	log      zerolog.Logger

	// OnReady, if set, receives the registration once the daemon is about to connect.
	OnReady func(reg domain.Registration, fingerprint string)
	// OnLink, if set, is told when the relay link connects or drops.
	OnLink func(connected bool)
}

func New(w *Wire, approver domain.Approver) *App {
	return &App{wire: w, approver: approver, log: w.Log}
}

// Run serves mobile peers until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	cfg := a.wire.Config
	if cfg.Lockfile == "" {
		return errors.New("no lockfile path for this platform, set lockfile in config")
	}

	key, err := a.wire.PrivateKey()
	if err != nil {
		return err
	}
	pub, err := PublicKeyPEM(key)
	if err != nil {
		return err
	}
	fingerprint, err := crypto.PublicKeyFingerprint(&key.PublicKey)
	if err != nil {
		return err
	}
	reg, err := a.wire.EnsureRegistration(ctx, pub, false)
	if err != nil {
		return err
	}
	linkURL, err := relay.LinkURL(cfg.RelayURL, reg.Code, reg.Token)
	if err != nil {
		return err
	}
	if a.OnReady != nil {
		a.OnReady(reg, fingerprint)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h := hub.New(ctx, session.Config{
		Version:           cfg.Version,
		HostName:          cfg.HostName,
		NotificationToken: reg.Token,
		ApprovalTimeout:   cfg.ApprovalTimeout,
	}, session.Deps{
		Offers:   crypto.NewOfferDecrypter(key),
		Devices:  a.wire.Devices,
		Approver: a.approver,
		API:      a.wire.LocalAPI,
		Feed:     a.wire.Feed,
		Logger:   a.log.With().Str("component", "session").Logger(),
	})
	defer h.CloseAll()

	link := &relay.Link{
		URL:     linkURL,
		Backoff: backoff.Default(),
		Logger:  a.log.With().Str("component", "relay").Logger(),
		OnState: a.OnLink,
	}
	watcher := &localapi.Watcher{
		Source:  localapi.FileSource(cfg.Lockfile),
		Feed:    a.wire.Feed,
		Backoff: backoff.Default(),
		Logger:  a.log.With().Str("component", "localapi").Logger(),
	}

	a.log.Info().
		Str("relay", cfg.RelayURL).
		Str("code", reg.Code).
		Str("fingerprint", fingerprint).
		Str("approval", cfg.Approval).
		Msg("conduit starting")

	var wg sync.WaitGroup
	errs := make(chan error, 3)
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				errs <- fmt.Errorf("%s: %w", name, err)
				cancel()
			}
		}()
	}

	run("relay link", func(ctx context.Context) error { return link.Run(ctx, h) })
	run("event watcher", watcher.Run)
	if cfg.MetricsAddr != "" {
		run("metrics", func(ctx context.Context) error { return serveMetrics(ctx, cfg.MetricsAddr, a.log) })
	}

	wg.Wait()
	close(errs)
	a.log.Info().Msg("conduit stopped")
	return <-errs
}

func serveMetrics(ctx context.Context, addr string, log zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("metrics listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
