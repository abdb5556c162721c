package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/compose-network/nitro-wallet/hub-app/config"
	"github.com/compose-network/nitro-wallet/metrics"
	apisrv "github.com/compose-network/nitro-wallet/server/api"
	apimw "github.com/compose-network/nitro-wallet/server/api/middleware"
	"github.com/compose-network/nitro-wallet/x/channel"
	"github.com/compose-network/nitro-wallet/x/hub"
	hubhttp "github.com/compose-network/nitro-wallet/x/hub/http"
	"github.com/compose-network/nitro-wallet/x/lobby"
	lobbyhttp "github.com/compose-network/nitro-wallet/x/lobby/http"
	"github.com/compose-network/nitro-wallet/x/store"
)

const (
	shutdownTimeout      = 30 * time.Second
	slowRequestThreshold = time.Second
)

// App represents the hub application
type App struct {
	cfg *config.Config
	log zerolog.Logger

	repo      *store.Memory
	relay     *hub.Relay
	directory *lobby.MemoryDirectory
	apiServer *apisrv.Server

	cancel     context.CancelFunc
	serverDone chan struct{}
}

// NewApp creates a new hub application instance.
func NewApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	app := &App{
		cfg: cfg,
		log: log.With().Str("component", "hub-app").Logger(),
	}

	if err := app.initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}

	return app, nil
}

func (a *App) initialize(context.Context) error {
	if err := a.initializeRelay(); err != nil {
		return err
	}
	if a.cfg.Lobby.Enabled {
		a.directory = lobby.NewMemoryDirectory()
	}
	a.initializeAPIServer()
	return nil
}

func (a *App) initializeRelay() error {
	key, err := a.cfg.Hub.Key()
	if err != nil {
		return err
	}
	signer := channel.NewKeySigner(key)
	a.repo = store.NewMemory()

	opts := []hub.Option{hub.WithLedgerChannelType(a.cfg.Hub.LedgerType())}
	if a.cfg.Metrics.Enabled {
		opts = append(opts, hub.WithMetrics(hub.NewMetrics(metrics.GetRegistry())))
	}
	a.relay = hub.NewRelay(a.repo, signer, a.log, opts...)

	a.log.Info().
		Str("hub_address", signer.Address().Hex()).
		Str("ledger_channel_type", a.cfg.Hub.LedgerType().Hex()).
		Msg("Relay initialized")
	return nil
}

func (a *App) initializeAPIServer() {
	s := apisrv.NewServer(a.cfg.API, a.log)
	s.Use(apimw.Recover(a.log))
	s.Use(apimw.RequestID())
	s.Use(apimw.Logger(a.log,
		apimw.WithQuietPaths("/health", a.cfg.Metrics.Path),
		apimw.WithSlowThreshold(slowRequestThreshold),
	))
	s.Use(apimw.Timeout(a.cfg.Hub.RequestTimeout))

	s.Router.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)

	if a.cfg.Metrics.Enabled {
		s.Router.Handle(a.cfg.Metrics.Path, promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})).
			Methods(http.MethodGet)
	}

	hubhttp.NewHandler(a.relay, a.repo, a.log).RegisterMux(s.Router)

	if a.directory != nil {
		lobbyhttp.NewHandler(a.directory, a.log).RegisterMux(s.Router)
	}

	a.apiServer = s
}

// Run starts the application and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	errCh := make(chan error, 1)
	a.serverDone = make(chan struct{})
	go func() {
		defer close(a.serverDone)
		if err := a.apiServer.Start(runCtx); err != nil {
			a.log.Error().Err(err).Msg("API server error")
			errCh <- err
		}
	}()

	return a.runWithGracefulShutdown(runCtx, errCh)
}

// runWithGracefulShutdown handles shutdown signals.
func (a *App) runWithGracefulShutdown(ctx context.Context, errCh <-chan error) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	a.log.Info().Str("hub_address", a.relay.Address().Hex()).Msg("Nitro hub started successfully")

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info().Msg("Context canceled, initiating shutdown")
	case sig := <-sigCh:
		a.log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case runErr = <-errCh:
	}

	if a.cancel != nil {
		a.cancel()
	}

	if err := a.shutdown(); err != nil {
		return err
	}
	return runErr
}

// shutdown waits for the API server to drain in-flight requests.
func (a *App) shutdown() error {
	a.log.Info().Msg("Initiating graceful shutdown")

	select {
	case <-a.serverDone:
	case <-time.After(shutdownTimeout):
		return fmt.Errorf("shutdown timed out after %s", shutdownTimeout)
	}

	a.log.Info().Msg("Graceful shutdown complete")
	return nil
}

// handleHealth responds to health check requests.
func (a *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	apisrv.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"hub":       a.relay.Address().Hex(),
		"version":   Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
