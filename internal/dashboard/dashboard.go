// ABOUTME: Dashboard orchestrator that owns the gateway connection and the HTTP server
// ABOUTME: Wires store, controllers, sessions, and web UI together and manages their lifecycle

package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"tailscale.com/tsnet"

	"github.com/2389/coven-dashboard/internal/auth"
	"github.com/2389/coven-dashboard/internal/config"
	"github.com/2389/coven-dashboard/internal/controller"
	"github.com/2389/coven-dashboard/internal/gateway"
	"github.com/2389/coven-dashboard/internal/locale"
	"github.com/2389/coven-dashboard/internal/store"
	"github.com/2389/coven-dashboard/internal/webui"
)

// Conn is a live gateway connection.
type Conn interface {
	gateway.Requester
	Done() <-chan struct{}
	Close() error
}

// DialFunc opens a gateway connection.
type DialFunc func(ctx context.Context, url string, opts gateway.DialOptions) (Conn, error)

// Dashboard runs the dashboard HTTP server and keeps one gateway connection
// alive behind the shared handle.
type Dashboard struct {
	config      *config.Config
	store       store.Store
	handle      *gateway.Handle
	controllers *controller.Set
	web         *webui.Server
	httpServer  *http.Server
	tsnetServer *tsnet.Server
	dial        DialFunc
	logger      *slog.Logger

	mu        sync.Mutex
	connected bool
	since     time.Time
	lastErr   string
}

// Option customizes a Dashboard.
type Option func(*Dashboard)

// WithDialer replaces the WebSocket dialer.
func WithDialer(dial DialFunc) Option {
	return func(d *Dashboard) { d.dial = dial }
}

// WithStore uses st instead of opening the configured database.
func WithStore(st store.Store) Option {
	return func(d *Dashboard) { d.store = st }
}

// New creates a Dashboard from cfg. Nothing listens or dials until Run.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Dashboard, error) {
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dashboard{
		config: cfg,
		handle: gateway.NewHandle(nil),
		dial:   dialWebSocket,
		logger: logger.With("component", "dashboard"),
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.store == nil {
		st, err := store.NewSQLiteStore(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		d.store = st
	}

	catalogs, err := locale.Load()
	if err != nil {
		_ = d.store.Close()
		return nil, fmt.Errorf("loading locale catalogs: %w", err)
	}

	d.controllers = controller.NewSet(d.handle, controller.SetOptions{}, logger)

	sessions := auth.NewSessions(
		auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret)),
		cfg.Auth.SessionTTL,
		cfg.Auth.PasswordHash,
		cfg.Tailscale.Enabled && cfg.Tailscale.HTTPS,
	)

	d.web, err = webui.New(d.controllers, d.store, sessions, catalogs, webui.Options{
		Language:     cfg.UI.Language,
		DefaultPanel: cfg.UI.DefaultPanel,
		Status:       d.Status,
	}, logger.With("component", "webui"))
	if err != nil {
		_ = d.store.Close()
		return nil, fmt.Errorf("creating web UI: %w", err)
	}

	d.httpServer = &http.Server{
		Handler:           d.web.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return d, nil
}

// Controllers exposes the controller set, mainly for tests and the CLI.
func (d *Dashboard) Controllers() *controller.Set {
	return d.controllers
}

// Handler returns the dashboard's HTTP handler.
func (d *Dashboard) Handler() http.Handler {
	return d.httpServer.Handler
}

// Status reports the gateway connection state.
func (d *Dashboard) Status() webui.ConnectionInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return webui.ConnectionInfo{
		Connected: d.connected,
		URL:       d.config.Gateway.URL,
		LastError: d.lastErr,
		HasToken:  d.config.Gateway.Token != "",
		Since:     d.since,
	}
}

// Run starts the HTTP server and the connection loop and blocks until ctx
// is canceled. Returns nil on graceful shutdown, or the first server error.
func (d *Dashboard) Run(ctx context.Context) error {
	ln, err := d.setupListener(ctx)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		d.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := d.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	connDone := make(chan struct{})
	go func() {
		defer close(connDone)
		d.maintainConnection(runCtx)
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		d.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		d.logger.Error("server error", "error", serverErr)
	}

	cancel()
	<-connDone

	shutdownErr := d.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// setupListener listens on the tailnet when enabled, else on server.http_addr.
func (d *Dashboard) setupListener(ctx context.Context) (net.Listener, error) {
	if d.config.Tailscale.Enabled {
		return d.setupTailscaleListener(ctx)
	}
	ln, err := net.Listen("tcp", d.config.Server.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listening on HTTP address: %w", err)
	}
	return ln, nil
}

// gracefulShutdown uses a fresh context since the caller's is already canceled.
func (d *Dashboard) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return d.Shutdown(ctx)
}

// Shutdown stops the HTTP server and releases the tailnet node and store.
func (d *Dashboard) Shutdown(ctx context.Context) error {
	d.logger.Info("shutting down dashboard")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", d.httpServer.Shutdown(ctx))
	if d.tsnetServer != nil {
		errs = appendCloseError(errs, "tailscale shutdown", d.tsnetServer.Close())
	}
	errs = appendCloseError(errs, "store close", d.store.Close())

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}
