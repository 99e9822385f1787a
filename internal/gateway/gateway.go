// Package gateway provides keelbot's HTTP server: the Keel notification
// webhook, a health endpoint, and Prometheus metrics. It binds to loopback
// by default.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/flemzord/keelbot/internal/bot"
	"github.com/flemzord/keelbot/internal/config"
)

// Notifier is the slice of the notification dispatcher the gateway consumes.
// *bot.Notifier satisfies it.
type Notifier interface {
	BroadcastEvent(ctx context.Context, ev bot.WebhookEvent)
}

// Gateway is the HTTP server.
type Gateway struct {
	config   config.GatewayConfig
	logger   *slog.Logger
	notifier Notifier
	metrics  *bot.Metrics
	registry *prometheus.Registry
	tracked  func() int
	version  string

	server    *http.Server
	startedAt time.Time
}

// New creates the gateway. tracked reports the number of registry entries for
// the health endpoint; metrics may be nil.
func New(cfg config.GatewayConfig, notifier Notifier, metrics *bot.Metrics, registry *prometheus.Registry, tracked func() int, version string, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		config:   cfg,
		logger:   logger.With("module", "gateway"),
		notifier: notifier,
		metrics:  metrics,
		registry: registry,
		tracked:  tracked,
		version:  version,
	}
}

// Start binds the listener and serves in a background goroutine.
func (g *Gateway) Start(ctx context.Context) error {
	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", g.config.Bind)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.config.Bind)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully within the configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}
