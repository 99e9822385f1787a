package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/flemzord/keelbot/internal/audit"
	"github.com/flemzord/keelbot/internal/bot"
	"github.com/flemzord/keelbot/internal/config"
	"github.com/flemzord/keelbot/internal/cron"
	"github.com/flemzord/keelbot/internal/gateway"
	"github.com/flemzord/keelbot/internal/keel"
	"github.com/flemzord/keelbot/internal/logging"
	"github.com/flemzord/keelbot/internal/telegram"
	"github.com/flemzord/keelbot/internal/tracing"
)

// app holds the fully wired daemon.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	tg        *telegram.Client
	poller    *telegram.Poller
	gateway   *gateway.Gateway
	scheduler *cron.Scheduler
	auditDB   *audit.Store
}

// newApp loads the configuration and wires every component together.
func newApp(cfgPath string) (*app, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}

	redactor := logging.NewRedactor(cfg.Telegram.Token, cfg.Keel.Password, cfg.Gateway.WebhookToken)
	textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(logging.NewRedactingHandler(textHandler, redactor))

	keelClient := keel.NewClient(cfg.Keel.URL, cfg.Keel.Username, cfg.Keel.Password, cfg.Keel.Timeout)
	tgClient := telegram.NewClient(cfg.Telegram.Token, cfg.Telegram.APIURL)

	registry := bot.NewRegistry()
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := bot.NewMetrics(promReg, func() float64 { return float64(registry.Size()) })

	var recorder bot.Recorder
	var auditDB *audit.Store
	if cfg.Audit.Path != "" {
		auditDB, err = audit.Open(cfg.Audit.Path)
		if err != nil {
			return nil, err
		}
		recorder = auditDB
	}

	syncer := bot.NewSyncer(keelClient, tgClient, registry, logger, metrics)
	notifier := bot.NewNotifier(tgClient, registry, cfg.Telegram.ChatIDs, logger, metrics)
	selections := bot.NewSelections(cfg.Telegram.SelectionTimeout)

	commands := bot.NewCommands(bot.CommandsConfig{
		Keel:           keelClient,
		Telegram:       tgClient,
		Sync:           syncer,
		Selections:     selections,
		Audit:          recorder,
		Metrics:        metrics,
		Logger:         logger,
		AdminUsernames: cfg.Telegram.AdminUsernames,
		Version:        version,
		ConfigSummary:  cfg.Summary(),
	})
	callbacks := bot.NewCallbacks(keelClient, tgClient, syncer, recorder, metrics, logger)
	dispatcher := bot.NewDispatcher(commands, callbacks)

	poller := telegram.NewPoller(tgClient, dispatcher.HandleUpdate, logger, cfg.Telegram.PollingTimeout)
	gw := gateway.New(cfg.Gateway, notifier, metrics, promReg, registry.Size, version, logger)

	scheduler := cron.NewScheduler(logger)
	if err := scheduler.RegisterJob(&cron.ScanJob{
		Keel:         keelClient,
		Notifier:     notifier,
		Sync:         syncer,
		Logger:       logger.With("module", "scan"),
		ScheduleExpr: cfg.Keel.ScanSchedule,
	}); err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		tg:        tgClient,
		poller:    poller,
		gateway:   gw,
		scheduler: scheduler,
		auditDB:   auditDB,
	}, nil
}

// run starts everything and blocks until ctx is cancelled, then shuts down
// in reverse order.
func (a *app) run(ctx context.Context) error {
	shutdownTracing, err := tracing.Setup(ctx, a.cfg.Tracing, version)
	if err != nil {
		return err
	}

	me, err := a.tg.GetMe(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("connected to Telegram", "bot", me.Username)

	// Long polling and webhooks are mutually exclusive on the Bot API.
	if err := a.tg.DeleteWebhook(ctx); err != nil {
		a.logger.Warn("webhook cleanup failed", "error", err)
	}

	if err := a.gateway.Start(ctx); err != nil {
		return err
	}
	if err := a.scheduler.Start(); err != nil {
		return err
	}
	a.poller.Start()

	a.logger.Info("keelbot started",
		"version", version,
		"chats", len(a.cfg.Telegram.ChatIDs),
		"keel", a.cfg.Keel.URL,
	)

	<-ctx.Done()
	a.logger.Info("shutting down")

	a.poller.Stop()

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.scheduler.Stop(stopCtx); err != nil {
		a.logger.Error("scheduler stop failed", "error", err)
	}
	if err := a.gateway.Stop(stopCtx); err != nil {
		a.logger.Error("gateway stop failed", "error", err)
	}
	if a.auditDB != nil {
		if err := a.auditDB.Close(); err != nil {
			a.logger.Error("audit close failed", "error", err)
		}
	}
	if err := shutdownTracing(stopCtx); err != nil {
		a.logger.Error("tracing shutdown failed", "error", err)
	}
	return nil
}
