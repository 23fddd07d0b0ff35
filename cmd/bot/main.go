package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"birthday_bot/internal/app"
	"birthday_bot/internal/infra/config"
	"birthday_bot/internal/infra/httpserver"
	"birthday_bot/internal/infra/logger"
	"birthday_bot/internal/infra/metrics"
	"birthday_bot/internal/infra/scheduler"
	"birthday_bot/internal/infra/storage"
	"birthday_bot/internal/infra/telegram"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gopkg.in/telebot.v3"
)

const (
	scanTimeout     = 10 * time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")

	mainLogger.WithFields(logrus.Fields{
		"storage":     cfg.StorageBackend,
		"timezone":    cfg.Location.String(),
		"cron":        cfg.ScanCronSpec,
		"environment": cfg.Environment,
	}).Info("Birthday bot starting...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := storage.Open(ctx, cfg, logger.Component("storage"))
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not open storage: %v", err)
	}
	defer stores.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(reg)

	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := logger.Component("telebot").WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{"sender_id": c.Sender().ID, "chat_id": c.Chat().ID})
			}
			entry.Error("Unhandled bot error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not create Telegram bot: %v", err)
	}

	client := telegram.NewTelebotAdapter(bot)
	notifier := telegram.NewBirthdayNotifier(client, cfg.WishesChatID, cfg.BirthdayImageURL, cfg.Location)

	service := app.NewBirthdayService(stores.Records, notifier, logger.Component("birthday_service"), cfg.Location, cfg.NotifyTimeout)
	dispatcher := app.NewDispatcher(service, appMetrics, logger.Component("dispatcher"))
	scanner := app.NewScanner(
		stores.Records,
		notifier,
		logger.Component("scanner"),
		app.WithCursorRepository(stores.Cursors),
		app.WithLocation(cfg.Location),
		app.WithNotifyTimeout(cfg.NotifyTimeout),
		app.WithScanRecorder(appMetrics),
	)

	telegram.RegisterBirthdayHandlers(ctx, bot, dispatcher, service.Today, cfg, logger.Component("telegram"))
	mainLogger.Info("Command handlers registered.")

	// The scheduler starts only once the bot exists, so the first scan can deliver.
	birthdayScheduler := scheduler.NewBirthdayScheduler(scanner, logger.Component("scheduler"), cfg.Location, cfg.ScanCronSpec, scanTimeout)
	if err := birthdayScheduler.Start(); err != nil {
		mainLogger.Fatalf("FATAL: Could not start scheduler: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		mainLogger.Info("Telegram poller started.")
		bot.Start() // Blocks until bot.Stop
		return nil
	})

	if cfg.MetricsAddr != "" {
		srv := httpserver.New(cfg.MetricsAddr, httpserver.NewRouter(reg))
		g.Go(func() error {
			mainLogger.WithField("addr", cfg.MetricsAddr).Info("Metrics server listening.")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		mainLogger.Info("Shutting down application...")
		birthdayScheduler.Stop()
		bot.Stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		mainLogger.WithError(err).Error("Application stopped with error")
		stores.Close()
		os.Exit(1)
	}
	mainLogger.Info("Application shut down gracefully.")
}
