package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/mamadbah2/flockcare/internal/config"
	"github.com/mamadbah2/flockcare/internal/observability/metrics"
	"github.com/mamadbah2/flockcare/internal/repository"
	"github.com/mamadbah2/flockcare/internal/repository/memory"
	"github.com/mamadbah2/flockcare/internal/repository/mongodb"
	"github.com/mamadbah2/flockcare/internal/repository/sheets"
	"github.com/mamadbah2/flockcare/internal/scheduler"
	"github.com/mamadbah2/flockcare/internal/server/handlers"
	"github.com/mamadbah2/flockcare/internal/server/router"
	batchsvc "github.com/mamadbah2/flockcare/internal/service/batches"
	commandsvc "github.com/mamadbah2/flockcare/internal/service/commands"
	completionsvc "github.com/mamadbah2/flockcare/internal/service/completion"
	costingsvc "github.com/mamadbah2/flockcare/internal/service/costing"
	financesvc "github.com/mamadbah2/flockcare/internal/service/finance"
	recordingsvc "github.com/mamadbah2/flockcare/internal/service/recording"
	schedulingsvc "github.com/mamadbah2/flockcare/internal/service/scheduling"
	whatsappsvc "github.com/mamadbah2/flockcare/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/flockcare/pkg/clients/whatsapp"
	"github.com/mamadbah2/flockcare/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc, err := cfg.Location()
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.Error(err))
	}

	store, err := openStore(context.Background(), cfg, baseLogger.Named("repo"))
	if err != nil {
		baseLogger.Fatal("failed to init store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close store", zap.Error(err))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	var mirror financesvc.Mirror
	if cfg.Sheets.Enabled() {
		ledgerMirror, err := sheets.NewLedgerMirror(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets mirror", zap.Error(err))
		}
		mirror = ledgerMirror
	} else {
		baseLogger.Info("google sheets not configured, finance mirror disabled")
	}

	batchService := batchsvc.NewService(store, baseLogger.Named("svc.batches"))
	schedulingService := schedulingsvc.NewService(store, loc, m, baseLogger.Named("svc.scheduling"))
	completionService := completionsvc.NewService(store, m, baseLogger.Named("svc.completion"))
	costingService := costingsvc.NewService(store, costingsvc.Options{
		ChunkSize:   cfg.Costing.RecalcChunkSize,
		Concurrency: cfg.Costing.RecalcConcurrency,
		Location:    loc,
	}, m, baseLogger.Named("svc.costing"))
	financeService := financesvc.NewService(store, mirror, m, baseLogger.Named("svc.finance"))
	recordingService := recordingsvc.NewService(store, financeService, baseLogger.Named("svc.recording"))

	apiHandler := handlers.NewAPIHandler(handlers.Services{
		Batches:    batchService,
		Scheduling: schedulingService,
		Completion: completionService,
		Costing:    costingService,
		Recording:  recordingService,
		Finance:    financeService,
	}, loc, baseLogger.Named("handlers.api"))

	var (
		webhookHandler *handlers.WebhookHandler
		notifier       scheduler.Notifier
	)
	if cfg.WhatsApp.Enabled() {
		commandDispatcher := commandsvc.NewService(batchService, schedulingService, completionService, baseLogger.Named("svc.commands"))
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, commandDispatcher, baseLogger.Named("svc.whatsapp"))
		webhookHandler = handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp"))
		if cfg.WhatsApp.GroupID != "" {
			notifier = messagingSvc
		}
	} else {
		baseLogger.Warn("whatsapp token missing, worker channel disabled")
	}

	engine := router.New(apiHandler, webhookHandler, registry, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Scheduler, loc, schedulingService, batchService, financeService, notifier, m, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		return memory.NewStore(), nil
	}
	return mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, logger.Named("mongodb"))
}
