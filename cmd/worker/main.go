package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/psiconnect/practice-api/internal/config"
	"github.com/psiconnect/practice-api/internal/email"
	"github.com/psiconnect/practice-api/internal/gateway/whatsapp"
	"github.com/psiconnect/practice-api/internal/repository/postgres"
	"github.com/psiconnect/practice-api/internal/service/dispatch"
	"github.com/psiconnect/practice-api/pkg/logger"
	redisBroker "github.com/psiconnect/practice-api/pkg/messaging/redis"
	"github.com/psiconnect/practice-api/pkg/metrics"
	"github.com/psiconnect/practice-api/pkg/worker"
)

func setupHealthCheck(appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(":8081", mux); err != nil {
			appLogger.ZL.Error().Err(err).Msg("Health check server failed")
			os.Exit(1)
		}
	}()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	appLogger := &logger.Logger{ZL: log.Logger}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		appLogger.ZL.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	broker, err := redisBroker.NewRedisBroker(redisBroker.Config{URL: cfg.Redis.URL}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Redis broker")
	}
	defer broker.Close()

	baseRepo := postgres.NewBaseRepository(db)
	notificationRepo := postgres.NewNotificationRepository(baseRepo)
	templateRepo := postgres.NewTemplateRepository(baseRepo, cfg.Worker.TemplateTTL)

	gateway := whatsapp.NewClient(whatsapp.Config{
		BaseURL: cfg.WhatsApp.BaseURL,
		APIKey:  cfg.WhatsApp.APIKey,
		Timeout: cfg.WhatsApp.Timeout,
	})

	dispatchMetrics := metrics.New("practice_worker")
	dispatchMetrics.MustRegister()

	dispatchSvc := dispatch.NewService(
		notificationRepo,
		templateRepo,
		gateway,
		email.NewSender(cfg.SMTP),
		broker,
		dispatchMetrics,
		appLogger,
		dispatch.Config{
			BatchSize:       cfg.Worker.BatchSize,
			FallbackLimit:   cfg.Worker.FallbackLimit,
			MessageInterval: cfg.Worker.MessageInterval,
		},
	)

	processor := worker.NewDispatchProcessor(
		dispatchSvc,
		worker.DispatchProcessorConfig{PollInterval: cfg.Worker.PollInterval},
		appLogger,
	)

	setupHealthCheck(appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		appLogger.ZL.Info().Msg("Shutting down...")
		cancel()
	}()

	processor.Start(ctx)
}
