package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/psiconnect/practice-api/internal/config"
	"github.com/psiconnect/practice-api/internal/email"
	"github.com/psiconnect/practice-api/internal/gateway/whatsapp"
	healthHandler "github.com/psiconnect/practice-api/internal/handler/health"
	templateHandler "github.com/psiconnect/practice-api/internal/handler/template"
	workerHandler "github.com/psiconnect/practice-api/internal/handler/worker"
	"github.com/psiconnect/practice-api/internal/repository/postgres"
	"github.com/psiconnect/practice-api/internal/router"
	"github.com/psiconnect/practice-api/internal/service/dispatch"
	"github.com/psiconnect/practice-api/pkg/logger"
	redisBroker "github.com/psiconnect/practice-api/pkg/messaging/redis"
	"github.com/psiconnect/practice-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	appLogger := &logger.Logger{ZL: log.Logger}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redisBroker.NewRedisBroker(redisBroker.Config{URL: cfg.Redis.URL}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
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
	mailSender := email.NewSender(cfg.SMTP)

	dispatchMetrics := metrics.New("practice_api")
	dispatchMetrics.MustRegister()

	dispatchSvc := dispatch.NewService(
		notificationRepo,
		templateRepo,
		gateway,
		mailSender,
		broker,
		dispatchMetrics,
		appLogger,
		dispatch.Config{
			BatchSize:       cfg.Worker.BatchSize,
			FallbackLimit:   cfg.Worker.FallbackLimit,
			MessageInterval: cfg.Worker.MessageInterval,
		},
	)

	r := router.NewRouter(
		router.Config{
			RateLimit:     rate.Limit(cfg.Server.RateLimitRPS),
			RateBurst:     cfg.Server.RateBurst,
			MetricsPrefix: "practice_api",
		},
		workerHandler.NewHandler(dispatchSvc),
		templateHandler.NewHandler(dispatchSvc),
		healthHandler.NewHandler(db),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
