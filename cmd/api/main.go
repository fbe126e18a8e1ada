package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scms/clinic-api/internal/config"
	"github.com/scms/clinic-api/internal/handler"
	recordHandler "github.com/scms/clinic-api/internal/handler/record"
	referralHandler "github.com/scms/clinic-api/internal/handler/referral"
	slotHandler "github.com/scms/clinic-api/internal/handler/slot"
	userHandler "github.com/scms/clinic-api/internal/handler/user"
	"github.com/scms/clinic-api/internal/middleware"
	"github.com/scms/clinic-api/internal/repository/postgres"
	"github.com/scms/clinic-api/internal/router"
	accessService "github.com/scms/clinic-api/internal/service/access"
	referralService "github.com/scms/clinic-api/internal/service/referral"
	slotService "github.com/scms/clinic-api/internal/service/slot"
	workflowService "github.com/scms/clinic-api/internal/service/workflow"
	"github.com/scms/clinic-api/pkg/auth"
	"github.com/scms/clinic-api/pkg/blob"
	"github.com/scms/clinic-api/pkg/logger"
	"github.com/scms/clinic-api/pkg/messaging"
	"github.com/scms/clinic-api/pkg/messaging/redis"
	"github.com/scms/clinic-api/pkg/metrics"
)

func main() {
	// Install the console-writer logger as the process-global logger; all
	// middleware and service logging flows through it.
	appLog := logger.NewLogger(nil)
	log.Logger = appLog.Zerolog()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	slotRepo := postgres.NewSlotRepository(db)
	referralRepo := postgres.NewReferralRepository(db)
	recordRepo := postgres.NewRecordRepository(db)

	tokenSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	blobStore := blob.NewFSStore(cfg.Blob.Root, cfg.Blob.BasePath)

	accessSvc := accessService.NewService(userRepo, tokenSvc)
	slotSvc := slotService.NewService(slotRepo)
	referralSvc := referralService.NewService(referralRepo, userRepo, blobStore)

	var publisher messaging.Publisher
	if cfg.Redis.Enabled {
		broker, err := redis.NewRedisBroker(redis.Config{URL: cfg.Redis.URL}, &log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		publisher = messaging.NewEventPublisher(broker, cfg.Redis.Channel)
	}

	m := metrics.NewMetrics(cfg.Metrics.Namespace)

	workflowSvc := workflowService.NewService(accessSvc, slotSvc, referralSvc, recordRepo, userRepo, publisher, m)

	authMiddleware := middleware.NewAuthMiddleware(accessSvc)
	healthHandler := handler.NewHealthHandler(db)

	r := router.NewRouter(
		authMiddleware,
		healthHandler,
		router.RouterConfig{
			RateLimitRPS:   cfg.RateLimit.RPS,
			RateLimitBurst: cfg.RateLimit.Burst,
			MetricsPrefix:  cfg.Metrics.Namespace + "_http",
		},
		slotHandler.NewHandler(workflowSvc),
		referralHandler.NewHandler(workflowSvc),
		recordHandler.NewHandler(workflowSvc),
		userHandler.NewHandler(workflowSvc),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
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
