package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	zlog "github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/medarch/records-api/internal/config"
	authHandler "github.com/medarch/records-api/internal/handler/auth"
	"github.com/medarch/records-api/internal/handler/health"
	patientHandler "github.com/medarch/records-api/internal/handler/patient"
	"github.com/medarch/records-api/internal/middleware"
	"github.com/medarch/records-api/internal/repository"
	filerepo "github.com/medarch/records-api/internal/repository/file"
	"github.com/medarch/records-api/internal/repository/memory"
	"github.com/medarch/records-api/internal/repository/postgres"
	redisrepo "github.com/medarch/records-api/internal/repository/redis"
	"github.com/medarch/records-api/internal/router"
	patientService "github.com/medarch/records-api/internal/service/patient"
	"github.com/medarch/records-api/internal/store"
	"github.com/medarch/records-api/pkg/auth"
	"github.com/medarch/records-api/pkg/logger"
	"github.com/medarch/records-api/pkg/messaging"
	redisbroker "github.com/medarch/records-api/pkg/messaging/redis"
	"github.com/medarch/records-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.NewLogger(nil)
	m := metrics.NewMetrics("medarch", "records")

	snapshots, err := newSnapshotRepository(cfg.Snapshot)
	if err != nil {
		log.Fatal(err, "failed to initialize snapshot repository")
	}

	var broker messaging.Broker
	if cfg.Broker.RedisURL != "" {
		zl := zlog.Logger
		broker, err = redisbroker.NewRedisBroker(redisbroker.Config{
			URL:          cfg.Broker.RedisURL,
			MaxRetries:   cfg.Broker.MaxRetries,
			RetryBackoff: cfg.Broker.RetryBackoff,
			PoolSize:     cfg.Broker.PoolSize,
			MinIdleConns: cfg.Broker.MinIdleConns,
		}, &zl)
		if err != nil {
			log.Fatal(err, "failed to connect to event broker")
		}
		defer broker.Close()
	}

	ctx := context.Background()
	st := store.New(ctx, snapshots, log, m)
	patientSvc := patientService.NewService(st, broker, log, m)

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	actorMiddleware := middleware.NewActorMiddleware(jwtSvc)

	r := router.NewRouter(
		actorMiddleware,
		[]router.Handler{health.NewHandler(), authHandler.NewHandler(jwtSvc)},
		[]router.Handler{patientHandler.NewHandler(patientSvc)},
		router.RouterConfig{
			RateLimit:     rate.Limit(cfg.RateLimit.RPS),
			RateBurst:     cfg.RateLimit.Burst,
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "medarch",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err, "server forced to shutdown")
	}

	log.Info("server exited properly")
}

func newSnapshotRepository(cfg config.SnapshotConfig) (repository.SnapshotRepository, error) {
	switch cfg.Backend {
	case "file":
		return filerepo.New(cfg.FilePath), nil
	case "postgres":
		db, err := postgres.NewDB(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return postgres.New(db)
	case "redis":
		return redisrepo.New(cfg.RedisURL)
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Backend)
	}
}
