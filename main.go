package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"

	"controle-acesso/internal/access"
	"controle-acesso/internal/access/access_api"
	"controle-acesso/internal/access/db"
	rediswrap "controle-acesso/internal/access/redis"
	"controle-acesso/internal/access/service"
	"controle-acesso/internal/admin/admin_api"
	"controle-acesso/internal/analytics"
	analytics_api "controle-acesso/internal/analytics/api"
	"controle-acesso/internal/auth"
	"controle-acesso/internal/config"
	"controle-acesso/internal/database"
	"controle-acesso/internal/database/migrations"
	"controle-acesso/internal/kafka"
	"controle-acesso/internal/logger"
	"controle-acesso/internal/sse"
)

func prepareSchema(ctx context.Context, bunDB *bun.DB, store *db.DB, cfg config.DatabaseConfig, logger *logger.Logger) {
	if cfg.Driver != "postgres" {
		if err := store.CreateSchema(ctx); err != nil {
			logger.Fatal("DATABASE", fmt.Sprintf("Failed to create schema: %v", err))
		}
		logger.Info("DATABASE", "Schema ready")
		return
	}

	if !cfg.AutoMigrate {
		logger.Info("MIGRATE", "Auto-migrate disabled, skipping migrations")
		return
	}

	runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{
		MigrationsDir: cfg.MigrationsDir,
		AutoMigrate:   cfg.AutoMigrate,
	}, logger)
	if err := runner.RunMigrations(); err != nil {
		logger.Fatal("MIGRATE", fmt.Sprintf("Failed to run migrations: %v", err))
	}
	logger.Info("MIGRATE", "✅ Migrations applied")
}

func newRouter(log *logger.Logger, accessHandler *access_api.Handler, adminHandler *admin_api.Handler, analyticsHandler *analytics_api.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.RequestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	accessHandler.RegisterRoutes(r)
	log.Info("ROUTER", "Public access routes registered under /api")

	adminHandler.RegisterRoutes(r, analyticsHandler.RegisterRoutes)
	log.Info("ROUTER", "Admin routes registered under /admin, analytics under /admin/analytics")
	return r
}

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting access control service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bunDB, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	store := &db.DB{Bun: bunDB}
	prepareSchema(ctx, bunDB, store, cfg.Database, logger)

	// The database claim alone is authoritative. With redis enabled a
	// SETNX guard sits in front of it and logout revocations are shared.
	var claimer access.TicketClaimer = store
	var revocations auth.Revocations
	if cfg.Redis.Enabled {
		redisClient, err := database.ConnectRedis(ctx, cfg.Redis.Addr, logger)
		if err != nil {
			logger.Fatal("REDIS", fmt.Sprintf("Redis connection error: %v", err))
		}
		defer redisClient.Close()

		claimer = rediswrap.NewClaimer(rediswrap.NewRedis(redisClient, cfg.Redis.ClaimTTL, logger), store)
		revocations = auth.NewRedisRevocations(redisClient)
		logger.Info("REDIS", "Ticket claim guard and token revocation enabled")
	} else {
		logger.Info("REDIS", "Redis disabled, claims go straight to the database")
	}

	emitter := sse.NewAttemptEmitter()

	// Without kafka the recorder feeds the local live stream directly. With
	// it, every replica reads the topic so admins see attempts taken anywhere.
	var publisher service.KafkaPublisher
	var live service.LiveFeed = emitter
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{cfg.Kafka.AttemptsTopic}, logger); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}

		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.AttemptsTopic, logger)
		defer producer.Close()
		publisher = producer
		live = nil

		groupID := "controle-acesso-live-" + uuid.NewString()
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.AttemptsTopic, groupID, logger)
		defer consumer.Close()
		go consumer.Start(ctx, emitter.Emit)
		logger.Info("KAFKA", fmt.Sprintf("Publishing attempts to %s, live feed group %s", cfg.Kafka.AttemptsTopic, groupID))
	}

	recorder := service.NewAttemptRecorder(store, publisher, live, logger)
	engine := access.NewEngine(store, claimer, recorder, logger)
	accessService := service.NewAccessService(store, engine, store, logger)

	authService := auth.NewService(store, auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), revocations, logger)
	if cfg.Auth.JWTSecret == "jwt_fallback_seguranca" {
		logger.Warn("AUTH", "JWT_SECRET_KEY not set, using the fallback secret")
	}

	accessHandler := access_api.NewHandler(accessService, logger)
	adminHandler := admin_api.NewHandler(store, authService, emitter, admin_api.CookieConfig{
		Name:   cfg.Auth.CookieName,
		Secure: cfg.Auth.CookieSecure,
	}, logger)

	logger.Info("HTTP", "Setting up router and middleware")
	analyticsHandler := analytics_api.NewHandler(analytics.NewService(bunDB), logger)
	r := newRouter(logger, accessHandler, adminHandler, analyticsHandler)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 Access control service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ Access control service shutdown complete")
	}
}
