package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"ms-booking/internal/accounts"
	"ms-booking/internal/accounts/accounts_api"
	accountsdb "ms-booking/internal/accounts/db"
	"ms-booking/internal/api"
	"ms-booking/internal/auth"
	"ms-booking/internal/booking"
	"ms-booking/internal/booking/booking_api"
	bookingdb "ms-booking/internal/booking/db"
	bookingkafka "ms-booking/internal/booking/kafka"
	bookingredis "ms-booking/internal/booking/redis"
	"ms-booking/internal/catalog"
	"ms-booking/internal/catalog/catalog_api"
	catalogdb "ms-booking/internal/catalog/db"
	"ms-booking/internal/config"
	"ms-booking/internal/database"
	"ms-booking/internal/database/migrations"
	"ms-booking/internal/kafka"
	"ms-booking/internal/logger"
	"ms-booking/internal/stats"
	statsdb "ms-booking/internal/stats/db"
	"ms-booking/internal/stats/stats_api"
)

func main() {
	log := logger.NewLogger()
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	log.SetLevel(logger.ParseLevel(cfg.LogLevel))
	log.Info("APP", fmt.Sprintf("Starting booking service (capacity strategy: %s)", cfg.Booking.CapacityStrategy))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- PostgreSQL ---
	bunDB, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	if cfg.Database.MigrationsRun {
		runner := migrations.NewRunner(bunDB.DB, migrations.DefaultOptions(), log)
		if err := runner.RunMigrations(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
		}
	}

	// --- Redis (package locks) ---
	var lock booking.PackageLock
	if cfg.Booking.CapacityStrategy == config.StrategyRedisLock {
		redisClient, err := database.ConnectRedis(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal("REDIS", err.Error())
		}
		defer redisClient.Close()
		lock = newPackageLock(ctx, redisClient, cfg, log)
	}

	// --- Kafka ---
	var producer bookingkafka.MessagePublisher = kafka.NoopPublisher{}
	if cfg.Kafka.Enabled {
		p := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer p.Close()
		topics := []string{cfg.Kafka.Topics.BookingEvents, cfg.Kafka.Topics.PackageEvents}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics, log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer = p
		log.Info("KAFKA", fmt.Sprintf("Publishing events to %v", cfg.Kafka.Brokers))
	} else {
		log.Info("KAFKA", "Kafka disabled, events are dropped")
	}
	events := bookingkafka.NewPublisher(producer, cfg.Kafka.Topics)

	// --- Auth ---
	verifier, err := newVerifier(ctx, cfg.Auth)
	if err != nil {
		log.Fatal("AUTH", err.Error())
	}

	// --- Services ---
	ledger := booking.NewLedger(&bookingdb.DB{Bun: bunDB}, lock, events, cfg.Booking.CapacityStrategy, log)
	statsService := stats.NewService(&statsdb.DB{Bun: bunDB}, log)
	catalogService := catalog.NewService(&catalogdb.DB{Bun: bunDB}, ledger, log)
	accountsService := accounts.NewService(&accountsdb.DB{Bun: bunDB}, log)

	bookingHandler := booking_api.NewHandler(ledger, log)
	statsHandler := stats_api.NewHandler(statsService, log)
	catalogHandler := catalog_api.NewHandler(catalogService, log)
	accountsHandler := accounts_api.NewHandler(accountsService, log)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(api.RequestLogger(log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := bunDB.PingContext(r.Context()); err != nil {
			api.SendMessage(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		api.SendMessage(w, http.StatusOK, "ok")
	})
	catalogHandler.RegisterPublicRoutes(r)
	log.Info("ROUTER", "Public routes registered under /api/public")

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(verifier, log))
		bookingHandler.RegisterRoutes(r)
		statsHandler.RegisterRoutes(r)
		catalogHandler.RegisterRoutes(r)
		accountsHandler.RegisterRoutes(r)
	})
	log.Info("ROUTER", "Protected routes registered")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Booking service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	<-ctx.Done()
	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "Booking service shutdown complete")
	}
}

func newPackageLock(ctx context.Context, client *redis.Client, cfg *config.Config, log *logger.Logger) *bookingredis.Redis {
	lock := bookingredis.NewRedis(client, cfg.Redis.LockTTL, log)
	lock.WatchExpiredLocks(ctx)
	return lock
}

// newVerifier prefers an OIDC issuer when one is configured and falls back to HS256 tokens.
func newVerifier(ctx context.Context, cfg config.AuthConfig) (auth.Verifier, error) {
	if cfg.OIDCIssuer != "" {
		return auth.NewOIDCVerifier(ctx, cfg.OIDCIssuer)
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET or OIDC_ISSUER must be set")
	}
	return auth.NewHMACVerifier(cfg.JWTSecret), nil
}
