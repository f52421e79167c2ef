/**
 * @description
 * This is the main entry point for the profile-service. It is responsible for
 * initializing all components of the service, including configuration, database
 * connection, the rate limiter, the message broker producer, repositories, the
 * core application service, the paym expiry scheduler, and the HTTP server.
 * It wires everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/redis/go-redis/v9: Optional distributed rate-limit backend.
 * - github.com/robfig/cron/v3: Paym expiry scheduling.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/rabbitmq: Client for RabbitMQ.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/paym/profile-service/internal/api"
	"github.com/paym/profile-service/internal/app"
	"github.com/paym/profile-service/internal/config"
	"github.com/paym/profile-service/internal/store"
	"github.com/paym/profile-service/pkg/rabbitmq"
)

func main() {
	// Load .env file for local development. In production, env vars are set directly.
	if err := godotenv.Load(); err != nil {
		log.Println("level=info component=bootstrap msg=\"no .env file found, using environment variables\"")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.PinHashSalt) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"pin hash salt must be configured\" env=PIN_HASH_SALT")
	}

	log.Printf("level=info component=bootstrap msg=\"starting profile-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}
	poolConfig.MaxConns = 50
	poolConfig.MinConns = 10
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts behind pgbouncer.
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Initialize the RabbitMQ producer for attempt/expiry events. The broker
	// being down must not keep the gate from serving, so fall back to a no-op
	// producer on failure.
	var producer rabbitmq.Publisher
	if strings.TrimSpace(cfg.RabbitMQURL) == "" {
		log.Println("level=warn component=bootstrap msg=\"rabbitmq url missing; events disabled\" env=RABBITMQ_URL")
		producer = &rabbitmq.EventProducerFallback{}
	} else if p, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL); err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &rabbitmq.EventProducerFallback{}
	} else {
		producer = p
		defer p.Close()
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Pick the rate-limit backend: Redis when configured and reachable, the
	// in-process map otherwise. Limiter state on the in-process map is lost on
	// restart and not shared between instances.
	window := time.Duration(cfg.PinAttemptWindowSeconds) * time.Second
	var limiter app.RateLimiter = app.NewMemoryRateLimiter(cfg.PinMaxAttempts, window)
	if cfg.RedisURL != "" {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; using in-memory rate limiter\" err=%v", parseErr)
		} else {
			redisClient := redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; using in-memory rate limiter\" err=%v", pingErr)
				redisClient.Close()
			} else {
				defer redisClient.Close()
				limiter = app.NewRedisRateLimiter(redisClient, cfg.RedisRateLimitPrefix, cfg.PinMaxAttempts, window)
				log.Println("level=info component=bootstrap msg=\"redis connected; distributed rate limiting enabled\"")
			}
			cancelPing()
		}
	}

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	// Initialize the core application service with its dependencies.
	profileService := app.NewService(repository, limiter, producer, cfg.PinHashSalt, cfg.PaymShareBaseURL)

	// Schedule the paym expiry sweep.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.PaymSweepSchedule, func() {
		sweepCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		profileService.SweepExpiredPayms(sweepCtx)
	}); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"paym sweep schedule invalid\" schedule=%q err=%v", cfg.PaymSweepSchedule, err)
	}
	scheduler.Start()
	defer scheduler.Stop()
	log.Printf("level=info component=bootstrap msg=\"paym expiry sweep scheduled\" schedule=%q", cfg.PaymSweepSchedule)

	// Initialize the API handlers and router.
	handlers := api.NewProfileHandlers(profileService)
	router := api.ProfileRoutes(handlers, cfg.ClerkJWKSURL)

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
