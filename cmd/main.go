/**
 * @description
 * This is the main entry point for the onboarding-service. It is responsible
 * for initializing all components of the service: configuration, database
 * connection, provider API clients, message broker producer and consumer, the
 * saga orchestrator, the timeout sweeper, and the HTTP server. It wires
 * everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/joho/godotenv: optional .env loading for local development.
 * - github.com/robfig/cron/v3: schedule for the stale-saga sweeper.
 * - internal/api, internal/app, internal/config, internal/quickreply,
 *   internal/store, internal/webhook: Internal packages for the service.
 * - pkg/providers (+ mono, onepipe), pkg/rabbitmq, pkg/resilience: provider
 *   clients and shared infrastructure.
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

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/koboflow/onboarding-service/internal/api"
	"github.com/koboflow/onboarding-service/internal/app"
	"github.com/koboflow/onboarding-service/internal/config"
	"github.com/koboflow/onboarding-service/internal/domain"
	"github.com/koboflow/onboarding-service/internal/quickreply"
	"github.com/koboflow/onboarding-service/internal/store"
	"github.com/koboflow/onboarding-service/internal/webhook"
	"github.com/koboflow/onboarding-service/pkg/providers"
	"github.com/koboflow/onboarding-service/pkg/providers/mono"
	"github.com/koboflow/onboarding-service/pkg/providers/onepipe"
	rmrabbit "github.com/koboflow/onboarding-service/pkg/rabbitmq"
	"github.com/koboflow/onboarding-service/pkg/resilience"
)

func main() {
	// Load a local .env if present, then the full configuration.
	_ = godotenv.Load()
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.ServiceJWTSecret) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"service jwt secret must be configured\" env=SERVICE_JWT_SECRET")
	}
	if strings.TrimSpace(cfg.MonoWebhookSecret) == "" && strings.TrimSpace(cfg.OnepipeWebhookSecret) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"at least one provider webhook secret must be configured\"")
	}

	log.Printf("level=info component=bootstrap msg=\"starting onboarding-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Initialize the RabbitMQ producer; fall back to a no-op publisher so the
	// service can still acknowledge webhooks when the broker is down.
	var producer rmrabbit.Publisher
	eventProducer, err := rmrabbit.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &rmrabbit.EventProducerFallback{}
	} else {
		defer eventProducer.Close()
		producer = eventProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Redis backs the webhook dedupe guard and the quick-reply cache. Both
	// degrade gracefully, so a missing Redis is a warning, not a failure.
	var redisClient *redis.Client
	if strings.TrimSpace(cfg.RedisURL) == "" {
		log.Println("level=warn component=bootstrap msg=\"redis url missing; webhook dedupe and quick-reply cache disabled\" env=REDIS_URL")
	} else {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; dedupe and cache disabled\" err=%v", parseErr)
		} else {
			redisClient = redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelPing()
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; dedupe and cache disabled\" err=%v", pingErr)
				redisClient.Close()
				redisClient = nil
			} else {
				defer redisClient.Close()
				log.Println("level=info component=bootstrap msg=\"redis connected\"")
			}
		}
	}

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	// Provider clients share one resilience policy: bounded retries with
	// exponential backoff and a per-attempt timeout.
	policy := resilience.NewPolicy()
	monoClient := mono.NewClient(cfg.MonoAPIBaseURL, cfg.MonoAPIKey, policy)
	onepipeClient := onepipe.NewClient(cfg.OnepipeAPIBaseURL, cfg.OnepipeAPIKey, policy)

	// New users without a sticky assignment get the configured default.
	selection := func(ctx context.Context, userID uuid.UUID) (string, error) {
		return cfg.DefaultProvider, nil
	}
	factory := providers.NewFactory(repository, selection, monoClient, onepipeClient)

	var quickReplies *quickreply.Cache
	if redisClient != nil {
		quickReplies = quickreply.NewCache(redisClient, "koboflow:quick_replies", time.Duration(cfg.QuickReplyTTLMinutes)*time.Minute)
	}

	saga := app.NewSaga(
		repository,
		factory,
		app.NewBusNotifier(producer),
		app.NewBusValidationDispatcher(producer),
		app.NewIntentValidator(),
		quickReplies,
		app.SagaConfig{
			MandateMaxAmount:  cfg.MandateMaxAmountKobo,
			MandateExpiry:     time.Duration(cfg.MandateExpiryDays) * 24 * time.Hour,
			CollectionAccount: cfg.CollectionAccount,
		},
	)

	// Initialize the API handlers.
	deduper := webhook.NewDeduper(redisClient, time.Duration(cfg.WebhookDedupeTTLMin)*time.Minute)
	secrets := map[string]string{}
	if cfg.MonoWebhookSecret != "" {
		secrets[webhook.ProviderMono] = cfg.MonoWebhookSecret
	}
	if cfg.OnepipeWebhookSecret != "" {
		secrets[webhook.ProviderOnepipe] = cfg.OnepipeWebhookSecret
	}
	handlers := api.NewHandlers(saga, producer, deduper, secrets)
	router := api.Routes(handlers, cfg.ServiceJWTSecret, cfg.Origins())

	// Wire up the event consumer for canonical events and validation results.
	rabbitConsumer, err := rmrabbit.NewConsumer(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"rabbitmq consumer init failed\" err=%v", err)
	}
	defer rabbitConsumer.Close()

	eventConsumer := app.NewEventConsumer(saga)
	if err := rabbitConsumer.ConsumeWithBindings(domain.EventExchange, cfg.EventQueue, eventConsumer.Bindings()); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"event consumer start failed\" err=%v", err)
	}

	// Schedule the stale-saga sweep.
	sweeper := app.NewTimeoutSweeper(repository, saga, time.Duration(cfg.SagaTimeoutMinutes)*time.Minute)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.SagaSweepSchedule, sweeper.Run); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"sweeper schedule invalid\" schedule=%q err=%v", cfg.SagaSweepSchedule, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Start the HTTP server.
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
