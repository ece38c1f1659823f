/**
 * @description
 * This is the main entry point for the fees-service. It is responsible for
 * initializing all components of the service: configuration, database connection,
 * payment gateway clients, message broker producer and consumer, the statistics
 * cache, the reconciliation scheduler, and the HTTP server. It wires everything
 * together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/joho/godotenv: For loading .env files during local development.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/redis/go-redis/v9: Statistics cache.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/paystack, pkg/flutterwave: Payment gateway clients.
 * - pkg/rabbitmq: Client for RabbitMQ.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
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

	"github.com/classpoint/fees-service/internal/api"
	"github.com/classpoint/fees-service/internal/app"
	"github.com/classpoint/fees-service/internal/config"
	"github.com/classpoint/fees-service/internal/store"
	"github.com/classpoint/fees-service/pkg/flutterwave"
	"github.com/classpoint/fees-service/pkg/paystack"
	"github.com/classpoint/fees-service/pkg/rabbitmq"
)

func main() {
	// Load .env for local development; the file is optional.
	if err := godotenv.Load(); err != nil {
		log.Println("level=info component=bootstrap msg=\"no .env file found, relying on environment\"")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url must be configured\" env=DATABASE_URL")
	}

	log.Printf("level=info component=bootstrap msg=\"starting fees-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}
	poolConfig.MaxConns = 50
	poolConfig.MinConns = 10
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Initialize the RabbitMQ producer used by the webhook receiver. A broker
	// outage must not keep the API down, so a fallback no-op producer steps in.
	var producer rabbitmq.Publisher
	eventProducer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &rabbitmq.EventProducerFallback{}
	} else {
		defer eventProducer.Close()
		producer = eventProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Initialize the payment gateway clients. Per-school secrets are resolved
	// at call time, so the clients carry only base URLs.
	paystackClient := paystack.NewClient(cfg.PaystackBaseURL)
	flutterwaveClient := flutterwave.NewClient(cfg.FlutterwaveBaseURL)

	// Optional Redis client for the statistics cache.
	var redisClient *redis.Client
	if strings.TrimSpace(cfg.RedisURL) == "" {
		log.Println("level=warn component=bootstrap msg=\"redis url missing; stats caching disabled\" env=REDIS_URL")
	} else {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; stats caching disabled\" err=%v", parseErr)
		} else {
			redisClient = redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelPing()
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; stats caching disabled\" err=%v", pingErr)
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

	// Initialize the core application service with its dependencies.
	feesService := app.NewService(
		repository,
		paystackClient,
		flutterwaveClient,
		producer,
		cfg.EventExchange,
		cfg.PaymentCallbackBaseURL,
	)
	if redisClient != nil {
		feesService.SetStatsCache(redisClient, time.Duration(cfg.StatsCacheTTLSeconds)*time.Second)
	}

	// Wire up the payment status consumer: webhook events are settled here.
	statusConsumer := app.NewPaymentStatusConsumer(repository)

	rabbitConsumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"rabbitmq consumer init failed\" err=%v", err)
	}
	defer rabbitConsumer.Close()

	statusBindings := map[string]func([]byte) bool{
		"payment.status.success": statusConsumer.HandleMessage,
		"payment.status.failed":  statusConsumer.HandleMessage,
	}
	if err := rabbitConsumer.ConsumeWithBindings(cfg.EventExchange, cfg.PaymentEventQueue, statusBindings); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"payment status consumer start failed\" err=%v", err)
	}

	// Start the reconciliation scheduler for stale pending payments.
	slogger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	scheduler := app.NewScheduler(
		feesService,
		slogger,
		cfg.ReconcileSchedule,
		time.Duration(cfg.PendingPaymentMaxAgeMin)*time.Minute,
		cfg.ReconcileBatchSize,
	)
	scheduler.Start()

	// Initialize the API handlers and router.
	feeHandlers := api.NewFeeHandlers(feesService)
	webhookHandlers := api.NewWebhookHandlers(feesService, producer, cfg.EventExchange)
	router := api.Routes(feeHandlers, webhookHandlers, cfg.AuthJWKSURL, cfg.AllowedOrigins())

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

	// Stop taking new cron runs, then drain in-flight HTTP requests.
	<-scheduler.Stop().Done()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
