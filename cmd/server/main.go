package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/testnet-trader/internal/auth"
	"github.com/yourorg/testnet-trader/internal/config"
	"github.com/yourorg/testnet-trader/internal/eventlog"
	"github.com/yourorg/testnet-trader/internal/execution"
	"github.com/yourorg/testnet-trader/internal/gateway"
	"github.com/yourorg/testnet-trader/internal/ingestion"
	"github.com/yourorg/testnet-trader/internal/metrics"
	"github.com/yourorg/testnet-trader/internal/pricing"
	kafkaRepo "github.com/yourorg/testnet-trader/internal/repository/kafka"
	pgRepo "github.com/yourorg/testnet-trader/internal/repository/postgres"
	redisRepo "github.com/yourorg/testnet-trader/internal/repository/redis"
)

// pricingContext is what the simulator reads and the feed and quote
// endpoints write.
type pricingContext interface {
	execution.PriceSource
	ingestion.TickPublisher
	gateway.QuoteStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.App.SlogLevel()}))
	session := uuid.New().String()
	logger = logger.With("app", cfg.App.Name, "session", session)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var prices pricingContext
	if cfg.RedisURL != "" {
		redisClient, err := redisRepo.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to redis", "err", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		prices = redisRepo.NewPriceRepo(redisClient)
		logger.Info("redis connected")
	} else {
		book := pricing.NewQuoteBook()
		if cfg.Sim.QuotesFile != "" {
			if err := book.LoadQuotes(cfg.Sim.QuotesFile); err != nil {
				logger.Error("failed to load quotes", "file", cfg.Sim.QuotesFile, "err", err)
				os.Exit(1)
			}
			logger.Info("quotes loaded", "file", cfg.Sim.QuotesFile)
		}
		prices = book
	}

	stream := eventlog.NewStream(eventlog.WithMirror(logger.With("component", "pipeline")))
	m := metrics.New(stream.Dropped)

	var simOpts []execution.SimulatorOption
	if cfg.Sim.Seed != 0 {
		simOpts = append(simOpts, execution.WithSeed(cfg.Sim.Seed))
	}
	orderSvc := execution.NewOrderService(execution.NewSimulator(prices, simOpts...), stream, m)

	var archive gateway.LogArchive
	if cfg.DBURL != "" {
		db, err := pgRepo.Connect(ctx, cfg.DBURL)
		if err != nil {
			logger.Error("failed to connect to database", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		logger.Info("database connected")

		if err := pgRepo.RunMigrations(cfg.DBURL, cfg.App.Migrations); err != nil {
			logger.Error("failed to run migrations", "err", err)
			os.Exit(1)
		}
		logger.Info("migrations applied")

		logRepo := pgRepo.NewLogRepo(db, session)
		archive = logRepo
		entries, cancel := stream.Subscribe(1024)
		defer cancel()
		go eventlog.Export(ctx, entries, logRepo, "postgres", logger)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		publisher := kafkaRepo.NewLogPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, session, logger)
		defer publisher.Close()
		entries, cancel := stream.Subscribe(1024)
		defer cancel()
		go eventlog.Export(ctx, entries, publisher, "kafka", logger)
		logger.Info("kafka export enabled", "topic", cfg.Kafka.Topic)
	}

	if cfg.Feed.Enabled {
		feed := ingestion.NewMarkPriceFeed(cfg.Feed.URL, cfg.Feed.Symbols, prices, logger)
		go feed.Run(ctx)
	}

	var jwtSvc *auth.JWTService
	if cfg.JWT.Secret != "" {
		jwtSvc = auth.NewJWTService(cfg.JWT.Secret, 24*time.Hour)
	}

	hub := gateway.NewHub(logger, stream.Since)
	hubEntries, cancelHub := stream.Subscribe(256)
	defer cancelHub()
	go hub.Run(ctx, hubEntries)

	handlers := gateway.NewHandlers(orderSvc, stream, prices, archive, logger)
	router := gateway.NewRouter(handlers, hub, jwtSvc, cfg.App.CORSOrigins, m.Handler())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.App.Port, "env", cfg.App.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
	logger.Info("server stopped")
}
