package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fjod/go_storefront/internal/cache"
	"github.com/fjod/go_storefront/internal/cartsync"
	"github.com/fjod/go_storefront/internal/config"
	h "github.com/fjod/go_storefront/internal/http"
	"github.com/fjod/go_storefront/internal/logger"
	"github.com/fjod/go_storefront/internal/observability"
	"github.com/fjod/go_storefront/internal/poller"
	"github.com/fjod/go_storefront/internal/publisher"
	"github.com/fjod/go_storefront/internal/repository"
	"github.com/fjod/go_storefront/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("failed to load config", zap.Error(err))
	}

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log.SugaredLogger.Desugar())

	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.Init(ctx, log, observability.Config{
		Enabled:      cfg.OTelEnabled,
		ServiceName:  cfg.OTelServiceName,
		Environment:  cfg.AppEnv,
		OTLPEndpoint: cfg.OTelEndpoint,
		SampleRatio:  cfg.OTelSampleRatio,
	})
	if err != nil {
		log.Fatal("failed to init tracing", "error", err)
	}

	// MongoDB
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := repository.ConnectMongoDB(connectCtx, cfg.MongoURI, cfg.MongoDBName)
	cancel()
	if err != nil {
		log.Fatal("failed to connect to MongoDB", "error", err)
	}
	if err := repository.CreateIndexes(ctx, db); err != nil {
		log.Fatal("failed to create indexes", "error", err)
	}
	log.Info("connected to MongoDB", "database", cfg.MongoDBName)

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		// Reads fall back to MongoDB while Redis is unavailable.
		log.Warn("redis ping failed", "addr", cfg.RedisAddr, "error", err)
	}

	cartRepo := repository.NewMongoCartRepository(db)
	orderRepo := repository.NewMongoOrderRepository(db)

	var wg sync.WaitGroup

	// The syncer outlives ctx so carts written by draining requests are kept.
	syncCtx, stopSync := context.WithCancel(context.Background())
	defer stopSync()
	syncDone := make(chan struct{})
	syncer := cartsync.New(cartRepo, log.With("component", "cartsync"))
	go func() {
		defer close(syncDone)
		syncer.Run(syncCtx)
	}()

	cartService := service.NewCartService(cartRepo, cache.NewRedisCache(redisClient, cfg.CartCacheTTL), syncer, log)
	loyaltyService := service.NewLoyaltyService(repository.NewMongoLoyaltyRepository(db), log)
	analyticsService := service.NewAnalyticsService(orderRepo)
	interactionService := service.NewInteractionService(repository.NewMongoInteractionRepository(db))

	var events service.EventPublisher
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kafkaPublisher := publisher.NewKafkaPublisher(cfg.CheckoutTopic, log.With("component", "publisher"), brokers...)
		defer kafkaPublisher.Close()
		events = kafkaPublisher

		cartCleaner := poller.NewPoller(cartService, cfg.CheckoutTopic, cfg.CartGroupID, log.With("component", "poller"), brokers...)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer cartCleaner.Close()
			cartCleaner.Run(ctx)
		}()
		log.Info("kafka enabled", "brokers", brokers, "topic", cfg.CheckoutTopic)
	} else {
		events = publisher.NewLocalPublisher(cartService)
		log.Info("kafka disabled, carts are cleared in-process after checkout")
	}

	checkoutService := service.NewCheckoutService(cartService, orderRepo, loyaltyService, analyticsService, events, log)

	auth, err := h.NewAuthenticator(cfg.JWTSecret, cfg.JWTPublicKeyPEM, cfg.JWTIssuer)
	if err != nil {
		log.Fatal("failed to configure authentication", "error", err)
	}

	router := h.NewRouter(h.RouterConfig{
		Log:            log,
		Auth:           auth,
		RequestTimeout: cfg.RequestTimeout,
		Carts:          cartService,
		Checkout:       checkoutService,
		Loyalty:        loyaltyService,
		Orders:         analyticsService,
		Interactions:   interactionService,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("storefront starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	wg.Wait()

	// Every cart writer has stopped; the syncer flushes what is left.
	stopSync()
	<-syncDone

	if err := redisClient.Close(); err != nil {
		log.Warn("failed to close redis", "error", err)
	}
	if err := db.Client().Disconnect(shutdownCtx); err != nil {
		log.Warn("failed to disconnect MongoDB", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("failed to flush traces", "error", err)
	}

	log.Info("server exited")
}
