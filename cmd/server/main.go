package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-service/config"
	"storefront-service/internal/analytics"
	"storefront-service/internal/api"
	"storefront-service/internal/broker"
	"storefront-service/internal/email"
	"storefront-service/internal/gateway"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/service"
	"storefront-service/internal/shipping"
	"storefront-service/internal/store"
	"storefront-service/internal/util"
	"storefront-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront service")

	tp, err := util.InitTracer("storefront-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicStore)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	gatewayClient := gateway.NewClient(gateway.Config{
		BaseURL:       cfg.Gateway.BaseURL,
		KeyID:         cfg.Gateway.KeyID,
		KeySecret:     cfg.Gateway.KeySecret,
		WebhookSecret: cfg.Gateway.WebhookSecret,
	})

	carriers := []shipping.Carrier{
		shipping.NewUPS(cfg.Carriers.UPS.BaseURL, cfg.Carriers.UPS.AccessToken, cfg.Carriers.Timeout),
		shipping.NewFedEx(cfg.Carriers.FedEx.BaseURL, cfg.Carriers.FedEx.AccessToken,
			cfg.Carriers.FedEx.AccountNumber, cfg.Carriers.Timeout),
		shipping.NewUSPS(cfg.Carriers.USPS.BaseURL, cfg.Carriers.USPS.APIKey, cfg.Carriers.Timeout),
	}
	shippingAgg := shipping.NewAggregator(carriers, cfg.Carriers.Timeout, redisClient)

	emailClient, err := email.NewClient(email.Config{
		BaseURL: cfg.Email.BaseURL,
		APIKey:  cfg.Email.APIKey,
		From:    cfg.Email.From,
	})
	if err != nil {
		log.Fatalf("Failed to initialize email client: %v", err)
	}

	analyticsForwarder := analytics.NewForwarder(analytics.Config{
		WebEndpoint:     cfg.Analytics.WebEndpoint,
		ProductEndpoint: cfg.Analytics.ProductEndpoint,
		APIKey:          cfg.Analytics.APIKey,
	})

	addressService := service.NewAddressService(db)
	reviewService := service.NewReviewService(db)
	wishlistService := service.NewWishlistService(db)
	paymentService := service.NewPaymentService(db, gatewayClient, eventPublisher)
	refundService := service.NewRefundService(db, gatewayClient, eventPublisher)
	webhookService := service.NewWebhookService(gatewayClient, redisClient, db,
		paymentService, eventPublisher, cfg.Gateway.RelayURL)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	emailConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicStore, cfg.Kafka.EmailGroup)
	emailWorker := worker.NewEmailWorker(emailConsumer, emailClient)
	go func() {
		if err := emailWorker.Start(workerCtx); err != nil {
			log.Printf("Email worker error: %v", err)
		}
	}()

	analyticsConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicStore, cfg.Kafka.AnalyticsGroup)
	analyticsWorker := worker.NewAnalyticsWorker(analyticsConsumer, analyticsForwarder)
	go func() {
		if err := analyticsWorker.Start(workerCtx); err != nil {
			log.Printf("Analytics worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(addressService, reviewService, wishlistService,
		paymentService, refundService, webhookService, shippingAgg, eventPublisher, redisClient)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	emailWorker.Stop()
	analyticsWorker.Stop()

	log.Println("Server exited")
}
