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

	"semisto-service/config"
	"semisto-service/internal/api"
	"semisto-service/internal/auth"
	"semisto-service/internal/broker"
	"semisto-service/internal/catalog"
	"semisto-service/internal/portal"
	"semisto-service/internal/redisclient"
	"semisto-service/internal/service"
	"semisto-service/internal/store"
	"semisto-service/internal/util"
	"semisto-service/internal/worker"
	"semisto-service/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting semisto service", zap.String("env", cfg.Server.Env))

	tp, err := util.InitTracer("semisto-service", cfg.Observ.JaegerEndpoint, cfg.Server.Env)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	bundle, err := catalog.DefaultBundle()
	if err != nil {
		logger.Fatal("Failed to load catalog snapshot", zap.Error(err))
	}
	resolver := catalog.NewResolver(cfg.Catalog.APIBaseURL, cfg.Catalog.UseAPI, cfg.Catalog.Timeout, bundle)

	portalRepo, err := portal.DefaultRepository()
	if err != nil {
		logger.Fatal("Failed to load partner portal data", zap.Error(err))
	}

	authenticator, err := auth.NewAuthenticator(
		cfg.Portal.DemoEmail,
		cfg.Portal.DemoPassword,
		cfg.Portal.Token,
		auth.DemoUser(cfg.Portal.DemoEmail),
	)
	if err != nil {
		logger.Fatal("Failed to configure portal access", zap.Error(err))
	}

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.Migrate(migrateCtx)
	migrateCancel()
	if err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
	defer producer.Close()
	logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicEvents))

	eventPublisher := broker.NewEventPublisher(producer)

	cartService := service.NewCartService(redisClient, resolver, cfg.Business.CartTTL, cfg.Business.FreePickupThreshold, cfg.Business.Currency)
	orderService := service.NewOrderService(db, cartService, resolver, eventPublisher, cfg.Business.Currency)
	donationService := service.NewDonationService(db, eventPublisher)
	fundingService := service.NewFundingService(portalRepo, db, eventPublisher)
	registrationService := service.NewRegistrationService(db, resolver, eventPublisher)
	portalService := service.NewPortalService(portalRepo, fundingService)

	engine := workflow.NewEngine(cfg.Business.SubmitDelay,
		workflow.Definitions(orderService, donationService.Donate, fundingService, registrationService)...)
	workflowService := service.NewWorkflowService(engine, redisClient, cfg.Business.WorkflowTTL)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	confirmations := service.NewConfirmationService(db, service.NewLogNotifier())
	eventConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, cfg.Kafka.ConsumerGroup)
	confirmationWorker := worker.NewConfirmationWorker(eventConsumer, confirmations)
	go func() {
		if err := confirmationWorker.Start(workerCtx); err != nil {
			logger.Error("Confirmation worker error", zap.Error(err))
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(api.Dependencies{
		Catalog:      resolver,
		Carts:        cartService,
		Workflows:    workflowService,
		Orders:       orderService,
		Portal:       portalService,
		Auth:         authenticator,
		SecureCookie: cfg.Portal.SecureCookie,
		Checks: map[string]api.Checker{
			"postgres": db.Ping,
			"redis":    redisClient.Ping,
		},
	})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Observ.PrometheusPort),
		Handler: metricsMux,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Metrics server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if err := confirmationWorker.Stop(); err != nil {
		logger.Error("Failed to stop confirmation worker", zap.Error(err))
	}

	logger.Info("Server exited")
}
