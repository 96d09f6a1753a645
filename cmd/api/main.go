package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"tickethub-core/config"
	"tickethub-core/internal/clients"
	"tickethub-core/internal/domain/eventstore"
	"tickethub-core/internal/handler"
	"tickethub-core/internal/middleware"
	"tickethub-core/internal/redis"
	"tickethub-core/internal/repository"
	"tickethub-core/internal/services"
	"tickethub-core/pkg/database"
	"tickethub-core/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadConfig()

	mode := logger.DevelopmentMode
	if cfg.AppMode == "release" {
		mode = logger.ProductionMode
		gin.SetMode(gin.ReleaseMode)
	}
	l := logger.New(mode)
	logger.SetGlobalLogger(l)

	// Connect to Database
	database.Connect(cfg)
	if err := database.DB.AutoMigrate(&eventstore.DomainEvent{}); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	// Connect to Redis
	redis.Initialize(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	publisher := redis.NewPublisher(redis.GetClient())

	rateLimits := redis.DefaultRateLimitConfig()
	rateLimits.AppendLimit = cfg.AppendLimitPerMin
	rateLimits.SagaStartLimit = cfg.SagaStartLimitPerMin
	limiter := redis.NewRateLimiter(redis.GetClient(), rateLimits)

	// Repositories
	eventRepo := repository.NewEventRepository(database.DB)
	sagaStore := repository.NewMemorySagaStore()

	// Remote collaborators
	reservations := clients.NewReservationClient(cfg.ReservationServiceURL, cfg.RemoteCallTimeout)
	payments := clients.NewPaymentClient(cfg.PaymentServiceURL, cfg.RemoteCallTimeout)

	// Services
	eventStoreService := services.NewEventStoreService(eventRepo, publisher, l)
	orchestrator := services.NewSagaOrchestrator(sagaStore, services.BookingSteps(reservations, payments), publisher, l)

	// Handlers
	eventStoreHandler := handler.NewEventStoreHandler(eventStoreService)
	sagaHandler := handler.NewSagaHandler(orchestrator)
	conflictHandler := handler.NewConflictHandler()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(l))
	r.Use(middleware.ErrorHandler(l))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"service":   "tickethub-core",
		})
	})

	api := r.Group("/api")
	{
		api.POST("/events", middleware.AppendRateLimitMiddleware(limiter), eventStoreHandler.Append)
		api.GET("/events", eventStoreHandler.ListAll)
		api.GET("/events/metrics", eventStoreHandler.Metrics)
		api.GET("/events/type/:eventType", eventStoreHandler.GetByType)
		api.GET("/events/aggregate/:aggregateId", eventStoreHandler.GetHistory)
		api.GET("/events/aggregate/:aggregateId/state", eventStoreHandler.Reconstruct)

		api.POST("/saga/booking", middleware.SagaRateLimitMiddleware(limiter), sagaHandler.StartBooking)
		api.GET("/saga/:sagaId", sagaHandler.GetStatus)
		api.GET("/saga", sagaHandler.ListAll)

		api.POST("/sync/conflict", conflictHandler.Resolve)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		l.Infof("starting server on port %s", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	l.Infof("shutting down, draining in-flight sagas")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Errorf("server shutdown: %v", err)
	}
	orchestrator.Drain()
}
