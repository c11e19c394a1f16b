package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/toolshed-rental/service-booking/internal/application"
	"github.com/toolshed-rental/service-booking/internal/config"
	bookingDomain "github.com/toolshed-rental/service-booking/internal/domain/booking"
	bookingEvents "github.com/toolshed-rental/service-booking/internal/events"
	"github.com/toolshed-rental/service-booking/internal/handler"
	"github.com/toolshed-rental/service-booking/internal/jobs"
	"github.com/toolshed-rental/service-booking/internal/pkg/auth"
	"github.com/toolshed-rental/service-booking/internal/pkg/database"
	"github.com/toolshed-rental/service-booking/internal/pkg/health"
	"github.com/toolshed-rental/service-booking/internal/pkg/kafka"
	"github.com/toolshed-rental/service-booking/internal/pkg/logger"
	"github.com/toolshed-rental/service-booking/internal/pkg/middleware"
	"github.com/toolshed-rental/service-booking/internal/repository"
)

const serviceName = "service-booking"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
		zap.String("db_driver", cfg.DBConfig.Driver),
	)

	db, err := openDatabase(cfg, log)
	if err != nil {
		log.Fatal("failed to prepare database", zap.Error(err))
	}

	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.AccessTTL)

	// Kafka is optional for local runs.
	var publisher application.EventPublisher
	if cfg.KafkaConfig.Enabled() {
		kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		defer func() { _ = kafkaProducer.Close() }()
		publisher = kafkaProducer
	} else {
		log.Warn("no kafka brokers configured, booking events will not be published")
	}

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	toolRepo := repository.NewGormToolRepository(db)
	userRepo := repository.NewGormUserRepository(db)

	// Initialize pricing strategy
	depositPolicy, err := bookingDomain.DepositPolicyFromName(cfg.Pricing.DepositPolicy, cfg.Pricing.DepositPercent)
	if err != nil {
		log.Fatal("invalid deposit policy", zap.Error(err))
	}
	pricingStrategy := bookingDomain.NewStandardPricingStrategy(depositPolicy)
	log.Info("deposit policy selected", zap.String("policy", depositPolicy.Name()))

	// Initialize application services
	guard := application.NewAvailabilityGuard(bookingRepo)
	bookingService := application.NewBookingService(
		bookingRepo,
		toolRepo,
		userRepo,
		guard,
		pricingStrategy,
		publisher,
		log,
	)
	toolService := application.NewToolService(toolRepo, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Payment event consumer
	if cfg.KafkaConfig.Enabled() {
		groupID := cfg.KafkaConfig.GroupPrefix + "booking-service"
		paymentConsumer := bookingEvents.NewPaymentEventConsumer(
			cfg.KafkaConfig.Brokers,
			groupID,
			bookingService,
			log,
		)
		defer func() { _ = paymentConsumer.Close() }()

		go func() {
			log.Info("starting payment event consumer")
			if err := paymentConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("payment event consumer error", zap.Error(err))
			}
		}()
	}

	// Scheduled completion of elapsed bookings
	scheduler, err := jobs.NewScheduler(jobs.NewJobRunner(bookingService, log), cfg.Jobs.CompletionSchedule, log)
	if err != nil {
		log.Fatal("failed to create scheduler", zap.Error(err))
	}
	scheduler.Start()

	// Setup Gin router
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.CORSMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, serviceName)
	healthHandler.RegisterRoutes(router)

	// Register routes
	handler.NewBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewToolHandler(toolService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewAdminBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	// Stop background work before the server
	cancel()
	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-booking stopped")
}

// openDatabase connects to the configured store and brings its schema up to
// date: SQL migrations for postgres outside development, AutoMigrate otherwise.
func openDatabase(cfg *config.ServiceConfig, log *zap.Logger) (*gorm.DB, error) {
	if cfg.DBConfig.Driver == "sqlite" {
		db, err := database.ConnectSQLite(cfg.DBConfig.DSN, log)
		if err != nil {
			return nil, err
		}
		if err := repository.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
		return db, nil
	}

	pg := cfg.DBConfig.Postgres()
	db, err := database.Connect(pg, log)
	if err != nil {
		return nil, err
	}

	if cfg.IsDevelopment() {
		if err := repository.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
		log.Info("database migration completed (dev auto-migrate)")
		return db, nil
	}

	if err := database.RunMigrations(pg.DatabaseURL(), "migrations", log); err != nil {
		return nil, err
	}
	return db, nil
}
