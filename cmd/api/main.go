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

	"github.com/go-redis/redis/v7"

	"budgetify/internal/config"
	"budgetify/internal/database"
	"budgetify/internal/ledger"
	"budgetify/internal/logger"
	"budgetify/internal/router"
	"budgetify/internal/scheduler"
	"budgetify/internal/services"
	"budgetify/internal/validator"
)

// @title           Budgetify API
// @version         1.0
// @description     Budgetify tracks cards, piggy banks and transactions, and posts subscriptions and obligations automatically on their due dates.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey APIKeyAuth
// @in header
// @name X-API-Key

const shutdownTimeout = 10 * time.Second

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	db := dbManager.DB()
	l := ledger.New(ledger.NewGormStore(db), log.Named("ledger"))
	notificationService := services.NewNotificationService(db, appConfig.Location)
	poster := ledger.NewPoster(l, appConfig.Location, log.Named("poster"), ledger.WithNotifier(notificationService))

	var rdb *redis.Client
	schedOpts := []scheduler.Option{}
	if appConfig.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     appConfig.RedisAddr,
			Password: appConfig.RedisPassword,
		})
		defer rdb.Close()
		// The lock outlives a normal run but expires if the holder dies.
		schedOpts = append(schedOpts, scheduler.WithLocker(
			scheduler.NewRedisLocker(rdb, scheduler.DefaultLockKey, appConfig.SchedulerInterval)))
		log.Infof("Scheduler lock shared through Redis at %s", appConfig.RedisAddr)
	}
	sched := scheduler.New(poster, log.Named("scheduler"), schedOpts...)

	engine := router.New(router.Deps{
		DB:            db,
		Ledger:        l,
		Runner:        sched,
		Redis:         rdb,
		PostingAPIKey: appConfig.PostingAPIKey,
		Notifications: notificationService,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if appConfig.SchedulerEnabled {
		go sched.Start(ctx, appConfig.SchedulerInterval)
	} else {
		log.Info("Scheduler disabled; trigger postings through the admin or internal API")
	}

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Budgetify server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
