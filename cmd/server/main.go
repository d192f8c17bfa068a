package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-booking-engine/internal/cache"
	"github.com/iliyamo/hotel-booking-engine/internal/config"
	"github.com/iliyamo/hotel-booking-engine/internal/database"
	"github.com/iliyamo/hotel-booking-engine/internal/handler"
	"github.com/iliyamo/hotel-booking-engine/internal/middleware"
	"github.com/iliyamo/hotel-booking-engine/internal/port"
	"github.com/iliyamo/hotel-booking-engine/internal/pricing"
	"github.com/iliyamo/hotel-booking-engine/internal/queue"
	"github.com/iliyamo/hotel-booking-engine/internal/repository"
	"github.com/iliyamo/hotel-booking-engine/internal/router"
	"github.com/iliyamo/hotel-booking-engine/internal/service"
)

func newLogger(env string) (*zap.Logger, error) {
	if env == "prod" || env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger config depends on cfg; fall back to a production logger
		zap.Must(zap.NewProduction()).Fatal("load config", zap.Error(err))
	}
	logger, err := newLogger(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := database.Open(cfg.DB)
	if err != nil {
		logger.Fatal("connect mysql", zap.String("host", cfg.DB.Host), zap.Error(err))
	}
	defer db.Close()
	if cfg.DB.AutoMigrate {
		if err := database.Migrate(context.Background(), db); err != nil {
			logger.Fatal("migrate schema", zap.Error(err))
		}
	}
	store := repository.NewStore(db, repository.Options{LockWait: cfg.DB.LockWait, TxTimeout: cfg.DB.TxTimeout})

	// Redis is optional: without it rate limiting and idempotency keys are off.
	rdb := config.NewRedisClient(cfg.Redis)
	var idem port.IdempotencyStore
	if rdb != nil {
		defer rdb.Close()
		idem = cache.NewRedisIdempotency(rdb, cfg.Redis.IdempotencyTTL)
	} else {
		logger.Warn("redis unavailable; rate limiting and idempotency keys disabled", zap.String("addr", cfg.Redis.Address()))
	}

	var events port.EventPublisher = port.NopPublisher{}
	if cfg.Events.Enabled {
		pub, err := queue.NewPublisher(cfg.Events.URL, cfg.Events.Exchange, logger)
		if err != nil {
			logger.Warn("rabbitmq unavailable; booking events disabled", zap.Error(err))
		} else {
			defer pub.Close()
			events = pub
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup
	if cfg.Events.AuditConsumer {
		consumer := queue.NewAuditConsumer(cfg.Events.URL, cfg.Events.Exchange, cfg.Events.AuditQueue, cfg.Events.AuditLogPath, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("audit consumer stopped", zap.Error(err))
			}
		}()
	}

	retry := service.RetryPolicy{MaxAttempts: cfg.Ledger.MaxAttempts, Backoff: cfg.Ledger.RetryBackoff}
	ledger := service.NewLedger(store, events, service.LedgerConfig{
		Rates: pricing.Rates{Tax: cfg.Pricing.TaxRate, Commission: cfg.Pricing.CommissionRate},
		Retry: retry,
	}, logger.Named("ledger"))
	lifecycle := service.NewLifecycle(store, ledger, events, retry, logger.Named("lifecycle"))
	h := handler.NewBookingHandler(ledger, lifecycle, service.NewBookings(store), service.NewResolver(store), idem, logger.Named("http"))

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger.Named("access")))
	router.RegisterRoutes(e, db)
	router.RegisterBookings(e, h, cfg.JWTSecret, cfg.RateLimit, rdb, logger.Named("ratelimit"))

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	cancel()
	wg.Wait()
	logger.Info("stopped")
}
