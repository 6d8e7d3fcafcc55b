package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/booking-resolver/internal/app"
	"github.com/iliyamo/booking-resolver/internal/config"
	"github.com/iliyamo/booking-resolver/internal/handler"
	"github.com/iliyamo/booking-resolver/internal/logging"
	"github.com/iliyamo/booking-resolver/internal/middleware"
	"github.com/iliyamo/booking-resolver/internal/queue"
	"github.com/iliyamo/booking-resolver/internal/router"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.IsProduction())
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("startup", zap.Error(err))
	}
	defer a.Close()

	if cfg.RabbitURL != "" {
		consumer := queue.NewAuditConsumer(cfg.RabbitURL, os.Getenv("AUDIT_LOG_DIR"), log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit consumer stopped", zap.Error(err))
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(log))

	router.RegisterRoutes(e)
	router.RegisterBookings(e,
		handler.NewBookingHandler(a.Resolver, a.Engine),
		handler.NewPaymentHandler(a.Ledger),
		middleware.ResponseCache(config.LoadCacheConfig(), a.Redis))
	router.RegisterDiagnostics(e,
		handler.NewDiagnosticsHandler(a.Diag),
		cfg.JWTSecret,
		middleware.RateLimit(config.LoadRateLimitConfig(), a.Redis, log))

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env),
			zap.Strings("ledger_sources", a.Ledger.Sources()))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
