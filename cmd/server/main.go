package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/onteraction0919-cmyk/asksystem/internal/broker"
	"github.com/onteraction0919-cmyk/asksystem/internal/config"
	"github.com/onteraction0919-cmyk/asksystem/internal/logging"
	"github.com/onteraction0919-cmyk/asksystem/internal/metrics"
	"github.com/onteraction0919-cmyk/asksystem/internal/questions"
	"github.com/onteraction0919-cmyk/asksystem/internal/router"
	"github.com/onteraction0919-cmyk/asksystem/internal/sentry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize structured logging
	logger := logging.Initialize(cfg.LogLevel)

	enabled, err := sentry.Init(sentry.Options{DSN: cfg.SentryDSN, Environment: cfg.SentryEnvironment})
	if err != nil {
		slog.Error("failed to initialize sentry", slog.Any("error", err))
		os.Exit(1)
	}
	if enabled {
		defer sentry.Flush(2 * time.Second)
	}

	// State lives for the process lifetime; a restart starts empty
	store := questions.NewStore(
		questions.WithMaxTextLength(cfg.MaxQuestionLength),
		questions.WithLogger(logger.With(slog.String("component", "questions"))),
	)
	b := broker.New()
	store.Subscribe(questions.MultiNotifier{b, metrics.NewStoreRecorder()})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(cfg, store, b),
		ReadHeaderTimeout: 10 * time.Second,
		// Streams end when their request context is cancelled
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", slog.String("addr", srv.Addr))
		slog.Info("attendees should open", slog.String("url", "http://localhost"+srv.Addr+"/ask"))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", slog.Any("error", err))
		}
	}
}
