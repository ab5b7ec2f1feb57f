package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bretbouchard/sandbox/internal/channel"
	"github.com/bretbouchard/sandbox/internal/editor"
	"github.com/bretbouchard/sandbox/internal/editor/headless"
	"github.com/bretbouchard/sandbox/internal/eventloop"
	"github.com/bretbouchard/sandbox/internal/infrastructure/config"
	"github.com/bretbouchard/sandbox/internal/infrastructure/monitoring"
	"github.com/bretbouchard/sandbox/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "editor:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	url := flag.String("url", cfg.Workspace.URL, "Workspace websocket URL")
	user := flag.String("user", cfg.Workspace.UserID, "User id")
	sandbox := flag.String("sandbox", cfg.Workspace.SandboxID, "Sandbox id")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development logging")
	flag.Parse()

	cfg.Workspace.URL = *url
	cfg.Workspace.UserID = *user
	cfg.Workspace.SandboxID = *sandbox
	cfg.Logging.Development = *dev

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)
	if cfg.Metrics.Addr != "" {
		go serveMetrics(ctx, cfg.Metrics.Addr, reg, logger)
	}

	loop := eventloop.New(0, logger)
	go func() {
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Event loop stopped", zap.Error(err))
		}
	}()
	defer loop.Close()

	chOpts := channel.OptionsFromConfig(cfg)
	chOpts.Executor = loop
	chOpts.Logger = logger.Component("channel")
	chOpts.Metrics = metrics
	client := channel.New(chOpts)

	opts, err := editor.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	opts.Logger = logger.Component("editor")
	opts.Metrics = metrics

	out := newPrinter(os.Stdout)
	widget := headless.NewWidget()
	sess := editor.NewSession(client, widget, widget, out, opts)

	var startErr error
	if err := loop.Do(ctx, func() { startErr = sess.Start(ctx) }); err != nil {
		return err
	}
	if startErr != nil {
		return startErr
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = loop.Do(closeCtx, func() {
			if err := sess.Close(); err != nil {
				logger.Warn("Failed to close session", zap.Error(err))
			}
		})
	}()

	r := &repl{
		session: sess,
		widget:  widget,
		out:     out,
		logger:  logger,
		run: func(fn func()) error {
			return loop.Do(ctx, fn)
		},
	}
	return r.serve(ctx, os.Stdin)
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	logger.Info("Serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("Metrics server failed", zap.Error(err))
	}
}
