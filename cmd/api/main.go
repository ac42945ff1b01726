package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skyplan/internal/api"
	"skyplan/internal/buildinfo"
	"skyplan/internal/config"
	"skyplan/internal/log"
	"skyplan/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	lg := log.New(cfg.LogLevel, cfg.LogDir)
	if lg.LogFile != "" {
		fmt.Fprintf(os.Stderr, "logging to %s\n", lg.LogFile)
	}
	metrics.RegisterDefault()

	srvDeps, err := api.NewServer(cfg, lg)
	if err != nil {
		lg.Error("failed to init server", slog.Any("err", err))
		os.Exit(1)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           srvDeps.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	lg.Info("API listening", slog.String("addr", addr), slog.Any("build", buildinfo.Info()))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.Error("server error", slog.Any("err", err))
		os.Exit(1)
	}
	lg.Info("API stopped")
}
