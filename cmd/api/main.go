package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/csrdesk/internal/app"
	"github.com/markdave123-py/csrdesk/internal/config"
	"github.com/markdave123-py/csrdesk/internal/logger"
)

func main() {
	// Handle SIGINT/SIGTERM for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	application, err := app.NewApp(ctx, cfg, log)
	if err != nil {
		log.Fatal("startup failed", "err", err)
	}
	defer application.Close()

	g, gctx := errgroup.WithContext(ctx)

	ingestor := application.Components.Ingestor
	ingestor.Start(gctx, cfg.IngestWorkers)
	g.Go(func() error {
		<-gctx.Done()
		ingestor.Wait()
		return nil
	})

	g.Go(application.Server.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return application.Server.Shutdown(shutdownCtx)
	})

	log.Info("csrdesk is running", "port", cfg.Port, "workers", cfg.IngestWorkers)
	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "err", err)
		return
	}
	log.Info("shut down cleanly")
}
