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

	"github.com/joho/godotenv"

	"github.com/linkrot/deadlink-finder/internal/dashboard"
	"github.com/linkrot/deadlink-finder/internal/deadlink"
	"github.com/linkrot/deadlink-finder/internal/platform/config"
	"github.com/linkrot/deadlink-finder/internal/platform/logger"
	"github.com/linkrot/deadlink-finder/internal/platform/middleware"
	"github.com/linkrot/deadlink-finder/internal/store"
	"github.com/linkrot/deadlink-finder/internal/wiki"
)

const (
	whoisTimeout    = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	// Optional .env for local runs; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("dead link finder starting",
		"results_file", cfg.ResultsFile,
		"domains_file", cfg.DomainsFile,
		"concurrency", cfg.CheckConcurrency,
	)

	resultStore := store.Open(cfg.ResultsFile, cfg.DomainsFile, log)

	prober := deadlink.NewProber(whoisTimeout)
	checker := deadlink.NewChecker(cfg.CheckConcurrency, prober, resultStore, log)
	wikiClient := wiki.NewClient(cfg.WikipediaBaseURL)
	finder := deadlink.NewFinder(
		deadlink.NewPageClient(),
		checker,
		resultStore,
		wikiClient,
		cfg.CheckConcurrency,
		cfg.ArticleDelay,
		log,
	)

	service := dashboard.NewService(finder, wikiClient, log)
	transport := dashboard.NewTransport(service, resultStore, cfg.MaxPages, log)

	mux := http.NewServeMux()
	transport.RegisterRoutes(mux)

	handler := middleware.RequestID(middleware.Logging(log)(mux))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		// No WriteTimeout: crawl endpoints legitimately run for
		// minutes; the per-handler context timeouts bound them.
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "port", cfg.Port)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error("shutdown failed", "error", err)
			os.Exit(1)
		}
	}
}
