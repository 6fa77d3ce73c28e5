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

	"github.com/spf13/pflag"

	"github.com/conorfennell/lingodeck/internal/auth"
	"github.com/conorfennell/lingodeck/internal/catalog"
	"github.com/conorfennell/lingodeck/internal/config"
	"github.com/conorfennell/lingodeck/internal/review"
	"github.com/conorfennell/lingodeck/internal/storage"
	"github.com/conorfennell/lingodeck/internal/sync"
	"github.com/conorfennell/lingodeck/internal/web"
)

const usage = `usage: lingodeck [serve|check-catalog] [flags]

Commands:
  serve          run the HTTP API (default)
  check-catalog  load the catalog and report what was found
`

func main() {
	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 && (args[0] == "serve" || args[0] == "check-catalog") {
		cmd, args = args[0], args[1:]
	}

	flags := config.NewFlagSet("lingodeck")
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}
	cfg, err := config.Load(flags, args)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "lingodeck: %v\n", err)
		os.Exit(2)
	}

	log := newLogger(cfg.Log)
	slog.SetDefault(log)

	switch cmd {
	case "check-catalog":
		os.Exit(checkCatalog(cfg))
	default:
		if err := serve(cfg, log); err != nil {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// checkCatalog prints a summary of the catalog, or the reason it could not
// be loaded.
func checkCatalog(cfg *config.Config) int {
	path := cfg.CatalogPath()
	c, skipped, err := catalog.LoadPath(path)
	if err != nil {
		fmt.Printf("Catalog %s could not be loaded: %v\n", path, err)
		return 1
	}

	fmt.Printf("Found %d sets, %d cards, %d topics, %d errors in %s.\n", len(c.Sets), c.Len(), len(c.Topics), len(skipped), path)
	for _, set := range c.Sets {
		fmt.Printf("- %s (%s): %d cards\n", set.ID, set.Name, len(set.Cards))
	}
	if len(skipped) > 0 {
		fmt.Println("\nErrors:")
		for _, e := range skipped {
			fmt.Printf("- %v\n", e)
		}
		return 1
	}
	return 0
}

func serve(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.DB.MaxOpen)
	log.Info("database opened", "driver", cfg.DB.Driver)

	var catalogSync web.CatalogSyncer
	if cfg.Git.URL != "" {
		refresher := sync.NewRefresher(cfg.Git.URL, cfg.Git.Dir, cfg.Git.Interval, log)
		if err := refresher.Start(ctx); err != nil {
			return err
		}
		defer refresher.Stop()
		catalogSync = refresher
	}

	provider := catalog.NewFileProvider(cfg.CatalogPath(), cfg.Catalog.TTL, log)
	server := web.NewServer(web.Deps{
		DB:        db,
		Auth:      auth.NewService(db, cfg.Session.TTL, log),
		Catalog:   provider,
		Scheduler: review.NewScheduler(db, log),
		Selector:  review.NewSelector(db, provider, log),
		Tracker:   review.NewTracker(db),
		Logger:    log,

		CatalogSync:   catalogSync,
		SecureCookies: cfg.HTTP.SecureCookies,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.HTTP.Addr, "catalog", cfg.CatalogPath())
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
