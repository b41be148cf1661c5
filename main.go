package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cristian-franco-ml/Hotel-v2/config"
	"github.com/cristian-franco-ml/Hotel-v2/events"
	"github.com/cristian-franco-ml/Hotel-v2/scraper"
	"github.com/cristian-franco-ml/Hotel-v2/server"
	"github.com/cristian-franco-ml/Hotel-v2/services"
	"github.com/cristian-franco-ml/Hotel-v2/storage"
	"github.com/cristian-franco-ml/Hotel-v2/utils"
)

func main() {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "hotelscraper.json5"
	}
	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := utils.NewLogger(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("service stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("hotel price service starting",
		"addr", cfg.HTTPAddr,
		"store", cfg.StoreBackend,
		"horizon_days", cfg.HorizonDays,
		"ranges", cfg.Ranges,
		"concurrency", cfg.Concurrency,
		"workers", cfg.Workers,
		"targets", len(cfg.Targets),
	)

	store, err := storage.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	allocCtx, cancelAlloc := utils.NewAllocator(context.Background(), cfg)
	defer cancelAlloc()
	browser, err := scraper.NewChromeBrowser(allocCtx, logger)
	if err != nil {
		return err
	}
	defer browser.Close()

	var users storage.UserDirectory
	if dir, ok := store.(storage.UserDirectory); ok {
		users = dir
	}
	jobs := services.NewJobs(browser, events.NewCollector(cfg, logger), store, users, cfg, logger)

	sched, err := services.NewScheduler(cfg.Timezone, logger)
	if err != nil {
		return err
	}
	if len(cfg.Targets) > 0 {
		err := sched.Add(ctx, cfg.Schedule, func(ctx context.Context) {
			for _, r := range jobs.Scheduled(ctx) {
				logger.Info("scheduled job done", "job", r.Job, "ok", r.OK, "saved", r.Saved, "error", r.Error)
			}
		})
		if err != nil {
			return err
		}
		sched.Start()
		if next, ok := sched.Next(); ok {
			logger.Info("scheduler running", "spec", cfg.Schedule, "next", next)
		}
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.New(jobs, store, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sched.Stop(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}
