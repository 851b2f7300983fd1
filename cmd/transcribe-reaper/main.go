package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudvid/transcriber-service/internal/config"
	"github.com/cloudvid/transcriber-service/internal/storage/postgres"
)

// Reaper fails video records stuck in processing longer than the configured
// TTL. Lost webhooks and abandoned pollers otherwise leave records
// processing forever.
type Reaper struct {
	storage  *postgres.Postgres
	ttl      time.Duration
	interval time.Duration
	logger   *slog.Logger
}

func NewReaper(storage *postgres.Postgres, ttl, interval time.Duration) *Reaper {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	return &Reaper{
		storage:  storage,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
	}
}

func (rp *Reaper) Start(ctx context.Context) {
	ticker := time.NewTicker(rp.interval)
	defer ticker.Stop()

	rp.logger.Info("Transcription reaper started",
		"ttl", rp.ttl.String(),
		"interval", rp.interval.String())

	// Run once immediately on startup
	rp.reapStuckRecords()

	for {
		select {
		case <-ctx.Done():
			rp.logger.Info("Transcription reaper shutting down")
			return
		case <-ticker.C:
			rp.reapStuckRecords()
		}
	}
}

func (rp *Reaper) reapStuckRecords() {
	startTime := time.Now()

	count, err := rp.storage.FailStaleProcessing(rp.ttl)
	if err != nil {
		rp.logger.Error("Failed to reap stuck records",
			"error", err.Error(),
			"duration_ms", time.Since(startTime).Milliseconds())
		return
	}

	if count > 0 {
		rp.logger.Info("Failed stuck transcriptions",
			"records_failed", count,
			"duration_ms", time.Since(startTime).Milliseconds())
	}
}

func main() {
	cfg := config.MustLoad()

	storage, err := postgres.NewPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	slog.Info("Connected to Postgres database")

	reaper := NewReaper(storage, time.Duration(cfg.Worker.ProcessingTTL)*time.Minute, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("Received shutdown signal")
		cancel()
	}()

	reaper.Start(ctx)

	slog.Info("Transcription reaper stopped")
}
