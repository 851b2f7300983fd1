// Package jobs runs the poll-driven transcription lifecycle as detached
// background tasks, so the transcribe request handler never blocks for the
// duration of a provider job.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cloudvid/transcriber-service/internal/services/transcribe"
	"github.com/cloudvid/transcriber-service/internal/types"
)

// Store is the slice of storage the runner needs to settle a job.
type Store interface {
	CompleteTranscription(id, transcript string) error
	FailTranscription(id string) error
}

// Notifier pushes a status change to the record's owner.
type Notifier interface {
	PublishVideoStatus(userID, videoID string, status types.Status)
}

// Runner polls batch transcription jobs on a fixed interval until they
// settle. One poller per record id; duplicate Track calls are dropped.
type Runner struct {
	store    Store
	provider transcribe.PolledProvider
	notifier Notifier
	interval time.Duration
	timeout  time.Duration

	mu       sync.Mutex
	inflight map[string]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRunner(store Store, provider transcribe.PolledProvider, notifier Notifier, interval, timeout time.Duration) *Runner {
	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		store:    store,
		provider: provider,
		notifier: notifier,
		interval: interval,
		timeout:  timeout,
		inflight: make(map[string]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Track starts polling a job in the background. A record that is already
// being polled is left alone.
func (r *Runner) Track(videoID, userID, jobID string) {
	r.mu.Lock()
	if _, ok := r.inflight[videoID]; ok {
		r.mu.Unlock()
		return
	}
	r.inflight[videoID] = struct{}{}
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			r.mu.Lock()
			delete(r.inflight, videoID)
			r.mu.Unlock()
		}()

		r.poll(videoID, userID, jobID)
	}()
}

func (r *Runner) poll(videoID, userID, jobID string) {
	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Shutdown or job deadline. The reaper will eventually fail
			// records the poller abandoned.
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				r.fail(videoID, userID)
			}
			return
		case <-ticker.C:
			result, err := r.provider.Poll(ctx, jobID)
			if err != nil {
				slog.Error("Transcription poll failed",
					slog.String("video_id", videoID),
					slog.String("job_id", jobID),
					slog.String("error", err.Error()))
				continue
			}

			switch result.State {
			case transcribe.JobCompleted:
				if err := r.store.CompleteTranscription(videoID, result.Transcript); err != nil {
					slog.Error("Failed to persist transcript",
						slog.String("video_id", videoID),
						slog.String("error", err.Error()))
					return
				}
				r.notifier.PublishVideoStatus(userID, videoID, types.StatusTranscribed)
				slog.Info("Transcription completed", slog.String("video_id", videoID))
				return
			case transcribe.JobFailed:
				r.fail(videoID, userID)
				return
			}
			// still running, keep polling
		}
	}
}

func (r *Runner) fail(videoID, userID string) {
	if err := r.store.FailTranscription(videoID); err != nil {
		slog.Error("Failed to mark transcription failed",
			slog.String("video_id", videoID),
			slog.String("error", err.Error()))
		return
	}
	r.notifier.PublishVideoStatus(userID, videoID, types.StatusFailed)
	slog.Info("Transcription failed", slog.String("video_id", videoID))
}

// Shutdown cancels all pollers and waits for them to exit, up to the
// context deadline.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
