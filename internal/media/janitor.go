package media

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vidtube/backend/internal/storage"
)

var cleanupOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "vidtube",
	Name:      "media_cleanup_total",
	Help:      "Orphaned media removals handled by the janitor, by outcome.",
}, []string{"outcome"})

// Deleter removes stored objects by URL.
type Deleter interface {
	Delete(ctx context.Context, url string) error
}

// JanitorConfig controls the concurrency and retry behaviour of the janitor.
type JanitorConfig struct {
	QueueSize   int
	Workers     int
	MaxAttempts int
	BaseBackoff time.Duration
}

// Janitor deletes orphaned media objects in the background, retrying failures
// with exponential backoff.
type Janitor struct {
	store  Deleter
	cfg    JanitorConfig
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	jobs   chan cleanupJob
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

type cleanupJob struct {
	url string
}

// NewJanitor starts the worker pool.
func NewJanitor(store Deleter, cfg JanitorConfig, logger *slog.Logger) *Janitor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 4
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &Janitor{
		store:  store,
		cfg:    cfg,
		logger: logger,
		jobs:   make(chan cleanupJob, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	j.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go j.worker()
	}
	return j
}

// Schedule queues url for deletion without waiting. A full queue drops the job and
// returns ErrJanitorFull.
func (j *Janitor) Schedule(ctx context.Context, url string) error {
	if url == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return ErrJanitorClosed
	}

	select {
	case j.jobs <- cleanupJob{url: url}:
		return nil
	default:
		cleanupOutcomes.WithLabelValues("dropped").Inc()
		j.logger.Error("media cleanup queue full, dropping job", "url", url)
		return ErrJanitorFull
	}
}

// Shutdown stops accepting work, lets workers finish queued jobs, and waits for
// them or for ctx.
func (j *Janitor) Shutdown(ctx context.Context) error {
	j.once.Do(func() {
		j.cancel()
		j.mu.Lock()
		j.closed = true
		close(j.jobs)
		j.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (j *Janitor) worker() {
	defer j.wg.Done()
	for job := range j.jobs {
		j.handle(job)
	}
}

func (j *Janitor) handle(job cleanupJob) {
	for attempt := 1; attempt <= j.cfg.MaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := j.store.Delete(ctx, job.url)
		cancel()
		if err == nil {
			cleanupOutcomes.WithLabelValues("removed").Inc()
			j.logger.Debug("orphaned media removed", "url", job.url, "attempt", attempt)
			return
		}
		if isPermanent(err) || attempt == j.cfg.MaxAttempts {
			cleanupOutcomes.WithLabelValues("abandoned").Inc()
			j.logger.Error("giving up on orphaned media", "url", job.url, "attempts", attempt, "error", err)
			return
		}
		cleanupOutcomes.WithLabelValues("retried").Inc()
		j.logger.Warn("orphaned media removal failed", "url", job.url, "attempt", attempt, "error", err)

		// After shutdown starts remaining retries run without delay.
		timer := time.NewTimer(j.backoff(attempt))
		select {
		case <-j.ctx.Done():
		case <-timer.C:
		}
		timer.Stop()
	}
}

func (j *Janitor) backoff(attempt int) time.Duration {
	d := j.cfg.BaseBackoff << (attempt - 1)
	if limit := 30 * time.Second; d > limit || d <= 0 {
		return limit
	}
	return d
}

// isPermanent reports deletion errors that retrying cannot fix.
func isPermanent(err error) bool {
	return errors.Is(err, storage.ErrForeignURL)
}
