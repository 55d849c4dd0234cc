package storage

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/meetfood/backend/internal/logging"
)

// BlobDeleter removes a stored blob by category and key.
type BlobDeleter interface {
	Delete(ctx context.Context, category Category, key string) error
}

// CleanerConfig controls the concurrency characteristics of the cleaner.
type CleanerConfig struct {
	QueueSize int
	Workers   int
}

// Cleaner performs best-effort blob deletions off the request path. The
// primary flow enqueues the old key after it has decided success; whether
// the delete later fails is visible only in the logs, never in the
// response. Orphaned blobs from dropped jobs are an accepted limitation.
type Cleaner struct {
	deleter BlobDeleter
	logger  *slog.Logger

	jobs chan cleanupJob
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

type cleanupJob struct {
	category Category
	key      string
}

var errCleanerClosed = errors.New("blob cleaner closed")

const cleanupTimeout = 30 * time.Second

// NewCleaner starts a background worker pool that deletes blobs.
func NewCleaner(deleter BlobDeleter, cfg CleanerConfig, logger *slog.Logger) *Cleaner {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Cleaner{
		deleter: deleter,
		logger:  logger,
		jobs:    make(chan cleanupJob, cfg.QueueSize),
	}

	c.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go c.worker()
	}

	return c
}

// Enqueue schedules deletion of the blob stored under key. The error only
// reports scheduling failures; the deletion outcome itself is logged by
// the worker.
func (c *Cleaner) Enqueue(ctx context.Context, category Category, key string) error {
	if key == "" {
		return nil
	}

	// The jobs channel is closed during shutdown; the read lock keeps the
	// close from racing an in-flight send.
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errCleanerClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case c.jobs <- cleanupJob{category: category, key: key}:
		return nil
	}
}

// Shutdown waits for the worker pool to drain outstanding jobs.
func (c *Cleaner) Shutdown(ctx context.Context) error {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.jobs)
		c.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (c *Cleaner) worker() {
	defer c.wg.Done()

	for job := range c.jobs {
		c.handleJob(job)
	}
}

func (c *Cleaner) handleJob(job cleanupJob) {
	if c.deleter == nil {
		c.logger.Error("blob cleaner missing deleter", "category", string(job.category), "key", job.key)
		return
	}

	ctx := logging.WithLogger(context.Background(), c.logger)
	ctx, span := logging.StartSpan(ctx, "blob cleanup")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, cleanupTimeout)
	defer cancel()

	if err := c.deleter.Delete(ctx, job.category, job.key); err != nil {
		logging.FromContext(ctx).Error("blob cleanup failed",
			"category", string(job.category), "key", job.key, "error", err)
		return
	}

	logging.FromContext(ctx).Info("blob cleaned up",
		"category", string(job.category), "key", job.key)
}
