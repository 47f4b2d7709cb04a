package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/walkup/printq/internal/db"
	"github.com/walkup/printq/internal/files"
)

// Sweeper periodically deletes stored files for jobs that are finished or
// older than the retention threshold. Rows are never deleted; when a
// non-completed job loses its file the row is marked EXPIRED so its
// status stays truthful.
type Sweeper struct {
	jobs     *db.JobStore
	files    *files.Store
	interval time.Duration
	maxAge   time.Duration
	logger   *slog.Logger
	stopCh   chan struct{}
	mu       sync.Mutex
}

type Config struct {
	Interval time.Duration
	MaxAge   time.Duration
}

func New(jobs *db.JobStore, fileStore *files.Store, cfg Config, logger *slog.Logger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = time.Hour
	}

	return &Sweeper{
		jobs:     jobs,
		files:    fileStore,
		interval: cfg.Interval,
		maxAge:   cfg.MaxAge,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	go s.run()
}

func (s *Sweeper) Stop() {
	close(s.stopCh)
}

func (s *Sweeper) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			// One failed cycle must not take down the loop.
			if err := s.Sweep(context.Background()); err != nil {
				s.logger.Error("sweep cycle failed", "error", err)
			}
		}
	}
}

// Sweep runs a single retention pass. Individual file deletions are
// best-effort; a failure on one job is logged and the pass continues.
func (s *Sweeper) Sweep(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, err := s.jobs.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list jobs for sweep: %w", err)
	}

	now := time.Now().UTC()
	deleted := 0
	expired := 0

	for _, job := range jobs {
		if job.Status == db.StatusExpired {
			continue
		}

		age := now.Sub(job.CreatedAt)
		if job.Status != db.StatusCompleted && age <= s.maxAge {
			continue
		}

		removed, err := s.files.Remove(job.FilePath)
		if err != nil {
			s.logger.Error("failed to delete job file",
				"job_id", job.ID, "file", job.FilePath, "error", err)
			continue
		}
		if removed {
			deleted++
		}

		if job.Status != db.StatusCompleted {
			if _, err := s.jobs.UpdateStatus(ctx, job.ID, db.StatusExpired); err != nil {
				s.logger.Error("failed to mark job expired", "job_id", job.ID, "error", err)
				continue
			}
			expired++
		}
	}

	if deleted > 0 || expired > 0 {
		s.logger.Info("retention sweep finished", "files_deleted", deleted, "jobs_expired", expired)
	}

	return nil
}
