// internal/workers/housekeeping.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/preloved-be/internal/core/ports"
)

// CleanupConfig sets what housekeeping removes. Keep lists directories
// under TempDir that are never swept, such as locally stored images.
type CleanupConfig struct {
	TempDir      string
	TempMaxAge   time.Duration
	JobRetention time.Duration
	Keep         []string
}

// Housekeeper prunes stale uploads and finished import jobs.
type Housekeeper struct {
	jobs   ports.JobRepository
	cfg    CleanupConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewHousekeeper(jobs ports.JobRepository, cfg CleanupConfig, logger *slog.Logger) *Housekeeper {
	if cfg.TempMaxAge <= 0 {
		cfg.TempMaxAge = 24 * time.Hour
	}
	if cfg.JobRetention <= 0 {
		cfg.JobRetention = 30 * 24 * time.Hour
	}
	return &Housekeeper{
		jobs:   jobs,
		cfg:    cfg,
		logger: logger.With(slog.String("processor", "housekeeping")),
		now:    time.Now,
	}
}

// PruneJobs handles TypeCleanupOldJobs.
func (h *Housekeeper) PruneJobs(ctx context.Context, _ *asynq.Task) error {
	cutoff := h.now().Add(-h.cfg.JobRetention)
	n, err := h.jobs.DeleteFinishedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune import jobs: %w", err)
	}
	h.logger.InfoContext(ctx, "import jobs pruned", slog.Int64("deleted", n), slog.Time("cutoff", cutoff))
	return nil
}

// SweepUploads handles TypeCleanupTempFiles. Files older than TempMaxAge
// are removed and directories left empty by that are removed too. A
// missing TempDir is not an error.
func (h *Housekeeper) SweepUploads(ctx context.Context, _ *asynq.Task) error {
	root := h.cfg.TempDir
	if root == "" {
		return nil
	}

	cutoff := h.now().Add(-h.cfg.TempMaxAge)
	var removed, failed int
	var dirs []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil
		case err != nil:
			return err
		case ctx.Err() != nil:
			return ctx.Err()
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if h.kept(root, path) {
				return filepath.SkipDir
			}
			dirs = append(dirs, path)
			return nil
		}

		info, err := d.Info()
		if err != nil || info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			failed++
			h.logger.WarnContext(ctx, "could not remove stale upload",
				slog.String("file", path), slog.String("error", err.Error()))
			return nil
		}
		removed++
		return nil
	})
	if err != nil {
		return fmt.Errorf("sweep %s: %w", root, err)
	}

	// deepest first so parents see their children gone
	slices.Reverse(dirs)
	for _, dir := range dirs {
		_ = os.Remove(dir) // fails unless empty
	}

	h.logger.InfoContext(ctx, "uploads swept", slog.Int("removed", removed), slog.Int("failed", failed))
	return nil
}

func (h *Housekeeper) kept(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	return slices.Contains(h.cfg.Keep, rel)
}
