package core

// scheduler.go removes spool files left behind by crashed or abandoned jobs.
//
// Finished jobs clean up after themselves once their retention expires, but a
// restart loses those timers. The sweeper catches what is left over: any file
// in the spool directory older than MaxAge whose job id is not live.

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/beb64/internal/config"
	"github.com/JonMunkholm/beb64/internal/transcode"
)

// StartSpoolSweeper sweeps the spool directory immediately and then every
// cfg.Interval until ctx is cancelled.
func (s *Service) StartSpoolSweeper(ctx context.Context, cfg config.SweepConfig) {
	slog.Info("spool sweeper started",
		"dir", s.spoolDir,
		"interval", cfg.Interval,
		"max_age", cfg.MaxAge,
	)

	s.sweepSpool(cfg.MaxAge)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("spool sweeper stopped")
			return
		case <-ticker.C:
			s.sweepSpool(cfg.MaxAge)
		}
	}
}

// sweepSpool performs one pass and returns the number of files removed.
func (s *Service) sweepSpool(maxAge time.Duration) int {
	start := time.Now()

	entries, err := os.ReadDir(s.spoolDir)
	if err != nil {
		slog.Error("spool sweep failed", "error", err)
		return 0
	}

	removed := 0
	cutoff := start.Add(-maxAge)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if s.isLive(spoolJobID(e.Name())) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(s.spoolDir, e.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to remove spool file", "path", path, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		slog.Info("swept spool files",
			"files_removed", removed,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return removed
}

// spoolJobID returns the job id a spool file name belongs to.
func spoolJobID(name string) string {
	name = strings.TrimSuffix(name, transcode.PartialSuffix)
	for _, suffix := range []string{inputSuffix, outputSuffix} {
		if id, ok := strings.CutSuffix(name, suffix); ok {
			return id
		}
	}
	return name
}

func (s *Service) isLive(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.jobs[id]
	return ok
}
