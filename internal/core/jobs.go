package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/beb64/internal/logging"
	"github.com/JonMunkholm/beb64/internal/sniff"
	"github.com/JonMunkholm/beb64/internal/transcode"
	"github.com/google/uuid"
)

const (
	inputSuffix  = ".in"
	outputSuffix = ".out"
)

// StartEncode spools src and encodes it to Base64 in the background.
func (s *Service) StartEncode(ctx context.Context, fileName string, src io.Reader, opts JobOptions) (string, error) {
	return s.start(ctx, DirectionEncode, fileName, src, opts)
}

// StartDecode spools src and decodes it from Base64 in the background.
func (s *Service) StartDecode(ctx context.Context, fileName string, src io.Reader, opts JobOptions) (string, error) {
	return s.start(ctx, DirectionDecode, fileName, src, opts)
}

// StartJob dispatches on direction.
func (s *Service) StartJob(ctx context.Context, dir Direction, fileName string, src io.Reader, opts JobOptions) (string, error) {
	if _, err := ParseDirection(string(dir)); err != nil {
		return "", err
	}
	return s.start(ctx, dir, fileName, src, opts)
}

// start copies src into the spool directory while holding a job slot, then
// runs the transcode from the spooled file. Spooling first means the job
// never depends on the lifetime of the caller's reader (for example an HTTP
// request body) and gives progress a known total.
func (s *Service) start(ctx context.Context, dir Direction, fileName string, src io.Reader, opts JobOptions) (string, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	id := uuid.New().String()
	j := &job{
		id:        id,
		direction: dir,
		fileName:  filepath.Base(fileName),
		inPath:    filepath.Join(s.spoolDir, id+inputSuffix),
		outPath:   filepath.Join(s.spoolDir, id+outputSuffix),
		done:      make(chan struct{}),
		lastSent:  -1,
	}

	size, err := s.spool(j.inPath, src)
	if err != nil {
		s.limiter.Release()
		os.Remove(j.inPath)
		return "", err
	}

	jobCtx, cancel := context.WithTimeout(context.Background(), s.jobsCfg.Timeout)
	j.cancel = cancel
	j.progress = JobProgress{
		JobID:      id,
		Direction:  dir,
		FileName:   j.fileName,
		Phase:      PhaseQueued,
		BytesTotal: size,
	}

	s.mu.Lock()
	s.jobs[id] = j
	s.mu.Unlock()

	client := ClientFromContext(ctx)
	log := logging.WithFields(ctx, "job_id", id, "direction", dir, "file", j.fileName)
	log.Info("job accepted", "bytes", size)

	go func() {
		defer s.limiter.Release()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic in transcode job", "panic", r)
				s.complete(j, &JobResult{
					JobID:      id,
					Direction:  dir,
					FileName:   j.fileName,
					Phase:      PhaseFailed,
					FinishedAt: time.Now(),
					Error:      fmt.Sprintf("internal error: %v", r),
					Code:       defaultMessage.Code,
				}, client, log)
			}
		}()
		s.run(jobCtx, j, opts, client, log)
	}()

	return id, nil
}

// spool copies src to path, enforcing the upload size limit.
func (s *Service) spool(path string, src io.Reader) (int64, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, fmt.Errorf("create spool file: %w", err)
	}
	defer f.Close()

	limit := s.jobsCfg.MaxUploadSize
	n, err := io.Copy(f, io.LimitReader(src, limit+1))
	if err != nil {
		return n, fmt.Errorf("spool input: %w", err)
	}
	if n > limit {
		return n, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, limit)
	}
	if err := f.Close(); err != nil {
		return n, fmt.Errorf("spool input: %w", err)
	}
	return n, nil
}

func (s *Service) run(ctx context.Context, j *job, opts JobOptions, client ClientInfo, log *slog.Logger) {
	started := time.Now()
	j.setPhase(PhaseRunning)

	res := &JobResult{
		JobID:     j.id,
		Direction: j.direction,
		FileName:  j.fileName,
		StartedAt: started,
	}

	topts := transcode.Options{
		ChunkSize:   s.jobsCfg.ChunkSize,
		Progress:    j.reportProgress,
		Mode:        opts.Mode,
		RequireText: opts.RequireText,
		WrapColumn:  opts.WrapColumn,
		Logger:      log,
	}

	var err error
	switch j.direction {
	case DirectionEncode:
		res.OutputName = sniff.EncodedName(j.fileName)
		res.Stats, err = transcode.EncodeFile(ctx, j.inPath, j.outPath, topts)
	case DirectionDecode:
		hint := s.classify(j.inPath, log)
		res.Hint = hint
		ext := ".bin"
		if hint != nil {
			ext = hint.Extension
		}
		res.OutputName = sniff.DecodedName(j.fileName, ext)
		res.Stats, err = transcode.DecodeFile(ctx, j.inPath, j.outPath, topts)
	}

	res.FinishedAt = time.Now()
	res.Duration = res.FinishedAt.Sub(started)

	switch {
	case err == nil:
		res.Phase = PhaseComplete
		log.Info("job complete",
			"bytes_in", res.Stats.BytesRead,
			"bytes_out", res.Stats.BytesWritten,
			"invalid_bytes", res.Stats.InvalidBytes,
			"duration_ms", res.Duration.Milliseconds(),
		)
	case errors.Is(err, transcode.ErrCancelled) && !errors.Is(err, context.DeadlineExceeded):
		res.Phase = PhaseCancelled
		log.Info("job cancelled", "bytes_in", res.Stats.BytesRead)
	default:
		res.Phase = PhaseFailed
		log.Warn("job failed", "error", err)
	}

	if err != nil {
		msg := MapError(err)
		res.Error = err.Error()
		res.Code = msg.Code
		os.Remove(j.outPath + transcode.PartialSuffix)
	}

	s.complete(j, res, client, log)
}

// complete publishes the result, records history and schedules cleanup.
func (s *Service) complete(j *job, res *JobResult, client ClientInfo, log *slog.Logger) {
	os.Remove(j.inPath)
	j.finish(res)

	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()
	if err := s.history.Record(ctx, recordFor(res, client)); err != nil {
		log.Warn("failed to record job history", "error", err)
	}

	s.cleanup(j, s.jobsCfg.Retention)
}

// classify samples the spooled decode input for an output-name hint.
func (s *Service) classify(path string, log *slog.Logger) *sniff.Classification {
	f, err := os.Open(path)
	if err != nil {
		log.Warn("classify input", "error", err)
		return nil
	}
	defer f.Close()

	c, err := sniff.Classify(f, s.codecCfg.SniffSampleSize)
	if err != nil {
		log.Warn("classify input", "error", err)
		return nil
	}
	return &c
}
