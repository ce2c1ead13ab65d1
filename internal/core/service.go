package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/beb64/internal/config"
	"github.com/JonMunkholm/beb64/internal/transcode"
)

var (
	// ErrJobNotFound is returned for unknown or expired job ids.
	ErrJobNotFound = errors.New("job not found")

	// ErrFileTooLarge is returned when a job input exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrResultUnavailable is returned when downloading a job that has not
	// completed successfully.
	ErrResultUnavailable = errors.New("job result unavailable")
)

// Service runs transcode jobs in the background against spool files and
// publishes their progress.
type Service struct {
	jobsCfg  config.JobsConfig
	codecCfg config.CodecConfig
	mode     transcode.Mode
	spoolDir string

	history HistoryStore
	limiter *JobLimiter

	mu   sync.RWMutex
	jobs map[string]*job
}

type job struct {
	id        string
	direction Direction
	fileName  string
	inPath    string
	outPath   string
	cancel    context.CancelFunc
	done      chan struct{}

	mu        sync.Mutex
	progress  JobProgress
	result    *JobResult
	listeners []chan JobProgress
	lastSent  int
}

// NewService creates the job service. A nil history disables job history.
func NewService(history HistoryStore, cfg *config.Config) (*Service, error) {
	mode, err := transcode.ParseMode(strings.ToLower(cfg.Codec.DecodeMode))
	if err != nil {
		return nil, err
	}

	spoolDir := cfg.Jobs.SpoolDir
	if spoolDir == "" {
		spoolDir = filepath.Join(os.TempDir(), "beb64")
	}
	if err := os.MkdirAll(spoolDir, 0o700); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}

	if history == nil {
		history = NopHistory{}
	}

	return &Service{
		jobsCfg:  cfg.Jobs,
		codecCfg: cfg.Codec,
		mode:     mode,
		spoolDir: spoolDir,
		history:  history,
		limiter:  NewJobLimiter(cfg.Jobs.MaxConcurrent, cfg.Jobs.MaxWaitTime),
		jobs:     make(map[string]*job),
	}, nil
}

// DefaultJobOptions returns the configured codec defaults.
func (s *Service) DefaultJobOptions() JobOptions {
	return JobOptions{
		Mode:       s.mode,
		WrapColumn: s.codecCfg.WrapColumn,
	}
}

// DecodeMode returns the configured decode mode.
func (s *Service) DecodeMode() transcode.Mode {
	return s.mode
}

// MaxUploadSize is the largest accepted job input.
func (s *Service) MaxUploadSize() int64 {
	return s.jobsCfg.MaxUploadSize
}

// SniffSampleSize is the prefix length used to classify decode input.
func (s *Service) SniffSampleSize() int {
	return s.codecCfg.SniffSampleSize
}

// SpoolDir is where job inputs and results are kept.
func (s *Service) SpoolDir() string {
	return s.spoolDir
}

// LimiterStatus reports job slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForJobs blocks until running jobs finish or ctx ends.
func (s *Service) WaitForJobs(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// CancelAll cancels every running job.
func (s *Service) CancelAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, j := range s.jobs {
		j.cancel()
	}
}

// History returns recent finished jobs.
func (s *Service) History(ctx context.Context, limit int) ([]JobRecord, error) {
	return s.history.Recent(ctx, limit)
}

func (s *Service) lookup(id string) (*job, error) {
	s.mu.RLock()
	j, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return j, nil
}

// SubscribeProgress returns a channel of progress updates for a job. The
// current state is delivered first and the channel closes when the job
// ends. Updates are dropped for subscribers that fall behind.
func (s *Service) SubscribeProgress(id string) (<-chan JobProgress, error) {
	j, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	ch := make(chan JobProgress, 16)

	j.mu.Lock()
	defer j.mu.Unlock()

	ch <- j.progress
	if j.result != nil {
		close(ch)
		return ch, nil
	}
	j.listeners = append(j.listeners, ch)
	return ch, nil
}

// CancelJob stops a running job. Cancelling a finished job is a no-op.
func (s *Service) CancelJob(id string) error {
	j, err := s.lookup(id)
	if err != nil {
		return err
	}
	j.cancel()
	return nil
}

// JobResult waits for a job to finish and returns its result.
func (s *Service) JobResult(ctx context.Context, id string) (*JobResult, error) {
	j, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	select {
	case <-j.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result, nil
}

// JobProgress returns the latest progress without blocking.
func (s *Service) JobProgress(id string) (JobProgress, error) {
	j, err := s.lookup(id)
	if err != nil {
		return JobProgress{}, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	return j.progress, nil
}

// OpenResult opens the output of a completed job. The caller closes the file.
func (s *Service) OpenResult(id string) (*os.File, *JobResult, error) {
	j, err := s.lookup(id)
	if err != nil {
		return nil, nil, err
	}

	j.mu.Lock()
	res := j.result
	j.mu.Unlock()

	if res == nil {
		return nil, nil, fmt.Errorf("%w: job is still %s", ErrResultUnavailable, PhaseRunning)
	}
	if res.Phase != PhaseComplete {
		return nil, res, fmt.Errorf("%w: job %s", ErrResultUnavailable, res.Phase)
	}

	f, err := os.Open(j.outPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, res, fmt.Errorf("%w: %s", ErrJobNotFound, id)
		}
		return nil, res, fmt.Errorf("open result: %w", err)
	}
	return f, res, nil
}

// setPhase moves the job to phase and notifies listeners.
func (j *job) setPhase(phase JobPhase) {
	j.mu.Lock()
	j.progress.Phase = phase
	j.mu.Unlock()
	j.notify()
}

// reportProgress is the transcode progress callback. Listeners hear about
// whole-percent changes only.
func (j *job) reportProgress(pct float64) {
	j.mu.Lock()
	j.progress.Percent = pct
	whole := int(pct)
	changed := whole != j.lastSent
	j.lastSent = whole
	j.mu.Unlock()

	if changed {
		j.notify()
	}
}

// notify sends the current progress to every listener without blocking.
func (j *job) notify() {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, ch := range j.listeners {
		select {
		case ch <- j.progress:
		default:
		}
	}
}

// finish records the result, sends the final progress and closes listeners.
func (j *job) finish(res *JobResult) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.result = res
	j.progress.Phase = res.Phase
	j.progress.Error = res.Error
	j.progress.Code = res.Code
	if res.Phase == PhaseComplete {
		j.progress.Percent = 100
	}

	for _, ch := range j.listeners {
		select {
		case ch <- j.progress:
		default:
		}
		close(ch)
	}
	j.listeners = nil
	close(j.done)
}

// cleanup forgets the job and removes its output after delay.
func (s *Service) cleanup(j *job, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.jobs, j.id)
		s.mu.Unlock()

		if err := os.Remove(j.outPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to remove job result", "job_id", j.id, "error", err)
		}
	})
}
