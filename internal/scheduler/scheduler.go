// Package scheduler runs the periodic jobs of the bot on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is one unit of scheduled work. The context is cancelled when the
// scheduler stops.
type Job func(ctx context.Context) error

// Recorder receives the result of every job run.
type Recorder interface {
	JobRun(job string, success bool, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) JobRun(string, bool, time.Duration) {}

// Scheduler wraps a cron runner. Runs of the same job never overlap.
type Scheduler struct {
	cron     *cron.Cron
	log      zerolog.Logger
	recorder Recorder
	ctx      context.Context
	cancel   context.CancelFunc
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger of job runs.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) { s.log = l.With().Str("component", "scheduler").Logger() }
}

// WithRecorder sets the recorder of job results.
func WithRecorder(r Recorder) Option {
	return func(s *Scheduler) { s.recorder = r }
}

// WithLocation interprets schedules in loc.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.cron = cron.New(cron.WithLocation(loc)) }
}

// New creates a stopped scheduler.
func New(opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:     cron.New(),
		log:      zerolog.Nop(),
		recorder: nopRecorder{},
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers job under spec, a standard five-field cron expression or a
// descriptor such as "@every 10m".
func (s *Scheduler) Add(name, spec string, job Job) error {
	wrapped := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		s.Run(name, job)
	}))
	if _, err := s.cron.AddJob(spec, wrapped); err != nil {
		return fmt.Errorf("failed to add job %q: %w", name, err)
	}
	s.log.Info().Str("job", name).Str("spec", spec).Msg("job scheduled")
	return nil
}

// Run executes job once, outside of its schedule, and records the result.
func (s *Scheduler) Run(name string, job Job) {
	started := time.Now()
	err := job(s.ctx)
	elapsed := time.Since(started)
	s.recorder.JobRun(name, err == nil, elapsed)
	if err != nil {
		s.log.Error().Err(err).Str("job", name).Dur("elapsed", elapsed).Msg("job failed")
		return
	}
	s.log.Info().Str("job", name).Dur("elapsed", elapsed).Msg("job finished")
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}
