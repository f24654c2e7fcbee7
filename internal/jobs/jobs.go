package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"whistlebox/internal/applog"
	"whistlebox/internal/ids"
	"whistlebox/internal/metrics"
	"whistlebox/internal/service"
)

const (
	JobSweep = "sweep"
	JobDrain = "drain"
)

var (
	ErrUnknownJob = errors.New("jobs: unknown job")
	// ErrBusy is returned by RunNow while the same job is running.
	ErrBusy = errors.New("jobs: job already running")
)

// Func is one run of a job.
type Func func(ctx context.Context) error

type job struct {
	name     string
	interval time.Duration
	run      Func
	mu       sync.Mutex
}

// Scheduler runs named jobs at fixed intervals until its context is
// cancelled. Runs of the same job never overlap.
type Scheduler struct {
	log     *applog.Logger
	metrics *metrics.Lifecycle
	jobs    map[string]*job
	order   []string
	wg      sync.WaitGroup
}

func New(log *applog.Logger, m *metrics.Lifecycle) *Scheduler {
	return &Scheduler{log: log, metrics: m, jobs: map[string]*job{}}
}

// Add registers a job. It must be called before Start.
func (s *Scheduler) Add(name string, interval time.Duration, fn Func) error {
	if interval <= 0 {
		return fmt.Errorf("jobs: %s: interval must be positive", name)
	}
	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("jobs: %s: already registered", name)
	}
	s.jobs[name] = &job{name: name, interval: interval, run: fn}
	s.order = append(s.order, name)
	return nil
}

// Start launches one goroutine per job and returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	for _, name := range s.order {
		j := s.jobs[name]
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.loop(ctx, j)
		}()
	}
	s.log.Info("jobs_started", map[string]any{"jobs": s.order})
}

// Wait blocks until every job loop has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// RunNow runs a job synchronously outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	j, ok := s.jobs[name]
	if !ok {
		return ErrUnknownJob
	}
	return s.execute(ctx, j)
}

func (s *Scheduler) loop(ctx context.Context, j *job) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.execute(ctx, j); err != nil && !errors.Is(err, ErrBusy) {
				s.log.Error("job_failed", err, map[string]any{"job": j.name})
			}
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, j *job) error {
	if !j.mu.TryLock() {
		return ErrBusy
	}
	defer j.mu.Unlock()

	start := time.Now()
	err := j.run(ctx)
	s.metrics.JobRun(j.name, time.Since(start), err)
	return err
}

// Sweep returns the expiration sweep job.
func Sweep(l service.LifecycleService, clock ids.Clock) Func {
	return func(ctx context.Context) error {
		_, err := l.Sweep(ctx, clock.Now())
		return err
	}
}

// Drain returns the secure delete job.
func Drain(sd service.SecureDeleteService, batch int) Func {
	return func(ctx context.Context) error {
		_, err := sd.Drain(ctx, batch)
		return err
	}
}
