// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

// Package scheduler runs the periodic background jobs: feed refresh, session
// index pruning, and the upcoming-deadline digest.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Kalfadda/indiecraft/internal/pkg/logger"
)

// Job is a unit of periodic work. Run is invoked on the job's cron schedule
// with a context that is cancelled when the scheduler stops.
type Job interface {
	Name() string
	Schedule() string
	Run(ctx context.Context) error
}

// Config holds scheduler configuration.
type Config struct {
	// JobTimeout bounds a single job run.
	JobTimeout time.Duration
}

// DefaultConfig returns default scheduler configuration.
func DefaultConfig() *Config {
	return &Config{
		JobTimeout: 5 * time.Minute,
	}
}

// Scheduler drives registered jobs on their cron schedules.
type Scheduler struct {
	config *Config
	cron   *cron.Cron
	logger *logger.Logger

	mu      sync.Mutex
	running bool
	jobs    map[string]cron.EntryID

	// lifecycleCtx is the context passed to Start. Job runs derive their
	// timeout from it so in-flight work is cancelled on shutdown.
	lifecycleCtx context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// New creates a scheduler. Jobs are registered with Register before Start.
func New(config *Config, log *logger.Logger) *Scheduler {
	if config == nil {
		config = DefaultConfig()
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Scheduler{
		config: config,
		cron: cron.New(
			cron.WithChain(cron.Recover(cron.DefaultLogger)),
		),
		logger: log.Named("scheduler"),
		jobs:   make(map[string]cron.EntryID),
	}
}

// Register adds a job to the schedule. Registering after Start is an error.
func (s *Scheduler) Register(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, err := s.cron.AddFunc(job.Schedule(), func() { s.runJob(job) })
	if err != nil {
		return err
	}
	s.jobs[job.Name()] = entryID

	s.logger.Info("registered job", "job", job.Name(), "schedule", job.Schedule())
	return nil
}

// Start begins executing jobs. It returns immediately; jobs run on the cron
// goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	s.lifecycleCtx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
	s.running = true

	s.logger.Info("scheduler started", "jobs", len(s.jobs))
}

// Stop halts scheduling and waits for in-flight jobs, up to the deadline of
// ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	cronDone := s.cron.Stop().Done()

	done := make(chan struct{})
	go func() {
		<-cronDone
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow executes a registered job immediately, outside its schedule.
func (s *Scheduler) RunNow(name string) bool {
	s.mu.Lock()
	entryID, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return false
	}
	s.cron.Entry(entryID).Job.Run()
	return true
}

// Jobs returns the registered job names.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

func (s *Scheduler) runJob(job Job) {
	s.mu.Lock()
	parent := s.lifecycleCtx
	s.mu.Unlock()
	if parent == nil {
		parent = context.Background()
	}

	s.wg.Add(1)
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(parent, s.config.JobTimeout)
	defer cancel()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Error("job failed", "job", job.Name(), "error", err, "duration", time.Since(start))
		return
	}
	s.logger.Debug("job finished", "job", job.Name(), "duration", time.Since(start))
}
