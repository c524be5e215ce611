// Package scheduler drives the engine's scan cadence.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/scanner"
)

// Scheduler triggers scan cycles and per-source polls, each on its own
// cadence. The engine itself skips overlapping scan triggers, so the
// scheduler fires unconditionally.
type Scheduler struct {
	cron   *cron.Cron
	engine *scanner.Engine
	log    *logrus.Logger

	mu        sync.RWMutex
	isRunning bool
	jobIDs    []cron.EntryID

	// immediate holds every registered job in registration order; Start
	// runs them once so the first cycle has data without waiting a full
	// interval.
	immediate []func()
}

// New creates a scheduler for the given engine.
func New(engine *scanner.Engine, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		engine: engine,
		log:    log,
		jobIDs: make([]cron.EntryID, 0),
	}
}

// ScheduleScans registers the recurring scan job. Intervals below five
// seconds are clamped; a cycle needs room to finish.
func (s *Scheduler) ScheduleScans(interval time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	if interval < 5*time.Second {
		interval = 5 * time.Second
	}

	jobFunc := func() {
		if err := s.engine.Scan(context.Background()); err != nil {
			s.log.WithError(err).Warn("scheduled scan cycle failed")
		}
	}

	entryID, err := s.cron.AddFunc(fmt.Sprintf("@every %ds", int(interval.Seconds())), jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add scan job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.immediate = append(s.immediate, jobFunc)
	s.log.WithField("interval", interval).Info("scheduled recurring scan")

	return nil
}

// SchedulePoll registers a recurring fetch job for one source. Each source
// polls on its own cadence and failure domain, so a slow or dead source
// never holds back the others. Intervals below one second are clamped.
func (s *Scheduler) SchedulePoll(source string, interval time.Duration, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	if interval < time.Second {
		interval = time.Second
	}

	entryID, err := s.cron.AddFunc(fmt.Sprintf("@every %ds", int(interval.Seconds())), job)
	if err != nil {
		return fmt.Errorf("failed to add poll job for %s: %w", source, err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.immediate = append(s.immediate, job)
	s.log.WithFields(logrus.Fields{
		"source":   source,
		"interval": interval,
	}).Info("scheduled source poll")

	return nil
}

// Start starts the scheduler and fires every registered job once, in
// registration order, so polls fill the store before the first scan and the
// engine publishes without waiting a full interval.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.log.WithField("jobs", len(s.jobIDs)).Info("scheduler started")

	jobs := s.immediate
	go func() {
		for _, job := range jobs {
			job()
		}
	}()

	return nil
}

// Stop waits for any in-flight job to finish, then stops the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	<-s.cron.Stop().Done()
	s.isRunning = false
	s.log.Info("scheduler stopped")

	return nil
}

// IsRunning returns whether the scheduler is currently running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the time of the next scheduled scan.
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	next := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() && (next.IsZero() || entry.Next.Before(next)) {
			next = entry.Next
		}
	}
	return next
}
