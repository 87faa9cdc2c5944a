// Package maintenance runs the scheduled cleanup jobs: purging stories
// marked for deletion and sweeping sessions whose story is gone.
package maintenance

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Cleaner is the persistence slice the jobs operate on.
type Cleaner interface {
	PurgeDeletedStories() (int64, error)
	SweepOrphanSessions() (int64, error)
}

// Scheduler owns the cron runner.
type Scheduler struct {
	cron    *cron.Cron
	cleaner Cleaner
}

// Opts holds parameters for creating a Scheduler.
type Opts struct {
	Cleaner Cleaner
	// Spec is a 5-field cron expression for when cleanup runs,
	// e.g. "0 4 * * *" for daily at 04:00.
	Spec string
}

// New creates a Scheduler with the cleanup job registered.
func New(opts Opts) (*Scheduler, error) {
	if opts.Cleaner == nil {
		return nil, fmt.Errorf("maintenance: cleaner is required")
	}
	if opts.Spec == "" {
		return nil, fmt.Errorf("maintenance: cron spec is required")
	}

	s := &Scheduler{cron: cron.New(), cleaner: opts.Cleaner}
	if _, err := s.cron.AddFunc(opts.Spec, s.runCleanup); err != nil {
		return nil, fmt.Errorf("maintenance: schedule %q: %w", opts.Spec, err)
	}
	return s, nil
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// runCleanup executes one cleanup pass. Failures are logged; the next
// scheduled run will try again.
func (s *Scheduler) runCleanup() {
	purged, err := s.cleaner.PurgeDeletedStories()
	if err != nil {
		log.Printf("maintenance: purge stories: %v", err)
	} else if purged > 0 {
		log.Printf("maintenance: purged %d deleted stories", purged)
	}

	swept, err := s.cleaner.SweepOrphanSessions()
	if err != nil {
		log.Printf("maintenance: sweep sessions: %v", err)
	} else if swept > 0 {
		log.Printf("maintenance: swept %d orphaned sessions", swept)
	}
}
