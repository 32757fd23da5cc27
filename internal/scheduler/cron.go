package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/amaumene/plexdigest/internal/controllers"
	"github.com/amaumene/plexdigest/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DigestRunner performs one digest run
type DigestRunner interface {
	Run(ctx context.Context, opts controllers.RunOptions) (*models.Digest, error)
	Running() bool
}

// Scheduler manages the scheduled digest job
type Scheduler struct {
	cron       *cron.Cron
	runner     DigestRunner
	schedule   string
	runOnStart bool
	logger     *logrus.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a new scheduler
func NewScheduler(runner DigestRunner, schedule string, runOnStart bool, logger *logrus.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:       cron.New(),
		runner:     runner,
		schedule:   schedule,
		runOnStart: runOnStart,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start registers the digest job and starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.WithField("schedule", s.schedule).Info("Starting scheduler")

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.runDigest()
	})
	if err != nil {
		return fmt.Errorf("failed to add digest job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")

	if s.runOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.logger.Info("Running initial digest")
			s.runDigest()
		}()
	}

	return nil
}

// Stop stops the scheduler, cancels a running digest and waits for it to return
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

// Trigger starts an unscheduled digest run in the background.
// It returns ErrRunInProgress when a run is already active.
func (s *Scheduler) Trigger() error {
	if s.runner.Running() {
		return controllers.ErrRunInProgress
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info("Running triggered digest")
		s.runDigest()
	}()
	return nil
}

// runDigest executes the digest job
func (s *Scheduler) runDigest() {
	s.logger.Info("Running scheduled digest")

	digest, err := s.runner.Run(s.ctx, controllers.RunOptions{})
	if errors.Is(err, controllers.ErrRunInProgress) {
		s.logger.Warn("Previous digest still running, skipping")
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("Digest job failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"movies": digest.MovieCount,
		"shows":  digest.ShowCount,
	}).Info("Digest job completed successfully")
}

// NextRun returns the next scheduled run time, zero before Start
func (s *Scheduler) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
