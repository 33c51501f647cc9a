package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// jobTimeout bounds a single run of any job
const jobTimeout = 30 * time.Second

// Scheduler runs periodic maintenance jobs
type Scheduler struct {
	cron *cron.Cron
	log  *logrus.Logger
}

// New creates a scheduler; overlapping runs of the same job are skipped
func New(log *logrus.Logger) *Scheduler {
	logger := cron.PrintfLogger(log)
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		)),
		log: log,
	}
}

// AddJob registers fn under a cron spec such as "@every 1h" or "0 9 * * *"
func (s *Scheduler) AddJob(name, spec string, fn func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() { s.run(name, fn) })
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}
	s.log.Infof("Scheduled job %s: %s", name, spec)
	return nil
}

func (s *Scheduler) run(name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if err := fn(ctx); err != nil {
		s.log.WithField("job", name).Errorf("Job failed: %v", err)
		return
	}
	s.log.WithFields(logrus.Fields{"job": name, "took": time.Since(start).String()}).Debug("Job finished")
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and returns a context done when running jobs complete
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Len returns the number of registered jobs
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}
