package scheduler

import (
	"github.com/aegis-sec/aegis-analyzer/internal/config"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Watcher runs one pass over the watch list
type Watcher interface {
	RunWatch() error
}

// Service handles scheduling of watch list runs
type Service struct {
	config  *config.Config
	watcher Watcher
	cron    *cron.Cron
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, watcher Watcher) *Service {
	return &Service{
		config:  cfg,
		watcher: watcher,
		cron:    cron.New(cron.WithSeconds()),
	}
}

// Start schedules the watch list on WATCH_SCHEDULE. Nothing is scheduled when
// the watch list is empty.
func (s *Service) Start() error {
	if len(s.config.WatchVideos) == 0 {
		logrus.Info("Watch list empty, scheduler idle")
		return nil
	}

	_, err := s.cron.AddFunc(s.config.WatchSchedule, func() {
		logrus.Info("Starting scheduled watch run")
		if err := s.watcher.RunWatch(); err != nil {
			logrus.Errorf("Scheduled watch run failed: %v", err)
		}
	})

	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with %q schedule for %d videos", s.config.WatchSchedule, len(s.config.WatchVideos))
	return nil
}

// Entries reports how many jobs are scheduled
func (s *Service) Entries() int {
	return len(s.cron.Entries())
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}
