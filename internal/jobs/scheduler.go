package jobs

import (
	"context"
	"time"

	"event-ticketing/internal/config"
	"event-ticketing/internal/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const jobTimeout = time.Minute

type SessionPurger interface {
	PurgeClosedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type EventCompleter interface {
	CompleteEnded(ctx context.Context) (int, error)
}

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	cron     *cron.Cron
	cfg      config.JobsConfig
	sessions SessionPurger
	events   EventCompleter
	now      func() time.Time
}

func NewScheduler(cfg config.JobsConfig, sessions SessionPurger, events EventCompleter) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		cfg:      cfg,
		sessions: sessions,
		events:   events,
		now:      time.Now,
	}
}

// Start registers the jobs with a non-empty schedule and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.cfg.SessionPurgeSchedule != "" && s.sessions != nil {
		if _, err := s.cron.AddFunc(s.cfg.SessionPurgeSchedule, func() { s.PurgeSessions(context.Background()) }); err != nil {
			return err
		}
	}
	if s.cfg.EventCompletionSchedule != "" && s.events != nil {
		if _, err := s.cron.AddFunc(s.cfg.EventCompletionSchedule, func() { s.CompleteEvents(context.Background()) }); err != nil {
			return err
		}
	}

	s.cron.Start()
	logger.Info("Background jobs started",
		zap.String("session_purge_schedule", s.cfg.SessionPurgeSchedule),
		zap.String("event_completion_schedule", s.cfg.EventCompletionSchedule),
	)
	return nil
}

// Stop waits for running jobs to finish, up to ctx's deadline.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
		logger.Info("Background jobs stopped")
	case <-ctx.Done():
		logger.Warn("Background jobs did not stop in time")
	}
}

// PurgeSessions deletes sessions closed longer ago than the retention period.
func (s *Scheduler) PurgeSessions(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	cutoff := s.now().Add(-s.cfg.SessionRetention)
	purged, err := s.sessions.PurgeClosedBefore(ctx, cutoff)
	if err != nil {
		logger.Error("Failed to purge closed sessions", zap.Error(err))
		return
	}

	logger.Debug("Closed sessions purged",
		zap.Int64("purged", purged),
		zap.Time("cutoff", cutoff),
	)
}

func (s *Scheduler) CompleteEvents(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	completed, err := s.events.CompleteEnded(ctx)
	if err != nil {
		logger.Error("Failed to complete ended events", zap.Error(err))
		return
	}

	if completed > 0 {
		logger.Info("Ended events completed",
			zap.Int("count", completed),
			logger.Event("events_completed"),
		)
	}
}
