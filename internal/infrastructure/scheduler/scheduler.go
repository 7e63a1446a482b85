package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nutripace/backend/internal/domain/challenge"
	"github.com/nutripace/backend/pkg/logger"
)

type Scheduler struct {
	challengeService challenge.Service
	logger           *logger.Logger
}

func NewScheduler(challengeService challenge.Service, logger *logger.Logger) *Scheduler {
	return &Scheduler{
		challengeService: challengeService,
		logger:           logger,
	}
}

func (s *Scheduler) Start() {
	// Run immediately at startup
	s.runProgressRefresh()

	// Calculate time until next midnight
	now := time.Now()
	nextMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
	timeUntilMidnight := nextMidnight.Sub(now)

	s.logger.Info("Challenge scheduler initialized",
		zap.Time("current_time", now),
		zap.Time("next_run", nextMidnight),
		zap.Duration("time_until_next_run", timeUntilMidnight),
	)

	go func() {
		// Wait until first midnight
		time.Sleep(timeUntilMidnight)

		// Then run every 24 hours
		ticker := time.NewTicker(24 * time.Hour)
		for range ticker.C {
			s.runProgressRefresh()
		}
	}()
}

// runProgressRefresh recomputes derived aggregates for every active
// challenge. The midnight run matters for streaks: a day with no log
// must drop the current streak to zero without any user interaction.
func (s *Scheduler) runProgressRefresh() {
	ctx := context.Background()
	startTime := time.Now()

	s.logger.Info("Starting daily challenge progress refresh", zap.Time("start_time", startTime))

	refreshed, err := s.challengeService.RefreshAllActiveProgress(ctx)
	if err != nil {
		s.logger.Error("Failed to refresh challenge progress",
			zap.Error(err),
		)
	} else {
		s.logger.Info("Successfully refreshed challenge progress",
			zap.Int64("refreshed_count", refreshed),
		)
	}

	s.logger.Info("Completed daily challenge progress refresh",
		zap.Time("end_time", time.Now()),
		zap.Duration("duration", time.Since(startTime)),
	)
}
