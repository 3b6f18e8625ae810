package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/trendscope/skilltrends/internal/collection"
	"github.com/trendscope/skilltrends/internal/config"
)

// Service handles scheduling of collection and aggregation runs
type Service struct {
	config     *config.Config
	collection *collection.Service
	cron       *cron.Cron
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, collectionService *collection.Service) *Service {
	return &Service{
		config:     cfg,
		collection: collectionService,
		cron:       cron.New(cron.WithSeconds()),
	}
}

// Start begins the scheduled collection cycles
func (s *Service) Start() error {
	var cronExpression string

	switch s.config.CollectionSchedule {
	case "daily":
		// Run daily at 9 AM UTC
		cronExpression = "0 0 9 * * *"
	case "weekly":
		// Run weekly on Monday at 9 AM UTC
		cronExpression = "0 0 9 * * MON"
	default:
		cronExpression = "0 0 9 * * *"
	}

	_, err := s.cron.AddFunc(cronExpression, func() {
		logrus.Info("Starting scheduled collection run")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if _, err := s.collection.RunFull(ctx); err != nil {
			logrus.Errorf("Scheduled collection run failed: %v", err)
		}
	})

	if err != nil {
		return err
	}

	// Aggregate trend snapshots daily at 3 AM UTC, after the overnight
	// collections have landed
	_, err = s.cron.AddFunc("0 0 3 * * *", func() {
		logrus.Info("Starting scheduled trend aggregation")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := s.collection.AggregateTrends(ctx, ""); err != nil {
			logrus.Errorf("Scheduled trend aggregation failed: %v", err)
		}
	})

	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with %s collection schedule (trend aggregation daily at 3 AM UTC)", s.config.CollectionSchedule)
	return nil
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		logrus.Info("Scheduler stopped")
	}
}
