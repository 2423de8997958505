package cron_feature

import (
	"fmt"

	"lavpop-sync/internal/config"
	sync_feature "lavpop-sync/internal/features/sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CronService runs the nightly customer sync on the configured schedule.
type CronService interface {
	Start() error
	Stop()
	NextRun() string
}

type CronServiceImpl struct {
	syncService sync_feature.SyncService
	schedule    string
	scheduler   *cron.Cron
	log         *zap.Logger
}

func NewCronService(syncService sync_feature.SyncService, cfg *config.Config, log *zap.Logger) CronService {
	return &CronServiceImpl{
		syncService: syncService,
		schedule:    cfg.SyncSchedule,
		log:         log,
	}
}

func (s *CronServiceImpl) Start() error {
	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", s.schedule, err)
	}

	s.scheduler = cron.New()
	_, err := s.scheduler.AddFunc(s.schedule, func() {
		s.log.Info("Scheduled sync triggered", zap.String("schedule", s.schedule))
		s.syncService.RunBackground("scheduled")
	})
	if err != nil {
		return fmt.Errorf("failed to register sync job: %w", err)
	}

	s.scheduler.Start()
	s.log.Info("Sync scheduler started", zap.String("schedule", s.schedule))
	return nil
}

func (s *CronServiceImpl) Stop() {
	if s.scheduler != nil {
		ctx := s.scheduler.Stop()
		<-ctx.Done()
		s.log.Info("Sync scheduler stopped")
	}
}

func (s *CronServiceImpl) NextRun() string {
	if s.scheduler == nil {
		return ""
	}
	entries := s.scheduler.Entries()
	if len(entries) == 0 {
		return ""
	}
	return entries[0].Next.Format("2006-01-02 15:04:05")
}
