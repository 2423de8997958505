package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lavpop-sync/internal/config"
	"lavpop-sync/internal/features/customer"
	"lavpop-sync/internal/features/notification"
	"lavpop-sync/internal/features/settings"
	"lavpop-sync/internal/features/whatchimp"

	"go.uber.org/zap"
)

// ErrCustomerNotFound is returned by SyncCustomer when neither doc nor phone
// matches a customer.
var ErrCustomerNotFound = errors.New("customer not found")

// SubscriberLister pages through the CRM's subscriber list.
type SubscriberLister interface {
	ListSubscribers(ctx context.Context, page, limit int) ([]whatchimp.Subscriber, error)
}

// Broadcaster pushes progress events to connected dashboard clients.
type Broadcaster interface {
	Broadcast(event interface{})
}

type SyncService interface {
	SyncAll(ctx context.Context) (*RunReport, error)
	SyncCustomer(ctx context.Context, doc, phone string) (*customer.Customer, *CustomerResult, error)
	RunBackground(trigger string)
	ListSubscribers(ctx context.Context, page, limit int) ([]whatchimp.Subscriber, error)
	LastStatus(ctx context.Context) (*settings.LastSyncStatus, error)
	ListLogs(ctx context.Context, limit int64) ([]SyncLog, error)
}

type SyncServiceImpl struct {
	CustomerRepo customer.CustomerRepository
	CRM          CRMClient
	Lister       SubscriberLister
	LogRepo      SyncLogRepository
	Settings     settings.SettingsService
	Notifier     notification.NotificationService
	Hub          Broadcaster
	Log          *zap.Logger

	concurrency int
}

func NewSyncService(
	cfg *config.Config,
	customerRepo customer.CustomerRepository,
	crm *whatchimp.Client,
	logRepo SyncLogRepository,
	settingsService settings.SettingsService,
	notifier notification.NotificationService,
	hub Broadcaster,
	log *zap.Logger,
) SyncService {
	return &SyncServiceImpl{
		CustomerRepo: customerRepo,
		CRM:          crm,
		Lister:       crm,
		LogRepo:      logRepo,
		Settings:     settingsService,
		Notifier:     notifier,
		Hub:          hub,
		Log:          log,
		concurrency:  cfg.SyncConcurrency,
	}
}

// loadTargets reads the customer snapshot and reduces it to the syncable
// set: blacklist filtering first, then phone deduplication. Both steps finish
// before any network call is issued.
func (s *SyncServiceImpl) loadTargets(ctx context.Context) ([]customer.Customer, []Duplicate, error) {
	customers, err := s.CustomerRepo.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load customers: %w", err)
	}

	blacklist, err := s.CustomerRepo.ListBlacklist(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load blacklist: %w", err)
	}

	filtered := FilterBlacklisted(customers, blacklist)
	deduped, duplicates := Deduplicate(filtered)
	return deduped, duplicates, nil
}

func (s *SyncServiceImpl) SyncAll(ctx context.Context) (*RunReport, error) {
	start := time.Now()

	targets, duplicates, err := s.loadTargets(ctx)
	if err != nil {
		return nil, err
	}

	s.Log.Info("Starting customer sync",
		zap.Int("customers", len(targets)),
		zap.Int("duplicates_resolved", len(duplicates)))

	pipeline := NewPipeline(s.CRM, s.concurrency, s.Log)
	results := pipeline.Run(ctx, targets, nil)

	report := &RunReport{
		Summary:    Tally(results, duplicates),
		Results:    results,
		Duplicates: duplicates,
		Duration:   time.Since(start),
	}

	s.Log.Info("Customer sync finished",
		zap.Int("total", report.Summary.Total),
		zap.Int("created", report.Summary.Created),
		zap.Int("updated", report.Summary.Updated),
		zap.Int("failed", report.Summary.Failed),
		zap.Duration("duration", report.Duration))

	return report, nil
}

func (s *SyncServiceImpl) SyncCustomer(ctx context.Context, doc, phone string) (*customer.Customer, *CustomerResult, error) {
	var target *customer.Customer
	var err error

	if doc != "" {
		target, err = s.CustomerRepo.GetByDoc(ctx, doc)
	} else {
		target, err = s.CustomerRepo.GetByPhone(ctx, phone)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if target == nil {
		return nil, nil, ErrCustomerNotFound
	}

	pipeline := NewPipeline(s.CRM, 1, s.Log)
	results := pipeline.Run(ctx, []customer.Customer{*target}, nil)
	return target, &results[0], nil
}

// RunBackground starts a full sync in a goroutine and returns immediately.
// Intended for runs too long for an HTTP timeout: progress goes to the log
// and the websocket hub, the final tally overwrites the last_sync settings
// record.
func (s *SyncServiceImpl) RunBackground(trigger string) {
	runLog := &SyncLog{
		Trigger:   trigger,
		StartTime: time.Now(),
		Status:    "in_progress",
	}
	if err := s.LogRepo.Create(context.Background(), runLog); err != nil {
		s.Log.Warn("Failed to create sync log", zap.Error(err))
	}

	go func() {
		ctx := context.Background()
		start := time.Now()

		targets, duplicates, err := s.loadTargets(ctx)
		if err != nil {
			s.Log.Error("Background sync aborted", zap.Error(err))
			runLog.Status = "failed"
			runLog.Error = err.Error()
			runLog.EndTime = time.Now()
			_ = s.LogRepo.Update(ctx, runLog)
			return
		}

		lastLogged := 0
		onProgress := func(processed, total int) {
			s.Hub.Broadcast(ProgressEvent{
				Type:      "sync_progress",
				Trigger:   trigger,
				Processed: processed,
				Total:     total,
			})
			if processed-lastLogged >= 100 || processed == total {
				s.Log.Info("Sync progress",
					zap.Int("processed", processed),
					zap.Int("total", total))
				lastLogged = processed
			}
		}

		pipeline := NewPipeline(s.CRM, s.concurrency, s.Log)
		results := pipeline.Run(ctx, targets, onProgress)

		summary := Tally(results, duplicates)
		duration := time.Since(start)

		runLog.Status = "success"
		if summary.Failed > 0 {
			runLog.Status = "failed"
		}
		runLog.EndTime = time.Now()
		runLog.Total = summary.Total
		runLog.Created = summary.Created
		runLog.Updated = summary.Updated
		runLog.Failed = summary.Failed
		runLog.DuplicatesResolved = summary.DuplicatesResolved
		if err := s.LogRepo.Update(ctx, runLog); err != nil {
			s.Log.Warn("Failed to update sync log", zap.Error(err))
		}

		status := settings.LastSyncStatus{
			Timestamp:          time.Now(),
			Total:              summary.Total,
			Created:            summary.Created,
			Updated:            summary.Updated,
			Failed:             summary.Failed,
			DuplicatesResolved: summary.DuplicatesResolved,
			DurationMs:         duration.Milliseconds(),
			Trigger:            trigger,
		}
		if err := s.Settings.SetLastSync(ctx, status); err != nil {
			s.Log.Warn("Failed to persist last sync status", zap.Error(err))
		}

		s.Hub.Broadcast(ProgressEvent{
			Type:      "sync_finished",
			Trigger:   trigger,
			Processed: summary.Total,
			Total:     summary.Total,
		})
		s.Notifier.NotifySyncFinished(ctx, trigger,
			summary.Total, summary.Created, summary.Updated, summary.Failed, duration)

		s.Log.Info("Background sync finished",
			zap.String("trigger", trigger),
			zap.Int("total", summary.Total),
			zap.Int("failed", summary.Failed),
			zap.Duration("duration", duration))
	}()
}

func (s *SyncServiceImpl) ListSubscribers(ctx context.Context, page, limit int) ([]whatchimp.Subscriber, error) {
	return s.Lister.ListSubscribers(ctx, page, limit)
}

func (s *SyncServiceImpl) LastStatus(ctx context.Context) (*settings.LastSyncStatus, error) {
	return s.Settings.GetLastSync(ctx)
}

func (s *SyncServiceImpl) ListLogs(ctx context.Context, limit int64) ([]SyncLog, error) {
	return s.LogRepo.List(ctx, limit)
}
