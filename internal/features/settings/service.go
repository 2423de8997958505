package settings

import (
	"context"
	"sync"
	"time"
)

const generalCacheTTL = 5 * time.Minute

type SettingsService interface {
	GetGeneralConfig(ctx context.Context) (*GeneralConfig, error)
	UpdateGeneralConfig(ctx context.Context, config GeneralConfig) error
	GetLastSync(ctx context.Context) (*LastSyncStatus, error)
	SetLastSync(ctx context.Context, status LastSyncStatus) error
	Invalidate()
}

type SettingsServiceImpl struct {
	Repo SettingsRepository

	// Cached general config. Owned here, refreshed on TTL expiry, cleared by
	// Invalidate after writes.
	mu       sync.Mutex
	cached   *GeneralConfig
	cachedAt time.Time
}

func NewSettingsService(repo SettingsRepository) SettingsService {
	return &SettingsServiceImpl{Repo: repo}
}

func (s *SettingsServiceImpl) GetGeneralConfig(ctx context.Context) (*GeneralConfig, error) {
	s.mu.Lock()
	if s.cached != nil && time.Since(s.cachedAt) < generalCacheTTL {
		cfg := *s.cached
		s.mu.Unlock()
		return &cfg, nil
	}
	s.mu.Unlock()

	settings, err := s.Repo.GetByType(ctx, SettingsTypeGeneral)
	if err != nil {
		return nil, err
	}

	config := defaultGeneralConfig()
	if settings != nil && settings.General != nil {
		config = *settings.General
	}

	s.mu.Lock()
	s.cached = &config
	s.cachedAt = time.Now()
	s.mu.Unlock()

	result := config
	return &result, nil
}

func (s *SettingsServiceImpl) UpdateGeneralConfig(ctx context.Context, config GeneralConfig) error {
	err := s.Repo.Upsert(ctx, &Settings{
		Type:      SettingsTypeGeneral,
		General:   &config,
		UpdatedAt: time.Now(),
	})
	if err == nil {
		s.Invalidate()
	}
	return err
}

func (s *SettingsServiceImpl) GetLastSync(ctx context.Context) (*LastSyncStatus, error) {
	settings, err := s.Repo.GetByType(ctx, SettingsTypeSync)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, nil
	}
	return settings.LastSync, nil
}

func (s *SettingsServiceImpl) SetLastSync(ctx context.Context, status LastSyncStatus) error {
	return s.Repo.Upsert(ctx, &Settings{
		Type:      SettingsTypeSync,
		LastSync:  &status,
		UpdatedAt: time.Now(),
	})
}

// Invalidate drops the cached general config so the next read hits the store.
func (s *SettingsServiceImpl) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

func defaultGeneralConfig() GeneralConfig {
	return GeneralConfig{
		CashbackPercent:   7.5,
		CashbackStartDate: "2024-06-01",
	}
}
