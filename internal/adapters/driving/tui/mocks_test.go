package tui

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driving"
)

// MockSyncEngine implements driving.SyncEngine for testing.
type MockSyncEngine struct {
	ListStatusFunc func(ctx context.Context) ([]domain.SourceStatus, error)
	StatusFunc     func(ctx context.Context, id string) (*domain.SourceStatus, error)
	SyncFunc       func(ctx context.Context, id string, opts driving.SyncOptions) (*driving.SyncReport, error)
	PauseFunc      func(ctx context.Context, id string) error
	ResumeFunc     func(ctx context.Context, id string) error
	ResetFunc      func(ctx context.Context, id string) error
}

func (m *MockSyncEngine) ShouldSync(context.Context, string, time.Time) (bool, error) {
	return false, nil
}

func (m *MockSyncEngine) Sync(ctx context.Context, id string, opts driving.SyncOptions) (*driving.SyncReport, error) {
	if m.SyncFunc != nil {
		return m.SyncFunc(ctx, id, opts)
	}
	return &driving.SyncReport{SourceID: id, Mode: opts.Mode}, nil
}

func (m *MockSyncEngine) SyncAll(context.Context) ([]driving.SyncReport, error) {
	return nil, nil
}

func (m *MockSyncEngine) Pause(ctx context.Context, id string) error {
	if m.PauseFunc != nil {
		return m.PauseFunc(ctx, id)
	}
	return nil
}

func (m *MockSyncEngine) Resume(ctx context.Context, id string) error {
	if m.ResumeFunc != nil {
		return m.ResumeFunc(ctx, id)
	}
	return nil
}

func (m *MockSyncEngine) Reset(ctx context.Context, id string) error {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, id)
	}
	return nil
}

func (m *MockSyncEngine) Status(ctx context.Context, id string) (*domain.SourceStatus, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, id)
	}
	return &domain.SourceStatus{Source: domain.Source{ID: id}}, nil
}

func (m *MockSyncEngine) ListStatus(ctx context.Context) ([]domain.SourceStatus, error) {
	if m.ListStatusFunc != nil {
		return m.ListStatusFunc(ctx)
	}
	return nil, nil
}

func (m *MockSyncEngine) IsRunning(string) bool { return false }

func (m *MockSyncEngine) Watch(context.Context, string) error { return domain.ErrUnsupportedType }

// MockResultService implements driving.ResultService for testing.
type MockResultService struct {
	ReviewQueueFunc func(ctx context.Context, sourceID string, limit int) ([]domain.ProcessingResult, error)
}

func (m *MockResultService) List(context.Context, string, int) ([]domain.ProcessingResult, error) {
	return nil, nil
}

func (m *MockResultService) Get(context.Context, string) (*domain.ProcessingResult, error) {
	return nil, domain.ErrNotFound
}

func (m *MockResultService) ReviewQueue(ctx context.Context, sourceID string, limit int) ([]domain.ProcessingResult, error) {
	if m.ReviewQueueFunc != nil {
		return m.ReviewQueueFunc(ctx, sourceID, limit)
	}
	return nil, nil
}

func (m *MockResultService) Open(context.Context, string) error { return nil }

// MockSettingsService implements driving.SettingsService for testing.
type MockSettingsService struct {
	values []driving.Setting
	setErr error
}

func (m *MockSettingsService) AppConfig() (domain.AppConfig, error) {
	return domain.DefaultAppConfig(""), nil
}

func (m *MockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	for i := range m.values {
		if m.values[i].Key == key {
			m.values[i].Value = value
			m.values[i].Default = false
		}
	}
	return nil
}

func (m *MockSettingsService) Values() []driving.Setting {
	return m.values
}
