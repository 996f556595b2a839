package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driving"
)

// mockSyncEngine is a mock implementation of driving.SyncEngine.
type mockSyncEngine struct {
	statuses []domain.SourceStatus
	status   *domain.SourceStatus
	report   *driving.SyncReport
	gotOpts  driving.SyncOptions
	gotID    string
	err      error
}

func (m *mockSyncEngine) ShouldSync(_ context.Context, _ string, _ time.Time) (bool, error) {
	return true, m.err
}

func (m *mockSyncEngine) Sync(_ context.Context, id string, opts driving.SyncOptions) (*driving.SyncReport, error) {
	m.gotID = id
	m.gotOpts = opts
	return m.report, m.err
}

func (m *mockSyncEngine) SyncAll(_ context.Context) ([]driving.SyncReport, error) {
	return nil, m.err
}

func (m *mockSyncEngine) Pause(_ context.Context, _ string) error  { return m.err }
func (m *mockSyncEngine) Resume(_ context.Context, _ string) error { return m.err }
func (m *mockSyncEngine) Reset(_ context.Context, _ string) error  { return m.err }

func (m *mockSyncEngine) Status(_ context.Context, id string) (*domain.SourceStatus, error) {
	m.gotID = id
	return m.status, m.err
}

func (m *mockSyncEngine) ListStatus(_ context.Context) ([]domain.SourceStatus, error) {
	return m.statuses, m.err
}

func (m *mockSyncEngine) IsRunning(_ string) bool { return false }

func (m *mockSyncEngine) Watch(_ context.Context, _ string) error { return m.err }

// mockIntakeService is a mock implementation of driving.IntakeService.
type mockIntakeService struct {
	detection *domain.DetectionResult
	quality   *domain.QualityAssessment
	gotPath   string
	err       error
}

func (m *mockIntakeService) Process(_ context.Context, _ domain.IntakeRequest) (*domain.ProcessingResult, error) {
	return nil, m.err
}

func (m *mockIntakeService) Assess(_ context.Context, path string) (*domain.DetectionResult, *domain.QualityAssessment, error) {
	m.gotPath = path
	return m.detection, m.quality, m.err
}

// mockResultService is a mock implementation of driving.ResultService.
type mockResultService struct {
	results []domain.ProcessingResult
	result  *domain.ProcessingResult
	gotID   string
	err     error
}

func (m *mockResultService) List(_ context.Context, sourceID string, _ int) ([]domain.ProcessingResult, error) {
	m.gotID = sourceID
	return m.results, m.err
}

func (m *mockResultService) Get(_ context.Context, fileID string) (*domain.ProcessingResult, error) {
	m.gotID = fileID
	return m.result, m.err
}

func (m *mockResultService) ReviewQueue(_ context.Context, _ string, _ int) ([]domain.ProcessingResult, error) {
	return m.results, m.err
}

func (m *mockResultService) Open(_ context.Context, _ string) error { return m.err }
