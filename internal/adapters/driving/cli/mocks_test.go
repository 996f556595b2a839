package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driving"
)

// mockSyncEngine implements driving.SyncEngine for testing.
type mockSyncEngine struct {
	statuses []domain.SourceStatus
	report   *driving.SyncReport
	reports  []driving.SyncReport
	err      error

	syncedID string
	gotOpts  driving.SyncOptions
	paused   []string
	resumed  []string
	reset    []string
}

func (m *mockSyncEngine) ShouldSync(_ context.Context, _ string, _ time.Time) (bool, error) {
	return true, m.err
}

func (m *mockSyncEngine) Sync(_ context.Context, id string, opts driving.SyncOptions) (*driving.SyncReport, error) {
	m.syncedID = id
	m.gotOpts = opts
	return m.report, m.err
}

func (m *mockSyncEngine) SyncAll(_ context.Context) ([]driving.SyncReport, error) {
	return m.reports, m.err
}

func (m *mockSyncEngine) Pause(_ context.Context, id string) error {
	m.paused = append(m.paused, id)
	return m.err
}

func (m *mockSyncEngine) Resume(_ context.Context, id string) error {
	m.resumed = append(m.resumed, id)
	return m.err
}

func (m *mockSyncEngine) Reset(_ context.Context, id string) error {
	m.reset = append(m.reset, id)
	return m.err
}

func (m *mockSyncEngine) Status(_ context.Context, id string) (*domain.SourceStatus, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.statuses {
		if m.statuses[i].Source.ID == id {
			return &m.statuses[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockSyncEngine) ListStatus(_ context.Context) ([]domain.SourceStatus, error) {
	return m.statuses, m.err
}

func (m *mockSyncEngine) IsRunning(_ string) bool {
	return false
}

func (m *mockSyncEngine) Watch(_ context.Context, _ string) error {
	return m.err
}

// mockSourceService implements driving.SourceService for testing.
type mockSourceService struct {
	sources  []domain.Source
	types    []domain.ConnectorType
	addErr   error
	listErr  error
	rmErr    error
	added    []domain.Source
	updated  []domain.Source
	removed  []string
	validErr error
}

func (m *mockSourceService) Add(_ context.Context, src domain.Source) (*domain.Source, error) {
	if m.addErr != nil {
		return nil, m.addErr
	}
	if src.ID == "" {
		src.ID = "src-new"
	}
	m.added = append(m.added, src)
	return &src, nil
}

func (m *mockSourceService) Get(_ context.Context, id string) (*domain.Source, error) {
	for i := range m.sources {
		if m.sources[i].ID == id {
			return &m.sources[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockSourceService) List(_ context.Context) ([]domain.Source, error) {
	return m.sources, m.listErr
}

func (m *mockSourceService) Update(_ context.Context, src domain.Source) error {
	m.updated = append(m.updated, src)
	return nil
}

func (m *mockSourceService) Remove(_ context.Context, id string) error {
	m.removed = append(m.removed, id)
	return m.rmErr
}

func (m *mockSourceService) ValidateConfig(_ context.Context, _ string, _ map[string]string) error {
	return m.validErr
}

func (m *mockSourceService) ConnectorTypes() []domain.ConnectorType {
	return m.types
}

// mockCredentialsService implements driving.CredentialsService for testing.
type mockCredentialsService struct {
	saved []domain.Credentials
}

func (m *mockCredentialsService) Save(_ context.Context, creds domain.Credentials) error {
	m.saved = append(m.saved, creds)
	return nil
}

func (m *mockCredentialsService) Get(_ context.Context, _ string) (*domain.Credentials, error) {
	return nil, domain.ErrNotFound
}

func (m *mockCredentialsService) GetBySourceID(_ context.Context, _ string) (*domain.Credentials, error) {
	return nil, domain.ErrNotFound
}

func (m *mockCredentialsService) Delete(_ context.Context, _ string) error {
	return nil
}

// mockIntakeService implements driving.IntakeService for testing.
type mockIntakeService struct {
	result    *domain.ProcessingResult
	detection *domain.DetectionResult
	quality   *domain.QualityAssessment
	err       error
	gotReq    domain.IntakeRequest
}

func (m *mockIntakeService) Process(_ context.Context, req domain.IntakeRequest) (*domain.ProcessingResult, error) {
	m.gotReq = req
	return m.result, m.err
}

func (m *mockIntakeService) Assess(
	_ context.Context, _ string,
) (*domain.DetectionResult, *domain.QualityAssessment, error) {
	return m.detection, m.quality, m.err
}

// mockResultService implements driving.ResultService for testing.
type mockResultService struct {
	results    []domain.ProcessingResult
	err        error
	listCalls  int
	queueCalls int
	gotLimit   int
	opened     string
}

func (m *mockResultService) List(_ context.Context, _ string, limit int) ([]domain.ProcessingResult, error) {
	m.listCalls++
	m.gotLimit = limit
	return m.results, m.err
}

func (m *mockResultService) Get(_ context.Context, id string) (*domain.ProcessingResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.results {
		if m.results[i].FileID == id {
			return &m.results[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockResultService) ReviewQueue(_ context.Context, _ string, limit int) ([]domain.ProcessingResult, error) {
	m.queueCalls++
	m.gotLimit = limit
	return m.results, m.err
}

func (m *mockResultService) Open(_ context.Context, id string) error {
	m.opened = id
	return m.err
}

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	values []driving.Setting
	setErr error
	set    map[string]string
}

func (m *mockSettingsService) AppConfig() (domain.AppConfig, error) {
	return domain.DefaultAppConfig(""), nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.set == nil {
		m.set = map[string]string{}
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Values() []driving.Setting {
	return m.values
}

// mockScheduler implements driving.Scheduler for testing.
type mockScheduler struct {
	tasks   []domain.ScheduledTask
	runs    map[string][]domain.TaskResult
	err     error
	gotTask string
	gotN    int
}

func (m *mockScheduler) Start(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockScheduler) Stop() error { return nil }

func (m *mockScheduler) Tasks(_ context.Context) ([]domain.ScheduledTask, error) {
	return m.tasks, m.err
}

func (m *mockScheduler) Runs(_ context.Context, id string, limit int) ([]domain.TaskResult, error) {
	m.gotTask = id
	m.gotN = limit
	if m.err != nil {
		return nil, m.err
	}
	runs, ok := m.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return runs, nil
}

var errBackend = errors.New("backend unavailable")

// withServices swaps in the given services for one test.
func withServices(t *testing.T, s Services) {
	t.Helper()
	prev := Services{
		Source:       sourceService,
		Sync:         syncEngine,
		Intake:       intakeService,
		Results:      resultService,
		Settings:     settingsService,
		AuthProvider: authProviderService,
		Credentials:  credentialsService,
		OAuthFlow:    oauthFlowService,
		Providers:    providerRegistry,
		Scheduler:    scheduler,
		SchedulerCfg: schedulerConfig,
		HTTP:         httpConfig,
		WorkDir:      workDir,
	}
	SetServices(s)
	t.Cleanup(func() { SetServices(prev) })
}

// execute runs the root command with fresh flag values and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags() {
	syncHistorical = false
	syncSince = ""
	syncMax = 0
	processForce = false
	processSkipEnhance = false
	processLang = ""
	processJSON = false
	assessJSON = false
	resultsReview = false
	resultsLimit = 20
	sourceAddName = ""
	sourceAddConfig = nil
	sourceAddToken = ""
	sourceAddAuth = ""
	serveAddr = ""
	serveNoHTTP = false
	serveNoScheduler = false
	serveNoMCP = false
	mcpListen = ""
	authOpts = authOptions{}
	scheduleRunsLimit = 10
}
