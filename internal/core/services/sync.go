package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-intake/internal/logger"
)

// Ensure SyncEngine implements the interface.
var _ driving.SyncEngine = (*SyncEngine)(nil)

// SyncEngine drives connectors batch by batch, deduplicates documents and
// hands new ones to the intake pipeline.
type SyncEngine struct {
	sources driven.SourceStore
	dedup   driven.DedupStore
	factory driven.ConnectorFactory
	objects driven.ObjectStore
	intake  driving.IntakeService
	results driven.ResultStore
	cfg     domain.IntakeConfig
	now     func() time.Time

	mu          sync.Mutex
	activeSyncs map[string]struct{}
}

// NewSyncEngine creates a sync engine.
func NewSyncEngine(
	sources driven.SourceStore,
	dedup driven.DedupStore,
	factory driven.ConnectorFactory,
	objects driven.ObjectStore,
	intake driving.IntakeService,
	results driven.ResultStore,
	cfg domain.IntakeConfig,
) *SyncEngine {
	return &SyncEngine{
		sources:     sources,
		dedup:       dedup,
		factory:     factory,
		objects:     objects,
		intake:      intake,
		results:     results,
		cfg:         cfg,
		now:         time.Now,
		activeSyncs: make(map[string]struct{}),
	}
}

// ShouldSync reports whether a scheduled sync is due.
func (e *SyncEngine) ShouldSync(ctx context.Context, sourceID string, now time.Time) (bool, error) {
	state, err := e.dedup.GetSyncState(ctx, sourceID)
	if err != nil {
		return false, fmt.Errorf("get sync state: %w", err)
	}
	return state.DueAt(now, e.cfg.SyncInterval()), nil
}

// outcome of one document.
type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeDispatched
	outcomeRejected
	outcomeFailed
)

// run holds the mutable state of one sync run. Workers update it under mu.
type run struct {
	source domain.Source
	report *driving.SyncReport

	mu    sync.Mutex
	state domain.SyncState
}

func (r *run) tally(o outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch o {
	case outcomeSkipped:
		r.report.Skipped++
	case outcomeDispatched:
		r.report.Dispatched++
		r.state.TotalProcessed++
	case outcomeRejected:
		r.report.Rejected++
		r.state.TotalProcessed++
	case outcomeFailed:
		r.report.Failed++
		r.state.ErrorCount++
	}
}

// Sync runs one sync for a source.
//
//nolint:gocognit,gocyclo // Orchestration function coordinating async channels
func (e *SyncEngine) Sync(ctx context.Context, sourceID string, opts driving.SyncOptions) (*driving.SyncReport, error) {
	// 1. Get source configuration and state
	source, err := e.sources.Get(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	state, err := e.dedup.GetSyncState(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("get sync state: %w", err)
	}
	if state.IsPaused() {
		return nil, domain.ErrSourcePaused
	}
	if !e.begin(sourceID) {
		return nil, domain.ErrSyncInProgress
	}
	defer e.end(sourceID)

	if opts.Mode == "" {
		opts.Mode = domain.SyncModeIncremental
	}
	r := &run{
		source: *source,
		state:  state,
		report: &driving.SyncReport{SourceID: sourceID, Mode: opts.Mode, StartedAt: e.now()},
	}

	// 2. Create and validate the connector
	if e.factory == nil {
		return nil, fmt.Errorf("create connector: connector factory not configured")
	}
	connector, err := e.factory.Create(ctx, *source)
	if err != nil {
		return e.abort(ctx, r, fmt.Errorf("create connector: %w", err))
	}
	defer connector.Close()

	if err := connector.Validate(ctx); err != nil {
		return e.abort(ctx, r, fmt.Errorf("%w: %w", domain.ErrConnectorValidation, err))
	}

	// 3. Mark as syncing
	r.state.Status = domain.SyncStatusSyncing
	if err := e.persist(ctx, r); err != nil {
		return nil, err
	}
	logger.Info("Starting %s sync for source %s", opts.Mode, sourceID)

	// 4. Fetch
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	remaining := -1
	var batches <-chan []domain.RawDocument
	var errs <-chan error
	if opts.Mode == domain.SyncModeHistorical {
		start := opts.StartDate
		if start.IsZero() {
			start = e.now().AddDate(0, 0, -e.cfg.HistoricalDaysBack)
		}
		remaining = opts.MaxDocuments
		if remaining <= 0 {
			remaining = e.cfg.MaxHistorical
		}
		batches, errs = connector.FetchHistorical(fetchCtx, start, e.cfg.BatchSize)
	} else {
		batches, errs = connector.FetchIncremental(fetchCtx, r.state, e.cfg.BatchSize)
	}

	var (
		cursor   string
		complete bool
		fetchErr error
	)
	for batches != nil || errs != nil {
		select {
		case <-ctx.Done():
			return e.cancelled(ctx, r)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if sc, isSyncComplete := driven.IsSyncComplete(err); isSyncComplete {
				cursor, complete = sc.NewCursor, true
				continue
			}
			if err != nil && !r.report.Capped && fetchErr == nil {
				fetchErr = err
				cancel()
			}

		case batch, ok := <-batches:
			if !ok {
				batches = nil
				continue
			}
			if r.report.Capped || fetchErr != nil {
				continue
			}
			if r.report.Batches > 0 && e.cfg.BatchDelay > 0 {
				if !sleep(ctx, e.cfg.BatchDelay) {
					return e.cancelled(ctx, r)
				}
			}

			r.report.Batches++
			r.report.Fetched += len(batch)
			batch = dedupBatch(batch)
			if remaining >= 0 {
				if len(batch) >= remaining {
					batch = batch[:remaining]
					r.report.Capped = true
					cancel()
				}
				remaining -= len(batch)
			}

			if err := e.processBatch(ctx, r, batch); err != nil {
				return e.cancelled(ctx, r)
			}
			if len(batch) > 0 {
				r.state.LastDocumentID = batch[len(batch)-1].ID
			}
			if err := e.persist(ctx, r); err != nil {
				return r.report, err
			}
		}
	}

	// 5. Finish
	if ctx.Err() != nil {
		return e.cancelled(ctx, r)
	}
	if fetchErr != nil {
		return e.abort(ctx, r, classifyFetchError(fetchErr))
	}
	if complete && cursor != "" && !r.report.Capped {
		r.state.Cursor = cursor
	}
	if !complete && !r.report.Capped {
		logger.Warn("Connector for %s finished without a completion signal", sourceID)
	}
	r.state.LastSyncTime = e.now()
	r.state.Status = domain.SyncStatusIdle
	if err := e.persist(ctx, r); err != nil {
		return r.report, err
	}
	r.report.FinishedAt = e.now()

	logger.Info("Sync complete for %s: %d dispatched, %d rejected, %d skipped, %d failed",
		sourceID, r.report.Dispatched, r.report.Rejected, r.report.Skipped, r.report.Failed)
	return r.report, nil
}

// processBatch runs the batch's documents concurrently. Only cancellation
// of ctx is returned; per-document failures are recorded.
func (e *SyncEngine) processBatch(ctx context.Context, r *run, batch []domain.RawDocument) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.cfg.Workers, 1))
	for _, doc := range batch {
		g.Go(func() error {
			o, err := e.processDocument(gctx, r.source, doc)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				e.recordError(gctx, r.source.ID, doc.ID, err)
			}
			r.tally(o)
			return nil
		})
	}
	return g.Wait()
}

// processDocument dedups, stages and dispatches one document.
func (e *SyncEngine) processDocument(ctx context.Context, source domain.Source, doc domain.RawDocument) (outcome, error) {
	if doc.SourceID == "" {
		doc.SourceID = source.ID
	}

	// 1. Already processed by this source
	processed, err := e.dedup.IsProcessed(ctx, source.ID, doc.ID)
	if err != nil {
		return outcomeFailed, fmt.Errorf("check processed: %w", err)
	}
	if processed {
		return outcomeSkipped, nil
	}

	// 2. Same content processed by another source
	if doc.Checksum != "" {
		match, found, err := e.dedup.FindByChecksum(ctx, doc.Checksum)
		if err != nil {
			return outcomeFailed, fmt.Errorf("find checksum: %w", err)
		}
		if found && match.SourceID != source.ID {
			logger.Debug("Skipping %s: duplicate of %s in %s", doc.Filename, match.DocumentID, match.SourceID)
			if err := e.dedup.MarkProcessed(ctx, doc); err != nil {
				return outcomeFailed, fmt.Errorf("mark processed: %w", err)
			}
			return outcomeSkipped, nil
		}
	}

	// 3. Stage
	path, err := e.objects.Put(ctx, StagingKey(doc), bytes.NewReader(doc.Content))
	if err != nil {
		return outcomeFailed, fmt.Errorf("stage: %w", err)
	}

	// 4. Classify, assess and extract
	res, err := e.intake.Process(ctx, domain.IntakeRequest{
		FilePath: path,
		FileID:   doc.ID,
		Options:  domain.IntakeOptions{Language: doc.Language},
	})
	if err != nil {
		return outcomeFailed, fmt.Errorf("intake: %w", err)
	}
	res.Metadata["source_id"] = source.ID
	res.Metadata["source_type"] = source.Type
	res.Metadata["filename"] = doc.Filename
	res.Metadata["checksum"] = doc.Checksum
	if doc.OriginalPath != "" {
		res.Metadata["upstream_path"] = doc.OriginalPath
	}

	// 5. Hand off
	if err := e.results.Save(ctx, source.ID, res); err != nil {
		return outcomeFailed, fmt.Errorf("save result: %w", err)
	}
	if !res.Dispatched() {
		return outcomeFailed, fmt.Errorf("%s: %s", res.Stage, strings.Join(res.Errors, "; "))
	}

	// 6. Mark processed only after a successful hand-off
	if err := e.dedup.MarkProcessed(ctx, doc); err != nil {
		return outcomeFailed, fmt.Errorf("mark processed: %w", err)
	}
	if res.Stage == domain.StageRejected {
		return outcomeRejected, nil
	}
	return outcomeDispatched, nil
}

// StagingKey is the object store key for a document: source, document ID
// and the base file name, so extractors see the original extension.
func StagingKey(doc domain.RawDocument) string {
	name := filepath.Base(strings.ReplaceAll(doc.Filename, "\\", "/"))
	if name == "." || name == "/" || name == ".." || name == "" {
		name = "document"
	}
	return doc.SourceID + "/" + doc.ID + "/" + name
}

// dedupBatch drops repeated document IDs within a batch, keeping order.
func dedupBatch(batch []domain.RawDocument) []domain.RawDocument {
	seen := make(map[string]struct{}, len(batch))
	out := batch[:0:0]
	for _, doc := range batch {
		if _, dup := seen[doc.ID]; dup {
			continue
		}
		seen[doc.ID] = struct{}{}
		out = append(out, doc)
	}
	return out
}

// classifyFetchError marks upstream failures as transient unless the
// connector already classified them.
func classifyFetchError(err error) error {
	for _, known := range []error{
		domain.ErrTransientConnector, domain.ErrRateLimited,
		domain.ErrAuthRequired, domain.ErrAuthExpired, domain.ErrAuthInvalid,
		domain.ErrTokenRefreshFailed, domain.ErrConnectorValidation,
	} {
		if errors.Is(err, known) {
			return fmt.Errorf("fetch: %w", err)
		}
	}
	return fmt.Errorf("%w: %w", domain.ErrTransientConnector, err)
}

// abort records err, marks the source ERROR and returns err.
func (e *SyncEngine) abort(ctx context.Context, r *run, err error) (*driving.SyncReport, error) {
	logger.Error("Sync failed for %s: %v", r.source.ID, err)
	e.recordError(ctx, r.source.ID, "", err)
	r.state.ErrorCount++
	r.state.Status = domain.SyncStatusError
	if perr := e.persist(context.WithoutCancel(ctx), r); perr != nil {
		logger.Warn("Failed to save sync state for %s: %v", r.source.ID, perr)
	}
	r.report.Err = err.Error()
	r.report.FinishedAt = e.now()
	return r.report, err
}

// cancelled leaves the source idle so the next run resumes normally.
func (e *SyncEngine) cancelled(ctx context.Context, r *run) (*driving.SyncReport, error) {
	r.state.Status = domain.SyncStatusIdle
	if err := e.persist(context.WithoutCancel(ctx), r); err != nil {
		logger.Warn("Failed to save sync state for %s: %v", r.source.ID, err)
	}
	r.report.Err = ctx.Err().Error()
	r.report.FinishedAt = e.now()
	return r.report, ctx.Err()
}

// persist saves the run's state. The store keeps a pause set while the
// run was active.
func (e *SyncEngine) persist(ctx context.Context, r *run) error {
	r.mu.Lock()
	state := r.state
	r.mu.Unlock()
	if err := e.dedup.SaveSyncState(ctx, state); err != nil {
		return fmt.Errorf("save sync state: %w", err)
	}
	return nil
}

func (e *SyncEngine) recordError(ctx context.Context, sourceID, docID string, err error) {
	logger.Warn("Source %s document %s: %v", sourceID, docID, err)
	entry := domain.SourceError{SourceID: sourceID, DocumentID: docID, Message: err.Error(), Time: e.now()}
	if rerr := e.dedup.RecordError(context.WithoutCancel(ctx), entry); rerr != nil {
		logger.Warn("Failed to record error for %s: %v", sourceID, rerr)
	}
}

// SyncAll runs an incremental sync for every source that is not paused.
func (e *SyncEngine) SyncAll(ctx context.Context) ([]driving.SyncReport, error) {
	sources, err := e.sources.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	var reports []driving.SyncReport
	var errs []error
	for _, source := range sources {
		report, err := e.Sync(ctx, source.ID, driving.SyncOptions{Mode: domain.SyncModeIncremental})
		if report != nil {
			reports = append(reports, *report)
		}
		switch {
		case errors.Is(err, domain.ErrSourcePaused):
			logger.Debug("Skipping paused source %s", source.ID)
		case err != nil:
			errs = append(errs, fmt.Errorf("sync %s: %w", source.ID, err))
		}
	}
	return reports, errors.Join(errs...)
}

// Pause stops new runs for a source until Resume.
func (e *SyncEngine) Pause(ctx context.Context, sourceID string) error {
	if _, err := e.sources.Get(ctx, sourceID); err != nil {
		return fmt.Errorf("get source: %w", err)
	}
	return e.dedup.SetStatus(ctx, sourceID, domain.SyncStatusPaused)
}

// Resume clears a pause. Resuming an unpaused source is a no-op.
func (e *SyncEngine) Resume(ctx context.Context, sourceID string) error {
	state, err := e.dedup.GetSyncState(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("get sync state: %w", err)
	}
	if !state.IsPaused() {
		return nil
	}
	status := domain.SyncStatusIdle
	if e.IsRunning(sourceID) {
		status = domain.SyncStatusSyncing
	}
	return e.dedup.SetStatus(ctx, sourceID, status)
}

// Reset clears all dedup state of a source. A pause survives the reset.
func (e *SyncEngine) Reset(ctx context.Context, sourceID string) error {
	if e.IsRunning(sourceID) {
		return domain.ErrSyncInProgress
	}
	state, err := e.dedup.GetSyncState(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("get sync state: %w", err)
	}
	if err := e.dedup.Reset(ctx, sourceID); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	if state.IsPaused() {
		return e.dedup.SetStatus(ctx, sourceID, domain.SyncStatusPaused)
	}
	return nil
}

// Status returns the state and recent errors of a source.
func (e *SyncEngine) Status(ctx context.Context, sourceID string) (*domain.SourceStatus, error) {
	source, err := e.sources.Get(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	return e.status(ctx, *source)
}

// ListStatus returns the status of every configured source.
func (e *SyncEngine) ListStatus(ctx context.Context) ([]domain.SourceStatus, error) {
	sources, err := e.sources.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	statuses := make([]domain.SourceStatus, 0, len(sources))
	for _, source := range sources {
		st, err := e.status(ctx, source)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, *st)
	}
	return statuses, nil
}

func (e *SyncEngine) status(ctx context.Context, source domain.Source) (*domain.SourceStatus, error) {
	state, err := e.dedup.GetSyncState(ctx, source.ID)
	if err != nil {
		return nil, fmt.Errorf("get sync state: %w", err)
	}
	recent, err := e.dedup.RecentErrors(ctx, source.ID)
	if err != nil {
		return nil, fmt.Errorf("recent errors: %w", err)
	}
	return &domain.SourceStatus{
		Source:       source,
		State:        state,
		RecentErrors: recent,
		Running:      e.IsRunning(source.ID),
	}, nil
}

// Watch processes documents pushed by a watching connector.
func (e *SyncEngine) Watch(ctx context.Context, sourceID string) error {
	source, err := e.sources.Get(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("get source: %w", err)
	}
	connector, err := e.factory.Create(ctx, *source)
	if err != nil {
		return fmt.Errorf("create connector: %w", err)
	}
	defer connector.Close()

	watcher, ok := connector.(driven.Watcher)
	if !ok {
		return fmt.Errorf("%w: %s connector cannot watch", domain.ErrUnsupportedType, source.Type)
	}
	docs, err := watcher.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	logger.Info("Watching source %s", sourceID)
	for {
		select {
		case <-ctx.Done():
			return nil
		case doc, ok := <-docs:
			if !ok {
				return nil
			}
			state, err := e.dedup.GetSyncState(ctx, sourceID)
			if err != nil {
				return fmt.Errorf("get sync state: %w", err)
			}
			if state.IsPaused() {
				continue
			}
			r := &run{source: *source, state: state, report: &driving.SyncReport{SourceID: sourceID}}
			if err := e.processBatch(ctx, r, []domain.RawDocument{doc}); err != nil {
				return nil
			}
			r.state.LastDocumentID = doc.ID
			if err := e.persist(ctx, r); err != nil {
				logger.Warn("Failed to save sync state for %s: %v", sourceID, err)
			}
		}
	}
}

// IsRunning reports whether a sync for the source is active in this process.
func (e *SyncEngine) IsRunning(sourceID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.activeSyncs[sourceID]
	return ok
}

func (e *SyncEngine) begin(sourceID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.activeSyncs[sourceID]; ok {
		return false
	}
	e.activeSyncs[sourceID] = struct{}{}
	return true
}

func (e *SyncEngine) end(sourceID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.activeSyncs, sourceID)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
