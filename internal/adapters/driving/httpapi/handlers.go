package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-intake/internal/logger"
)

type handler struct {
	engine  driving.SyncEngine
	intake  driving.IntakeService
	workDir string

	mu   sync.Mutex
	base context.Context
	wg   sync.WaitGroup
}

func newHandler(engine driving.SyncEngine, intake driving.IntakeService, workDir string) *handler {
	return &handler{
		engine:  engine,
		intake:  intake,
		workDir: workDir,
		base:    context.Background(),
	}
}

// setBase sets the context background syncs run under.
func (h *handler) setBase(ctx context.Context) {
	h.mu.Lock()
	h.base = ctx
	h.mu.Unlock()
}

func (h *handler) baseContext() context.Context {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.base
}

func (h *handler) wait() {
	h.wg.Wait()
}

type errorResponse struct {
	Error string `json:"error"`
}

// sourceView is the public shape of a source status. Connector config is
// omitted since it may hold secrets.
type sourceView struct {
	ID             string               `json:"id"`
	Type           string               `json:"type"`
	Name           string               `json:"name"`
	Status         domain.SyncStatus    `json:"status"`
	Running        bool                 `json:"running"`
	LastSyncTime   *time.Time           `json:"last_sync_time,omitempty"`
	TotalProcessed int64                `json:"total_processed"`
	ErrorCount     int64                `json:"error_count"`
	RecentErrors   []domain.SourceError `json:"recent_errors,omitempty"`
}

func newSourceView(st *domain.SourceStatus, withErrors bool) sourceView {
	v := sourceView{
		ID:             st.Source.ID,
		Type:           st.Source.Type,
		Name:           st.Source.DisplayName(""),
		Status:         st.State.Status,
		Running:        st.Running,
		TotalProcessed: st.State.TotalProcessed,
		ErrorCount:     st.State.ErrorCount,
	}
	if !st.State.LastSyncTime.IsZero() {
		t := st.State.LastSyncTime
		v.LastSyncTime = &t
	}
	if withErrors {
		v.RecentErrors = st.RecentErrors
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("write response: %v", err)
	}
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrSyncInProgress), errors.Is(err, domain.ErrSourcePaused):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrAuthRequired), errors.Is(err, domain.ErrAuthExpired),
		errors.Is(err, domain.ErrAuthInvalid):
		status = http.StatusFailedDependency
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrNotImplemented):
		status = http.StatusNotImplemented
	}
	if status == http.StatusInternalServerError {
		logger.Warn("HTTP API: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) listSources(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.engine.ListStatus(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]sourceView, 0, len(statuses))
	for i := range statuses {
		views = append(views, newSourceView(&statuses[i], false))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *handler) sourceStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.engine.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSourceView(st, true))
}

func (h *handler) pause(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, h.engine.Pause)
}

func (h *handler) resume(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, h.engine.Resume)
}

func (h *handler) reset(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, h.engine.Reset)
}

// control runs a state change and answers with the new status.
func (h *handler) control(w http.ResponseWriter, r *http.Request, op func(context.Context, string) error) {
	id := chi.URLParam(r, "id")
	if err := op(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	h.sourceStatus(w, r)
}

type syncRequest struct {
	Mode         domain.SyncMode `json:"mode"`
	StartDate    string          `json:"start_date"`
	MaxDocuments int             `json:"max_documents"`
}

func (r syncRequest) options() (driving.SyncOptions, error) {
	opts := driving.SyncOptions{Mode: domain.SyncModeIncremental, MaxDocuments: r.MaxDocuments}
	switch r.Mode {
	case "", domain.SyncModeIncremental:
	case domain.SyncModeHistorical:
		opts.Mode = domain.SyncModeHistorical
	default:
		return opts, errors.Join(domain.ErrInvalidInput, errors.New("unknown sync mode "+string(r.Mode)))
	}
	if r.StartDate != "" {
		t, err := time.Parse(time.DateOnly, r.StartDate)
		if err != nil {
			return opts, errors.Join(domain.ErrInvalidInput, err)
		}
		opts.StartDate = t
	}
	return opts, nil
}

// sync starts a sync. With ?wait=true it blocks and returns the report;
// otherwise it answers 202 and the sync continues in the background.
func (h *handler) sync(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req syncRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, errors.Join(domain.ErrInvalidInput, err))
			return
		}
	}
	opts, err := req.options()
	if err != nil {
		writeError(w, err)
		return
	}

	st, err := h.engine.Status(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	switch {
	case st.State.IsPaused():
		writeError(w, domain.ErrSourcePaused)
		return
	case st.Running:
		writeError(w, domain.ErrSyncInProgress)
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		report, err := h.engine.Sync(r.Context(), id, opts)
		if err != nil && report == nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
		return
	}

	ctx := h.baseContext()
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if _, err := h.engine.Sync(ctx, id, opts); err != nil {
			logger.Warn("Background sync of %s failed: %v", id, err)
		}
	}()
	w.Header().Set("Location", "/sources/"+id+"/status")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started", "source_id": id})
}

type assessResponse struct {
	Detection *domain.DetectionResult   `json:"detection"`
	Quality   *domain.QualityAssessment `json:"quality"`
}

// assess scores an uploaded file without extracting it.
func (h *handler) assess(w http.ResponseWriter, r *http.Request) {
	if h.intake == nil {
		writeError(w, domain.ErrNotImplemented)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, errors.Join(domain.ErrInvalidInput, err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, errors.Join(domain.ErrInvalidInput, err))
		return
	}
	defer file.Close()

	path, cleanup, err := h.stage(file, header.Filename)
	if err != nil {
		writeError(w, err)
		return
	}
	defer cleanup()

	detection, quality, err := h.intake.Assess(r.Context(), path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assessResponse{Detection: detection, Quality: quality})
}

// stage copies an upload into a private temp dir, keeping its base name so
// extension hints survive.
func (h *handler) stage(src io.Reader, filename string) (string, func(), error) {
	dir, err := os.MkdirTemp(h.workDir, "upload-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "upload"
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		cleanup()
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}
