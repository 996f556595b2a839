package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driving"
)

// StatusInput is the input schema for the intake_status tool.
type StatusInput struct {
	SourceID string `json:"source_id,omitempty" jsonschema:"source to report on; omit for every source"`
}

// StatusOutput is the output schema for the intake_status tool.
type StatusOutput struct {
	Sources []SourceStatusOutput `json:"sources"`
}

// SourceStatusOutput is the sync status of one source.
type SourceStatusOutput struct {
	ID             string   `json:"id"`
	Type           string   `json:"type"`
	Name           string   `json:"name"`
	Status         string   `json:"status"`
	Running        bool     `json:"running"`
	LastSyncTime   string   `json:"last_sync_time,omitempty"`
	TotalProcessed int64    `json:"total_processed"`
	ErrorCount     int64    `json:"error_count"`
	RecentErrors   []string `json:"recent_errors,omitempty"`
}

// SyncInput is the input schema for the intake_sync tool.
type SyncInput struct {
	SourceID     string `json:"source_id" jsonschema:"source to sync"`
	Historical   bool   `json:"historical,omitempty" jsonschema:"run a historical backfill instead of an incremental sync"`
	StartDate    string `json:"start_date,omitempty" jsonschema:"historical start date as YYYY-MM-DD"`
	MaxDocuments int    `json:"max_documents,omitempty" jsonschema:"document cap for a historical sync"`
}

// SyncOutput is the output schema for the intake_sync tool.
type SyncOutput struct {
	SourceID   string `json:"source_id"`
	Mode       string `json:"mode"`
	Fetched    int    `json:"fetched"`
	Dispatched int    `json:"dispatched"`
	Rejected   int    `json:"rejected"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	Capped     bool   `json:"capped"`
	Error      string `json:"error,omitempty"`
}

// AssessInput is the input schema for the intake_assess tool.
type AssessInput struct {
	Path string `json:"path" jsonschema:"absolute path of a local file to assess"`
}

// AssessOutput is the output schema for the intake_assess tool.
type AssessOutput struct {
	FileType        string             `json:"file_type"`
	MIMEType        string             `json:"mime_type"`
	Confidence      float64            `json:"confidence"`
	OverallScore    float64            `json:"overall_quality_score"`
	Decision        string             `json:"decision"`
	Issues          []string           `json:"issues,omitempty"`
	Recommendations []string           `json:"recommendations,omitempty"`
	Metrics         map[string]float64 `json:"metrics,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "intake_status",
		Description: "Show sync status, processed counts and recent errors of document sources",
	}, s.handleStatus)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "intake_sync",
		Description: "Run an incremental or historical sync of one document source and return its report",
	}, s.handleSync)

	if s.ports.Intake != nil {
		mcp.AddTool(s.mcp, &mcp.Tool{
			Name:        "intake_assess",
			Description: "Detect a local file's type and score it against the quality gate",
		}, s.handleAssess)
	}
}

func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	if input.SourceID != "" {
		st, err := s.ports.Sync.Status(ctx, input.SourceID)
		if err != nil {
			return nil, StatusOutput{}, err
		}
		return nil, StatusOutput{Sources: []SourceStatusOutput{statusOutput(st, true)}}, nil
	}

	statuses, err := s.ports.Sync.ListStatus(ctx)
	if err != nil {
		return nil, StatusOutput{}, err
	}
	out := StatusOutput{Sources: make([]SourceStatusOutput, len(statuses))}
	for i := range statuses {
		out.Sources[i] = statusOutput(&statuses[i], false)
	}
	return nil, out, nil
}

func statusOutput(st *domain.SourceStatus, withErrors bool) SourceStatusOutput {
	out := SourceStatusOutput{
		ID:             st.Source.ID,
		Type:           st.Source.Type,
		Name:           st.Source.DisplayName(""),
		Status:         string(st.State.Status),
		Running:        st.Running,
		TotalProcessed: st.State.TotalProcessed,
		ErrorCount:     st.State.ErrorCount,
	}
	if !st.State.LastSyncTime.IsZero() {
		out.LastSyncTime = st.State.LastSyncTime.Format(time.RFC3339)
	}
	if withErrors {
		for _, e := range st.RecentErrors {
			msg := e.Message
			if e.DocumentID != "" {
				msg = e.DocumentID + ": " + msg
			}
			out.RecentErrors = append(out.RecentErrors, msg)
		}
	}
	return out
}

func (s *Server) handleSync(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SyncInput,
) (*mcp.CallToolResult, SyncOutput, error) {
	if input.SourceID == "" {
		return nil, SyncOutput{}, fmt.Errorf("%w: source_id is required", domain.ErrInvalidInput)
	}

	opts := driving.SyncOptions{Mode: domain.SyncModeIncremental}
	if input.Historical {
		opts.Mode = domain.SyncModeHistorical
		opts.MaxDocuments = input.MaxDocuments
		if input.StartDate != "" {
			t, err := time.Parse(time.DateOnly, input.StartDate)
			if err != nil {
				return nil, SyncOutput{}, fmt.Errorf("%w: start_date: %v", domain.ErrInvalidInput, err)
			}
			opts.StartDate = t
		}
	}

	report, err := s.ports.Sync.Sync(ctx, input.SourceID, opts)
	if report == nil {
		if err == nil {
			err = fmt.Errorf("sync of %s returned no report", input.SourceID)
		}
		return nil, SyncOutput{}, err
	}

	out := SyncOutput{
		SourceID:   report.SourceID,
		Mode:       string(report.Mode),
		Fetched:    report.Fetched,
		Dispatched: report.Dispatched,
		Rejected:   report.Rejected,
		Skipped:    report.Skipped,
		Failed:     report.Failed,
		Capped:     report.Capped,
		Error:      report.Err,
	}
	if err != nil && out.Error == "" {
		out.Error = err.Error()
	}
	return nil, out, nil
}

func (s *Server) handleAssess(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AssessInput,
) (*mcp.CallToolResult, AssessOutput, error) {
	detection, quality, err := s.ports.Intake.Assess(ctx, input.Path)
	if err != nil {
		return nil, AssessOutput{}, err
	}

	var out AssessOutput
	if detection != nil {
		out.FileType = string(detection.FileType)
		out.MIMEType = detection.MIMEType
		out.Confidence = detection.Confidence
	}
	if quality != nil {
		out.OverallScore = quality.OverallScore
		out.Decision = string(quality.Decision)
		out.Issues = quality.Issues
		out.Recommendations = quality.Recommendations
		out.Metrics = quality.Metrics
	}
	return nil, out, nil
}
