package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	uriScheme = "intake://"

	// resultListLimit bounds the records returned by the results resource.
	resultListLimit = 50
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.mcp.AddResource(&mcp.Resource{
		URI:         uriScheme + "sources",
		Name:        "sources",
		Description: "Configured document sources with their sync status",
		MIMEType:    "application/json",
	}, s.handleSourcesResource)

	s.mcp.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sources/{sourceId}/results",
		Name:        "source-results",
		Description: "Recent processing results of a source",
		MIMEType:    "application/json",
	}, s.handleResultsResource)

	s.mcp.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "results/{fileId}",
		Name:        "result-text",
		Description: "Extracted text of a processed document",
		MIMEType:    "text/plain",
	}, s.handleResultTextResource)
}

func jsonContents(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleSourcesResource returns every configured source with its status.
func (s *Server) handleSourcesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	statuses, err := s.ports.Sync.ListStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}

	infos := make([]SourceStatusOutput, len(statuses))
	for i := range statuses {
		infos[i] = statusOutput(&statuses[i], false)
	}
	return jsonContents(req.Params.URI, infos)
}

// handleResultsResource returns recent processing records for a source.
func (s *Server) handleResultsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Results == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	sourceID := extractSourceID(req.Params.URI)
	if sourceID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	results, err := s.ports.Results.List(ctx, sourceID, resultListLimit)
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}

	type resultInfo struct {
		FileID     string  `json:"file_id"`
		Stage      string  `json:"stage"`
		FileType   string  `json:"file_type,omitempty"`
		Confidence float64 `json:"confidence_score"`
		Review     bool    `json:"human_review_required"`
		URI        string  `json:"uri"`
	}

	infos := make([]resultInfo, len(results))
	for i := range results {
		r := &results[i]
		infos[i] = resultInfo{
			FileID:     r.FileID,
			Stage:      string(r.Stage),
			Confidence: r.ConfidenceScore,
			Review:     r.HumanReviewRequired,
			URI:        uriScheme + "results/" + r.FileID,
		}
		if r.Detection != nil {
			infos[i].FileType = string(r.Detection.FileType)
		}
	}
	return jsonContents(req.Params.URI, infos)
}

// handleResultTextResource returns the extracted text of one record.
func (s *Server) handleResultTextResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Results == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	fileID := extractFileID(req.Params.URI)
	if fileID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	res, err := s.ports.Results.Get(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("getting result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     res.ExtractedText,
		}},
	}, nil
}

// extractSourceID extracts the source ID from intake://sources/{sourceId}/results.
func extractSourceID(uri string) string {
	const prefix = uriScheme + "sources/"
	const suffix = "/results"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}

// extractFileID extracts the file ID from intake://results/{fileId}.
func extractFileID(uri string) string {
	const prefix = uriScheme + "results/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
