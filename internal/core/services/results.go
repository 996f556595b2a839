package services

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driving"
)

// Ensure ResultService implements the interface.
var _ driving.ResultService = (*ResultService)(nil)

// reviewScan bounds how many records ReviewQueue inspects.
const reviewScan = 1000

// ResultService reads processing records.
type ResultService struct {
	results     driven.ResultStore
	sourceStore driven.SourceStore
	open        func(path string) error
}

// NewResultService creates a new result service.
func NewResultService(results driven.ResultStore, sourceStore driven.SourceStore) *ResultService {
	return &ResultService{
		results:     results,
		sourceStore: sourceStore,
		open:        openPath,
	}
}

// List returns records for a source, newest first.
func (s *ResultService) List(ctx context.Context, sourceID string, limit int) ([]domain.ProcessingResult, error) {
	if sourceID != "" {
		if _, err := s.sourceStore.Get(ctx, sourceID); err != nil {
			return nil, err
		}
	}
	return s.results.List(ctx, sourceID, limit)
}

// Get returns the record for a file.
func (s *ResultService) Get(ctx context.Context, fileID string) (*domain.ProcessingResult, error) {
	return s.results.Get(ctx, fileID)
}

// ReviewQueue returns flagged records, newest first.
func (s *ResultService) ReviewQueue(ctx context.Context, sourceID string, limit int) ([]domain.ProcessingResult, error) {
	all, err := s.List(ctx, sourceID, reviewScan)
	if err != nil {
		return nil, err
	}
	var out []domain.ProcessingResult
	for i := range all {
		if all[i].Stage != domain.StageCompleted || !all[i].HumanReviewRequired {
			continue
		}
		out = append(out, all[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Open opens the enhanced copy when one exists, else the original.
func (s *ResultService) Open(ctx context.Context, fileID string) error {
	r, err := s.results.Get(ctx, fileID)
	if err != nil {
		return err
	}
	path := r.OriginalPath
	if r.EnhancedPath != "" {
		path = r.EnhancedPath
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s is no longer staged", domain.ErrNotFound, path)
	}
	return s.open(path)
}

// openPath opens a path using the system default handler.
func openPath(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
