package memory

import (
	"context"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

var _ driven.SourceStore = (*SourceStore)(nil)

// SourceStore keeps source definitions in memory, listed by ID.
type SourceStore struct {
	rows *table[domain.Source]
}

func NewSourceStore() *SourceStore {
	return &SourceStore{rows: newTable[domain.Source]()}
}

func (s *SourceStore) Save(_ context.Context, source domain.Source) error {
	if source.ID == "" {
		return domain.ErrInvalidInput
	}
	source.Config = cloneConfig(source.Config)
	s.rows.put(source.ID, source)
	return nil
}

func (s *SourceStore) Get(_ context.Context, id string) (*domain.Source, error) {
	src, ok := s.rows.get(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	src.Config = cloneConfig(src.Config)
	return &src, nil
}

func (s *SourceStore) Delete(_ context.Context, id string) error {
	s.rows.del(id)
	return nil
}

func (s *SourceStore) List(_ context.Context) ([]domain.Source, error) {
	out := s.rows.filter(nil)
	for i := range out {
		out[i].Config = cloneConfig(out[i].Config)
	}
	return out, nil
}

// cloneConfig copies the config map so stored sources stay isolated.
func cloneConfig(cfg map[string]string) map[string]string {
	if cfg == nil {
		return nil
	}
	out := make(map[string]string, len(cfg))
	for k, v := range cfg {
		out[k] = v
	}
	return out
}
