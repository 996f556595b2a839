package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-intake/internal/logger"
)

// Ensure SourceService implements the interface.
var _ driving.SourceService = (*SourceService)(nil)

// SourceService manages source configurations.
type SourceService struct {
	sourceStore driven.SourceStore
	credentials driven.CredentialsStore
	dedup       driven.DedupStore
	connectors  driven.ConnectorFactory
	now         func() time.Time
}

// NewSourceService creates a new source service. credentials and dedup
// may be nil; Remove then leaves that state alone.
func NewSourceService(
	sourceStore driven.SourceStore,
	credentials driven.CredentialsStore,
	dedup driven.DedupStore,
	connectors driven.ConnectorFactory,
) *SourceService {
	return &SourceService{
		sourceStore: sourceStore,
		credentials: credentials,
		dedup:       dedup,
		connectors:  connectors,
		now:         time.Now,
	}
}

// Add validates and stores a new source. An empty ID is replaced by a UUID.
func (s *SourceService) Add(ctx context.Context, source domain.Source) (*domain.Source, error) {
	if s.sourceStore == nil {
		return nil, domain.ErrNotImplemented
	}
	source.ID = strings.TrimSpace(source.ID)
	if source.ID == "" {
		source.ID = uuid.NewString()
	}
	if err := s.ValidateConfig(ctx, source.Type, source.Config); err != nil {
		return nil, err
	}

	existing, err := s.sourceStore.Get(ctx, source.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check source %s: %w", source.ID, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: source %s", domain.ErrAlreadyExists, source.ID)
	}

	now := s.now()
	source.CreatedAt = now
	source.UpdatedAt = now
	if err := s.sourceStore.Save(ctx, source); err != nil {
		return nil, fmt.Errorf("save source: %w", err)
	}
	logger.Info("Added source %s (%s)", source.ID, source.Type)
	return &source, nil
}

// Get retrieves a source by ID.
func (s *SourceService) Get(ctx context.Context, id string) (*domain.Source, error) {
	if s.sourceStore == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.sourceStore.Get(ctx, id)
}

// List returns all configured sources.
func (s *SourceService) List(ctx context.Context) ([]domain.Source, error) {
	if s.sourceStore == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.sourceStore.List(ctx)
}

// Update modifies an existing source configuration.
func (s *SourceService) Update(ctx context.Context, source domain.Source) error {
	if s.sourceStore == nil {
		return domain.ErrNotImplemented
	}
	if source.ID == "" {
		return fmt.Errorf("%w: source ID is required", domain.ErrInvalidInput)
	}
	existing, err := s.sourceStore.Get(ctx, source.ID)
	if err != nil {
		return err
	}
	if source.Type != existing.Type {
		return fmt.Errorf("%w: source type cannot change", domain.ErrInvalidInput)
	}
	if err := s.ValidateConfig(ctx, source.Type, source.Config); err != nil {
		return err
	}
	source.CreatedAt = existing.CreatedAt
	source.UpdatedAt = s.now()
	return s.sourceStore.Save(ctx, source)
}

// Remove deletes a source together with its credentials and dedup state.
func (s *SourceService) Remove(ctx context.Context, id string) error {
	if s.sourceStore == nil {
		return domain.ErrNotImplemented
	}
	source, err := s.sourceStore.Get(ctx, id)
	if err != nil {
		return err
	}

	if s.credentials != nil {
		creds, err := s.credentials.GetBySourceID(ctx, id)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("lookup credentials: %w", err)
		}
		if creds != nil {
			if err := s.credentials.Delete(ctx, creds.ID); err != nil {
				return fmt.Errorf("delete credentials: %w", err)
			}
		}
		if source.CredentialsID != "" && (creds == nil || creds.ID != source.CredentialsID) {
			if err := s.credentials.Delete(ctx, source.CredentialsID); err != nil && !errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("delete credentials: %w", err)
			}
		}
	}
	if s.dedup != nil {
		if err := s.dedup.Reset(ctx, id); err != nil {
			return fmt.Errorf("reset dedup state: %w", err)
		}
	}
	if err := s.sourceStore.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("Removed source %s", id)
	return nil
}

// ValidateConfig checks the connector type exists and required keys are set.
func (s *SourceService) ValidateConfig(_ context.Context, connectorType string, config map[string]string) error {
	if s.connectors == nil {
		return domain.ErrNotImplemented
	}
	typ, ok := s.connectors.Type(connectorType)
	if !ok {
		return fmt.Errorf("%w: connector %q", domain.ErrUnsupportedType, connectorType)
	}
	if missing := typ.MissingConfig(config); len(missing) > 0 {
		return fmt.Errorf("%w: missing required config keys: %s",
			domain.ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

// ConnectorTypes lists the available connector types.
func (s *SourceService) ConnectorTypes() []domain.ConnectorType {
	if s.connectors == nil {
		return nil
	}
	return s.connectors.Types()
}
