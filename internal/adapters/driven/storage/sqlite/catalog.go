package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

// jsonColumn encodes v for a nullable TEXT column. Nil pointers become NULL.
func jsonColumn[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// fromJSONColumn decodes a nullable TEXT column; NULL and "null" give nil.
func fromJSONColumn[T any](col sql.NullString) (*T, error) {
	if !col.Valid || col.String == "" || col.String == "null" {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal([]byte(col.String), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// stampSave fills CreatedAt on first save and always bumps UpdatedAt.
func stampSave(created, updated *time.Time) {
	now := time.Now()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

type sourceStore struct {
	store *Store
}

var _ driven.SourceStore = (*sourceStore)(nil)

const sourceColumns = `id, type, name, config, auth_provider_id, credentials_id, created_at, updated_at`

func (s *sourceStore) Save(ctx context.Context, src domain.Source) error {
	if src.ID == "" {
		return domain.ErrInvalidInput
	}
	stampSave(&src.CreatedAt, &src.UpdatedAt)

	config := src.Config
	if config == nil {
		config = map[string]string{}
	}
	cfg, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("encoding config for %s: %w", src.ID, err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO sources (`+sourceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			name = excluded.name,
			config = excluded.config,
			auth_provider_id = excluded.auth_provider_id,
			credentials_id = excluded.credentials_id,
			updated_at = excluded.updated_at`,
		src.ID, src.Type, src.Name, string(cfg),
		nullString(src.AuthProviderID), nullString(src.CredentialsID),
		toNanos(src.CreatedAt), toNanos(src.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving source %s: %w", src.ID, err)
	}
	return nil
}

func (s *sourceStore) Get(ctx context.Context, id string) (*domain.Source, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+sourceColumns+` FROM sources WHERE id = ?`, id)
	src, err := scanSource(row)
	if err != nil {
		return nil, notFound(err)
	}
	return src, nil
}

func (s *sourceStore) Delete(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting source %s: %w", id, err)
	}
	return nil
}

func (s *sourceStore) List(ctx context.Context) ([]domain.Source, error) {
	list, err := queryAll(ctx, s.store.db, scanSource, `SELECT `+sourceColumns+` FROM sources ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	return list, nil
}

func scanSource(row rowScanner) (*domain.Source, error) {
	var (
		src              domain.Source
		cfg              string
		provider, credID sql.NullString
		created, updated int64
	)
	if err := row.Scan(&src.ID, &src.Type, &src.Name, &cfg, &provider, &credID, &created, &updated); err != nil {
		return nil, err
	}
	if cfg != "" {
		if err := json.Unmarshal([]byte(cfg), &src.Config); err != nil {
			return nil, fmt.Errorf("decoding config for %s: %w", src.ID, err)
		}
	}
	src.AuthProviderID = provider.String
	src.CredentialsID = credID.String
	src.CreatedAt = fromNanos(created)
	src.UpdatedAt = fromNanos(updated)
	return &src, nil
}

type authProviderStore struct {
	store *Store
}

var _ driven.AuthProviderStore = (*authProviderStore)(nil)

const providerColumns = `id, name, provider_type, auth_method, oauth, created_at, updated_at`

func (s *authProviderStore) Save(ctx context.Context, p domain.AuthProvider) error {
	if p.ID == "" {
		return domain.ErrInvalidInput
	}
	stampSave(&p.CreatedAt, &p.UpdatedAt)

	oauth, err := jsonColumn(p.OAuth)
	if err != nil {
		return fmt.Errorf("encoding oauth config for %s: %w", p.ID, err)
	}
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO auth_providers (`+providerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			provider_type = excluded.provider_type,
			auth_method = excluded.auth_method,
			oauth = excluded.oauth,
			updated_at = excluded.updated_at`,
		p.ID, p.Name, string(p.ProviderType), string(p.AuthMethod), oauth,
		toNanos(p.CreatedAt), toNanos(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving auth provider %s: %w", p.ID, err)
	}
	return nil
}

func (s *authProviderStore) Get(ctx context.Context, id string) (*domain.AuthProvider, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+providerColumns+` FROM auth_providers WHERE id = ?`, id)
	p, err := scanProvider(row)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (s *authProviderStore) List(ctx context.Context) ([]domain.AuthProvider, error) {
	return s.ListByProvider(ctx, "")
}

func (s *authProviderStore) ListByProvider(ctx context.Context, providerType domain.ProviderType) ([]domain.AuthProvider, error) {
	q := `SELECT ` + providerColumns + ` FROM auth_providers`
	var args []any
	if providerType != "" {
		q += ` WHERE provider_type = ?`
		args = append(args, string(providerType))
	}
	list, err := queryAll(ctx, s.store.db, scanProvider, q+` ORDER BY name, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing auth providers: %w", err)
	}
	return list, nil
}

func (s *authProviderStore) Delete(ctx context.Context, id string) error {
	var inUse int
	if err := s.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sources WHERE auth_provider_id = ?`, id).Scan(&inUse); err != nil {
		return fmt.Errorf("checking auth provider %s: %w", id, err)
	}
	if inUse > 0 {
		return fmt.Errorf("%w: %d source(s)", domain.ErrAuthProviderInUse, inUse)
	}
	if _, err := s.store.db.ExecContext(ctx, `DELETE FROM auth_providers WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting auth provider %s: %w", id, err)
	}
	return nil
}

func scanProvider(row rowScanner) (*domain.AuthProvider, error) {
	var (
		p                    domain.AuthProvider
		providerType, method string
		oauth                sql.NullString
		created, updated     int64
	)
	if err := row.Scan(&p.ID, &p.Name, &providerType, &method, &oauth, &created, &updated); err != nil {
		return nil, err
	}
	cfg, err := fromJSONColumn[domain.OAuthProviderConfig](oauth)
	if err != nil {
		return nil, fmt.Errorf("decoding oauth config for %s: %w", p.ID, err)
	}
	p.ProviderType = domain.ProviderType(providerType)
	p.AuthMethod = domain.AuthMethod(method)
	p.OAuth = cfg
	p.CreatedAt = fromNanos(created)
	p.UpdatedAt = fromNanos(updated)
	return &p, nil
}

type credentialsStore struct {
	store *Store
}

var _ driven.CredentialsStore = (*credentialsStore)(nil)

const credentialColumns = `id, source_id, account_identifier, oauth, pat, created_at, updated_at`

func (s *credentialsStore) Save(ctx context.Context, c domain.Credentials) error {
	if c.ID == "" || c.SourceID == "" {
		return domain.ErrInvalidInput
	}
	stampSave(&c.CreatedAt, &c.UpdatedAt)

	oauth, err := jsonColumn(c.OAuth)
	if err != nil {
		return fmt.Errorf("encoding oauth token for %s: %w", c.ID, err)
	}
	pat, err := jsonColumn(c.PAT)
	if err != nil {
		return fmt.Errorf("encoding token for %s: %w", c.ID, err)
	}
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO credentials (`+credentialColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_id = excluded.source_id,
			account_identifier = excluded.account_identifier,
			oauth = excluded.oauth,
			pat = excluded.pat,
			updated_at = excluded.updated_at`,
		c.ID, c.SourceID, c.AccountIdentifier, oauth, pat,
		toNanos(c.CreatedAt), toNanos(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving credentials %s: %w", c.ID, err)
	}
	return nil
}

func (s *credentialsStore) Get(ctx context.Context, id string) (*domain.Credentials, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE id = ?`, id)
	c, err := scanCredentials(row)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (s *credentialsStore) GetBySourceID(ctx context.Context, sourceID string) (*domain.Credentials, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE source_id = ? ORDER BY updated_at DESC LIMIT 1`, sourceID)
	c, err := scanCredentials(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (s *credentialsStore) Delete(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting credentials %s: %w", id, err)
	}
	return nil
}

func scanCredentials(row rowScanner) (*domain.Credentials, error) {
	var (
		c                domain.Credentials
		oauth, pat       sql.NullString
		created, updated int64
	)
	if err := row.Scan(&c.ID, &c.SourceID, &c.AccountIdentifier, &oauth, &pat, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if c.OAuth, err = fromJSONColumn[domain.OAuthCredentials](oauth); err != nil {
		return nil, fmt.Errorf("decoding oauth token for %s: %w", c.ID, err)
	}
	if c.PAT, err = fromJSONColumn[domain.PATCredentials](pat); err != nil {
		return nil, fmt.Errorf("decoding token for %s: %w", c.ID, err)
	}
	c.CreatedAt = fromNanos(created)
	c.UpdatedAt = fromNanos(updated)
	return &c, nil
}
