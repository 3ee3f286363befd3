package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"knowledge_sync/internal/domain"
)

const integrationColumns = `
	id, user_id, provider, access_token, refresh_token, expires_at, metadata, created_at, updated_at`

type IntegrationStore struct {
	db *sqlx.DB
}

func NewIntegrationStore(db *sqlx.DB) *IntegrationStore {
	return &IntegrationStore{db: db}
}

func (s *IntegrationStore) Get(ctx context.Context, userID, provider string) (*domain.Integration, error) {
	var in domain.Integration
	query := `SELECT ` + integrationColumns + ` FROM integrations WHERE user_id = $1 AND provider = $2`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &in, query, userID, provider)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrIntegrationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get integration: %w", err)
	}
	return &in, nil
}

// Upsert stores a connection, replacing tokens and metadata of an existing
// one, and returns the row id.
func (s *IntegrationStore) Upsert(ctx context.Context, in *domain.Integration) (int64, error) {
	query := `
		INSERT INTO integrations (user_id, provider, access_token, refresh_token, expires_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			metadata = EXCLUDED.metadata,
			updated_at = NOW()
		RETURNING id`

	var id int64
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		in.UserID,
		in.Provider,
		in.AccessToken,
		in.RefreshToken,
		in.ExpiresAt,
		in.Metadata,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert integration: %w", err)
	}
	return id, nil
}

func (s *IntegrationStore) UpdateCredentials(ctx context.Context, userID, provider string, creds domain.Credentials) error {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, `
		UPDATE integrations SET
			access_token = $3,
			refresh_token = $4,
			expires_at = $5,
			updated_at = NOW()
		WHERE user_id = $1 AND provider = $2`,
		userID, provider, creds.AccessToken, creds.RefreshToken, creds.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("update credentials: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrIntegrationNotFound
	}
	return nil
}

// Delete removes the integration. Sync state and ingested items go with it.
func (s *IntegrationStore) Delete(ctx context.Context, userID, provider string) error {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM integrations WHERE user_id = $1 AND provider = $2`,
		userID, provider,
	)
	if err != nil {
		return fmt.Errorf("delete integration: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrIntegrationNotFound
	}
	return nil
}

func (s *IntegrationStore) ListByUser(ctx context.Context, userID string) ([]*domain.Integration, error) {
	query := `SELECT ` + integrationColumns + ` FROM integrations WHERE user_id = $1 ORDER BY provider`

	var out []*domain.Integration
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &out, query, userID); err != nil {
		return nil, fmt.Errorf("list integrations: %w", err)
	}
	return out, nil
}
