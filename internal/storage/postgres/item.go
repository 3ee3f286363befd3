package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"knowledge_sync/internal/domain"
)

const (
	defaultItemLimit = 50
	// similarityScanFactor bounds how many embedded rows are ranked in Go per
	// requested result.
	similarityScanFactor = 20
)

const itemColumns = `
	id, user_id, provider, source_id, source_url, item_type, title, content,
	raw_data, metadata, status, content_hash, occurred_at, created_at, updated_at`

type ItemStore struct {
	db *sqlx.DB
}

func NewItemStore(db *sqlx.DB) *ItemStore {
	return &ItemStore{db: db}
}

// Upsert inserts the item or updates it when its content hash changed. An
// unchanged hash leaves the row untouched and reports neither new nor changed;
// Retry is set when that row is still pending or failed.
func (s *ItemStore) Upsert(ctx context.Context, item *domain.IngestedItem) (*domain.UpsertResult, error) {
	query := `
		INSERT INTO ingested_items (
			id, user_id, provider, source_id, source_url, item_type, title, content,
			raw_data, metadata, status, content_hash, occurred_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
		ON CONFLICT (user_id, provider, source_id) DO UPDATE SET
			source_url = EXCLUDED.source_url,
			item_type = EXCLUDED.item_type,
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			raw_data = EXCLUDED.raw_data,
			metadata = EXCLUDED.metadata,
			status = EXCLUDED.status,
			content_hash = EXCLUDED.content_hash,
			occurred_at = EXCLUDED.occurred_at,
			embedding = NULL,
			updated_at = NOW()
		WHERE ingested_items.content_hash IS DISTINCT FROM EXCLUDED.content_hash
		RETURNING id, created_at, updated_at, (xmax = 0) AS inserted`

	exec := GetExecutor(ctx, s.db)

	var row struct {
		ID        string    `db:"id"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
		Inserted  bool      `db:"inserted"`
	}
	err := exec.QueryRowxContext(ctx, query,
		uuid.NewString(),
		item.UserID,
		item.Provider,
		item.SourceID,
		item.SourceURL,
		item.ItemType,
		item.Title,
		item.Content,
		item.RawData,
		item.Metadata,
		item.Status,
		item.ContentHash,
		item.OccurredAt,
	).StructScan(&row)

	if errors.Is(err, sql.ErrNoRows) {
		existing, err := s.getBySource(ctx, item.UserID, item.Provider, item.SourceID)
		if err != nil {
			return nil, fmt.Errorf("load unchanged item: %w", err)
		}
		return &domain.UpsertResult{Item: existing, Retry: existing.Unfinished()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("upsert item: %w", err)
	}

	stored := *item
	stored.ID = row.ID
	stored.CreatedAt = row.CreatedAt
	stored.UpdatedAt = row.UpdatedAt
	return &domain.UpsertResult{
		Item:    &stored,
		IsNew:   row.Inserted,
		Changed: !row.Inserted,
	}, nil
}

func (s *ItemStore) Get(ctx context.Context, id string) (*domain.IngestedItem, error) {
	var item domain.IngestedItem
	query := `SELECT ` + itemColumns + ` FROM ingested_items WHERE id = $1`
	if err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *ItemStore) getBySource(ctx context.Context, userID, provider, sourceID string) (*domain.IngestedItem, error) {
	var item domain.IngestedItem
	query := `SELECT ` + itemColumns + `
		FROM ingested_items
		WHERE user_id = $1 AND provider = $2 AND source_id = $3`
	if err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &item, query, userID, provider, sourceID); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *ItemStore) SetStatus(ctx context.Context, id string, status domain.ItemStatus) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`UPDATE ingested_items SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("set item status: %w", err)
	}
	return nil
}

func (s *ItemStore) SetEmbedding(ctx context.Context, id string, vector []float64) error {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`UPDATE ingested_items SET embedding = $2 WHERE id = $1`,
		id, pq.Float64Array(vector),
	)
	if err != nil {
		return fmt.Errorf("set item embedding: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListRecent returns items newest first.
func (s *ItemStore) ListRecent(ctx context.Context, userID string, f domain.ItemFilter) ([]*domain.IngestedItem, error) {
	where, args := filterClause(userID, f)
	query := `SELECT ` + itemColumns + ` FROM ingested_items WHERE ` + where +
		fmt.Sprintf(` ORDER BY occurred_at DESC LIMIT %d`, limitOf(f))

	var items []*domain.IngestedItem
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &items, query, args...); err != nil {
		return nil, fmt.Errorf("list recent items: %w", err)
	}
	return items, nil
}

// ListMissingEmbeddings returns processed items that still have no vector,
// oldest first.
func (s *ItemStore) ListMissingEmbeddings(ctx context.Context, limit int) ([]*domain.IngestedItem, error) {
	query := `SELECT ` + itemColumns + `
		FROM ingested_items
		WHERE embedding IS NULL AND status = $1
		ORDER BY created_at
		LIMIT $2`

	var items []*domain.IngestedItem
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &items, query, domain.ItemStatusProcessed, limit); err != nil {
		return nil, fmt.Errorf("list items without embeddings: %w", err)
	}
	return items, nil
}

// SearchByTerms matches any term as a case-insensitive substring of the
// title or content.
func (s *ItemStore) SearchByTerms(ctx context.Context, userID string, terms []string, f domain.ItemFilter) ([]*domain.IngestedItem, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	patterns := make([]string, 0, len(terms))
	for _, t := range terms {
		patterns = append(patterns, "%"+escapeLike(t)+"%")
	}

	where, args := filterClause(userID, f)
	args = append(args, pq.Array(patterns))
	p := len(args)
	query := `SELECT ` + itemColumns + ` FROM ingested_items WHERE ` + where +
		fmt.Sprintf(` AND (title ILIKE ANY($%d) OR content ILIKE ANY($%d))`, p, p) +
		fmt.Sprintf(` ORDER BY occurred_at DESC LIMIT %d`, limitOf(f))

	var items []*domain.IngestedItem
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &items, query, args...); err != nil {
		return nil, fmt.Errorf("search items by terms: %w", err)
	}
	return items, nil
}

type embeddedItem struct {
	domain.IngestedItem
	Vector pq.Float64Array `db:"embedding"`
}

// SearchSimilar ranks embedded items by cosine similarity to vector and
// returns those at or above minScore, most similar first.
func (s *ItemStore) SearchSimilar(ctx context.Context, userID string, vector []float64, minScore float64, f domain.ItemFilter) ([]*domain.IngestedItem, error) {
	if len(vector) == 0 {
		return nil, nil
	}

	limit := limitOf(f)
	where, args := filterClause(userID, f)
	query := `SELECT ` + itemColumns + `, embedding FROM ingested_items WHERE ` + where +
		` AND embedding IS NOT NULL` +
		fmt.Sprintf(` ORDER BY occurred_at DESC LIMIT %d`, limit*similarityScanFactor)

	var rows []embeddedItem
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("search similar items: %w", err)
	}

	type match struct {
		item  *domain.IngestedItem
		score float64
	}
	matches := make([]match, 0, len(rows))
	for i := range rows {
		score := cosineSimilarity(vector, rows[i].Vector)
		if score < minScore {
			continue
		}
		item := rows[i].IngestedItem
		item.Embedding = rows[i].Vector
		matches = append(matches, match{item: &item, score: score})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })

	if len(matches) > limit {
		matches = matches[:limit]
	}
	items := make([]*domain.IngestedItem, len(matches))
	for i, m := range matches {
		items[i] = m.item
	}
	return items, nil
}

func filterClause(userID string, f domain.ItemFilter) (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{userID}

	if len(f.Providers) > 0 {
		args = append(args, pq.Array(f.Providers))
		conds = append(conds, fmt.Sprintf("provider = ANY($%d)", len(args)))
	}
	if len(f.ItemTypes) > 0 {
		types := make([]string, len(f.ItemTypes))
		for i, t := range f.ItemTypes {
			types[i] = string(t)
		}
		args = append(args, pq.Array(types))
		conds = append(conds, fmt.Sprintf("item_type = ANY($%d)", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if !f.Since.IsZero() {
		args = append(args, f.Since)
		conds = append(conds, fmt.Sprintf("occurred_at >= $%d", len(args)))
	}
	return strings.Join(conds, " AND "), args
}

func limitOf(f domain.ItemFilter) int {
	if f.Limit <= 0 {
		return defaultItemLimit
	}
	return f.Limit
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
