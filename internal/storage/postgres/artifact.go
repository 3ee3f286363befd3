package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"knowledge_sync/internal/domain"
)

// ArtifactStore persists the records derived from ingested items. Each write
// is keyed so re-ingesting an item overwrites instead of duplicating.
type ArtifactStore struct {
	db *sqlx.DB
}

func NewArtifactStore(db *sqlx.DB) *ArtifactStore {
	return &ArtifactStore{db: db}
}

func (s *ArtifactStore) SaveCapture(ctx context.Context, c *domain.Capture) (string, error) {
	query := `
		INSERT INTO captures (id, user_id, source_item_id, capture_type, title, content, project_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, source_item_id) DO UPDATE SET
			capture_type = EXCLUDED.capture_type,
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			project_id = COALESCE(EXCLUDED.project_id, captures.project_id)
		RETURNING id`

	var id string
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		uuid.NewString(), c.UserID, c.SourceItemID, c.Type, c.Title, c.Content, c.ProjectID,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("save capture: %w", err)
	}
	return id, nil
}

func (s *ArtifactStore) SaveMemory(ctx context.Context, m *domain.Memory) (string, error) {
	query := `
		INSERT INTO memories (id, user_id, key, value, category, confidence, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, key) DO UPDATE SET
			value = EXCLUDED.value,
			category = EXCLUDED.category,
			confidence = EXCLUDED.confidence,
			source = EXCLUDED.source,
			updated_at = NOW()
		RETURNING id`

	var id string
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		uuid.NewString(), m.UserID, m.Key, m.Value, m.Category, m.Confidence, m.Source,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("save memory %s: %w", m.Key, err)
	}
	return id, nil
}

func (s *ArtifactStore) SaveTask(ctx context.Context, t *domain.Task) (string, error) {
	query := `
		INSERT INTO tasks (
			id, user_id, source_item_id, project_id, title, description,
			priority, ai_suggested, rationale, due_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, source_item_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			priority = EXCLUDED.priority,
			rationale = EXCLUDED.rationale,
			due_at = EXCLUDED.due_at,
			project_id = COALESCE(EXCLUDED.project_id, tasks.project_id)
		RETURNING id`

	var id string
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		uuid.NewString(), t.UserID, t.SourceItemID, t.ProjectID, t.Title, t.Description,
		t.Priority, t.AISuggested, t.Rationale, t.DueAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("save task: %w", err)
	}
	return id, nil
}

func (s *ArtifactStore) ListMemories(ctx context.Context, userID string) ([]*domain.Memory, error) {
	var out []*domain.Memory
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &out, `
		SELECT id, user_id, key, value, category, confidence, source, created_at
		FROM memories WHERE user_id = $1 ORDER BY key`, userID)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	return out, nil
}

func (s *ArtifactStore) ListTasks(ctx context.Context, userID string) ([]*domain.Task, error) {
	var out []*domain.Task
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &out, `
		SELECT id, user_id, source_item_id, project_id, title, description, priority,
			ai_suggested, rationale, due_at, created_at
		FROM tasks WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return out, nil
}
