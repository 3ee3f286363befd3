package domain

import "time"

type CaptureType string

const (
	CaptureTypeNote     CaptureType = "note"
	CaptureTypeTask     CaptureType = "task"
	CaptureTypeResource CaptureType = "resource"
)

// Capture is a lightweight record derived from an ingested item for display.
type Capture struct {
	ID           string      `db:"id" json:"id"`
	UserID       string      `db:"user_id" json:"user_id"`
	SourceItemID *string     `db:"source_item_id" json:"source_item_id"`
	Type         CaptureType `db:"capture_type" json:"capture_type"`
	Title        string      `db:"title" json:"title"`
	Content      string      `db:"content" json:"content"`
	ProjectID    *string     `db:"project_id" json:"project_id"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}

// Memory is a key/value fact kept for AI recall.
type Memory struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Key        string    `db:"key" json:"key"`
	Value      string    `db:"value" json:"value"`
	Category   string    `db:"category" json:"category"`
	Confidence int       `db:"confidence" json:"confidence"`
	Source     string    `db:"source" json:"source"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Task is an AI-suggested task derived from an item.
type Task struct {
	ID           string     `db:"id" json:"id"`
	UserID       string     `db:"user_id" json:"user_id"`
	SourceItemID *string    `db:"source_item_id" json:"source_item_id"`
	ProjectID    *string    `db:"project_id" json:"project_id"`
	Title        string     `db:"title" json:"title"`
	Description  string     `db:"description" json:"description"`
	Priority     Priority   `db:"priority" json:"priority"`
	AISuggested  bool       `db:"ai_suggested" json:"ai_suggested"`
	Rationale    string     `db:"rationale" json:"rationale"`
	DueAt        *time.Time `db:"due_at" json:"due_at"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}
