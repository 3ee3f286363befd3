package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// ItemType is the normalized kind of an ingested item.
type ItemType string

const (
	ItemTypeNote      ItemType = "note"
	ItemTypeHighlight ItemType = "highlight"
	ItemTypeMeeting   ItemType = "meeting"
	ItemTypeTask      ItemType = "task"
	ItemTypeMessage   ItemType = "message"
	ItemTypeArticle   ItemType = "article"
	ItemTypeBookmark  ItemType = "bookmark"
	ItemTypeDocument  ItemType = "document"
	ItemTypeEmail     ItemType = "email"
	ItemTypeComment   ItemType = "comment"
	ItemTypeIssue     ItemType = "issue"
	ItemTypeClip      ItemType = "clip"
)

// ItemStatus tracks an ingested item through the pipeline.
type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "pending"
	ItemStatusProcessed ItemStatus = "processed"
	ItemStatusSkipped   ItemStatus = "skipped"
	ItemStatusFailed    ItemStatus = "failed"
)

// Priority is the task priority hint carried by an item.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Hints are processing hints a provider attaches to an item.
type Hints struct {
	CreateTask bool
	Priority   Priority
}

// StandardIngestItem is what a provider client emits. Type may be a provider
// specific label ("page", "thread", "event"); NormalizeItem resolves it.
type StandardIngestItem struct {
	SourceID   string
	SourceURL  string
	Type       string
	Title      string
	Content    string
	Summary    string
	Author     string
	Tags       []string
	OccurredAt time.Time
	Metadata   map[string]any
	RawData    json.RawMessage
	Hints      Hints
}

// IngestedItem is the persisted, normalized form of one external record.
type IngestedItem struct {
	ID          string     `db:"id"`
	UserID      string     `db:"user_id"`
	Provider    string     `db:"provider"`
	SourceID    string     `db:"source_id"`
	SourceURL   string     `db:"source_url"`
	ItemType    ItemType   `db:"item_type"`
	Title       string     `db:"title"`
	Content     string     `db:"content"`
	RawData     RawJSON    `db:"raw_data"`
	Metadata    JSONMap    `db:"metadata"`
	Status      ItemStatus `db:"status"`
	ContentHash string     `db:"content_hash"`
	OccurredAt  time.Time  `db:"occurred_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	Embedding   []float64  `db:"-"`
}

// Timestamp is the moment used for recency: when the item happened upstream,
// falling back to when it was first stored.
func (i *IngestedItem) Timestamp() time.Time {
	if !i.OccurredAt.IsZero() {
		return i.OccurredAt
	}
	return i.CreatedAt
}

// Tags returns the normalized tag list stored in metadata.
func (i *IngestedItem) Tags() []string {
	return i.Metadata.Strings(MetaTags)
}

// Metadata keys written by normalization.
const (
	MetaTags       = "tags"
	MetaSummary    = "summary"
	MetaAuthor     = "author"
	MetaPriority   = "priority"
	MetaDueAt      = "due_at"
	MetaStatus     = "status"
	MetaAttendees  = "attendees"
	MetaSourceType = "source_type"
)

// JSONMap is a jsonb column holding free-form metadata.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (m *JSONMap) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = JSONMap{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("jsonmap: unsupported scan type")
	}
	out := JSONMap{}
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

// String returns the value at key when it is a non-empty string.
func (m JSONMap) String(key string) string {
	s, _ := m[key].(string)
	return s
}

// Strings returns the value at key as a string slice. Values decoded from
// JSON arrive as []any and are converted element-wise.
func (m JSONMap) Strings(key string) []string {
	switch v := m[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// RawJSON is an opaque provider payload stored as jsonb.
type RawJSON []byte

func (r RawJSON) Value() (driver.Value, error) {
	if len(r) == 0 {
		return nil, nil
	}
	return string(r), nil
}

func (r *RawJSON) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*r = nil
	case []byte:
		*r = append((*r)[:0], v...)
	case string:
		*r = RawJSON(v)
	default:
		return errors.New("rawjson: unsupported scan type")
	}
	return nil
}

func (r RawJSON) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

func (r *RawJSON) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

// UpsertResult is returned by the item store's keyed upsert. Retry is set
// when the content is unchanged but an earlier pipeline run never finished
// it, so the item must go through the pipeline again.
type UpsertResult struct {
	Item    *IngestedItem
	IsNew   bool
	Changed bool
	Retry   bool
}

// Unfinished reports whether the pipeline has not yet settled the item.
func (i *IngestedItem) Unfinished() bool {
	return i.Status == ItemStatusPending || i.Status == ItemStatusFailed
}

// ItemFilter bounds item queries. Zero values mean "no constraint"; Limit
// zero lets the store pick its default.
type ItemFilter struct {
	Providers []string
	ItemTypes []ItemType
	Status    ItemStatus
	Since     time.Time
	Limit     int
}
