package domain

import "time"

type ItemAction string

const (
	ItemActionCreated ItemAction = "created"
	ItemActionUpdated ItemAction = "updated"
)

// ItemEvent announces that an ingested item was written and needs indexing.
type ItemEvent struct {
	Action    ItemAction `json:"action"`
	UserID    string     `json:"user_id"`
	ItemID    string     `json:"item_id"`
	Provider  string     `json:"provider"`
	SourceID  string     `json:"source_id"`
	Timestamp time.Time  `json:"timestamp"`
}
