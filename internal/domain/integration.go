package domain

import "time"

// Credentials are the provider tokens for one integration.
type Credentials struct {
	AccessToken  string     `db:"access_token" json:"-"`
	RefreshToken string     `db:"refresh_token" json:"-"`
	ExpiresAt    *time.Time `db:"expires_at" json:"expires_at,omitempty"`
}

// Empty reports whether there is nothing to authenticate with.
func (c Credentials) Empty() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}

// Integration is one connected provider for one user.
type Integration struct {
	ID       int64   `db:"id" json:"id"`
	UserID   string  `db:"user_id" json:"user_id"`
	Provider string  `db:"provider" json:"provider"`
	Metadata JSONMap `db:"metadata" json:"metadata"`
	Credentials
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IntegrationStatus is the connected-integration status view.
type IntegrationStatus struct {
	Provider    string     `json:"provider"`
	DisplayName string     `json:"display_name"`
	State       *SyncState `json:"state"`
}
