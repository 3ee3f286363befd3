// Package provider defines the capability every external integration
// implements and the registry the sync orchestrator looks clients up in.
package provider

import (
	"context"
	"sort"
	"sync"
	"time"

	"knowledge_sync/internal/domain"
)

// Account is what a client needs to talk to a provider on behalf of one user.
type Account struct {
	UserID      string
	Credentials domain.Credentials
	// Settings are the provider specific integration settings (channel ids,
	// database ids, feed urls) stored with the integration metadata.
	Settings domain.JSONMap
}

// FetchPage is one page of provider items. An empty NextCursor means the
// provider has nothing more to return for this run.
type FetchPage struct {
	Items      []domain.StandardIngestItem
	NextCursor string
}

// Client is the uniform provider capability. Pagination, transport retries
// and token refresh stay inside the implementation.
type Client interface {
	Provider() string
	FetchItems(ctx context.Context, acct Account, since time.Time, cursor string) (*FetchPage, error)
	GetAccountInfo(ctx context.Context, acct Account) (map[string]any, error)
	RefreshIfNeeded(ctx context.Context, creds domain.Credentials) (domain.Credentials, bool, error)
}

// Anonymous is implemented by clients that can run without credentials
// (public feeds).
type Anonymous interface {
	RequiresCredentials() bool
}

// RequiresCredentials reports whether c needs stored tokens to sync.
func RequiresCredentials(c Client) bool {
	if a, ok := c.(Anonymous); ok {
		return a.RequiresCredentials()
	}
	return true
}

// Registry is the injected provider capability table.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
}

func NewRegistry(clients ...Client) *Registry {
	r := &Registry{clients: make(map[string]Client, len(clients))}
	for _, c := range clients {
		r.Register(c)
	}
	return r
}

func (r *Registry) Register(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.Provider()] = c
}

func (r *Registry) Client(provider string) (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[provider]
	return c, ok
}

// Providers returns the registered provider ids, sorted.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StaticTokens is embedded by clients whose tokens never expire.
type StaticTokens struct{}

func (StaticTokens) RefreshIfNeeded(_ context.Context, creds domain.Credentials) (domain.Credentials, bool, error) {
	return creds, false, nil
}
