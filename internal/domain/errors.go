package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSyncInProgress means another run holds the (user, provider) lock.
	// Callers treat it as a skip.
	ErrSyncInProgress        = errors.New("sync already in progress")
	ErrIntegrationNotFound   = errors.New("integration not found")
	ErrProviderNotRegistered = errors.New("provider not registered")
	ErrMissingCredentials    = errors.New("missing credentials")
	// ErrLockLost means the run's lease was taken over after it went stale,
	// so its release was refused.
	ErrLockLost              = errors.New("sync lock lost")
)

// ProviderFetchError wraps a failure from the provider collaborator
// (network, auth, rate limit). It fails the whole run.
type ProviderFetchError struct {
	Provider string
	Err      error
}

func (e *ProviderFetchError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderFetchError) Unwrap() error { return e.Err }

// ItemPersistenceError is a single-item upsert failure.
type ItemPersistenceError struct {
	SourceID string
	Err      error
}

func (e *ItemPersistenceError) Error() string {
	return fmt.Sprintf("persist item %s: %v", e.SourceID, e.Err)
}

func (e *ItemPersistenceError) Unwrap() error { return e.Err }

// DerivationError is a failure of one pipeline stage for one item.
type DerivationError struct {
	Stage string
	Err   error
}

func (e *DerivationError) Error() string {
	return fmt.Sprintf("derive %s: %v", e.Stage, e.Err)
}

func (e *DerivationError) Unwrap() error { return e.Err }

// EmbeddingError is a failure of the embedding collaborator.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }
