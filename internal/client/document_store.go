package client

import (
	"context"

	"kanban-sync/internal/domain"
)

// DocumentStore reads and replaces the single shared board document
type DocumentStore interface {
	// FetchDocument returns the current document. Bare task arrays written by
	// older clients are returned as a snapshot with empty presence.
	FetchDocument(ctx context.Context) (domain.BoardSnapshot, error)
	// WriteDocument replaces the whole document
	WriteDocument(ctx context.Context, snapshot domain.BoardSnapshot) error
	// Configured reports whether the store has what it needs to be called
	Configured() bool
}

// BinCredentials identify a document on the bin service
type BinCredentials struct {
	BinID  string
	APIKey string
}

// Configured reports whether both values are present
func (c BinCredentials) Configured() bool {
	return c.BinID != "" && c.APIKey != ""
}
