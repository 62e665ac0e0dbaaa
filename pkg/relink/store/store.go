// Package store persists reconciliation runs so that matches and miss
// diagnostics can be queried after the batch exits.
package store

import (
	"context"
	"time"

	"github.com/cognicore/relink/pkg/relink/record"
)

// Store is the interface for persisting and querying run results.
type Store interface {
	Close() error

	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	ListRuns(ctx context.Context) ([]RunSummary, error)
}

// Run is one reconciliation batch: every accepted match plus every miss
// with its category.
type Run struct {
	ID        string
	StartedAt time.Time
	Matches   []Match
	Misses    []Miss
}

// Match links a listing to the product it reconciled to.
type Match struct {
	ProductName string
	Listing     record.Listing
}

// Miss records a listing that failed to reconcile and why.
type Miss struct {
	ListingIndex int
	Reason       string
	Listing      record.Listing
}

// RunSummary is the headline view of a stored run.
type RunSummary struct {
	ID        string
	StartedAt time.Time
	Matches   int
	Misses    int
}
