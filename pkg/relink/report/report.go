// Package report is the diagnostics side channel of a reconciliation run.
// Input listings are never annotated in place; everything a collaborator
// needs to bucket misses lives here, keyed by listing index.
package report

import (
	"crypto/rand"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/relink/pkg/relink/match"
)

// ListingDiag carries per-listing diagnostics: how confidently the listing
// was classified, what its manufacturer resolved to (empty if unresolved),
// the best and runner-up candidate scores, and why it missed, if it did.
type ListingDiag struct {
	Index               int
	ClassificationScore float64
	Manufacturer        string
	BestProduct         string
	BestScore           float64
	RunnerUpScore       float64
	Reason              match.MissReason
	Pruned              bool
}

// Report aggregates one run's diagnostics.
type Report struct {
	RunID     string
	StartedAt time.Time
	Listings  []ListingDiag
}

// Builder mints reports with monotonic ULID run IDs.
type Builder struct {
	entropy *ulid.MonotonicEntropy
}

// NewBuilder creates a report builder.
func NewBuilder() *Builder {
	return &Builder{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// New starts a report for a batch of n listings.
func (b *Builder) New(n int) *Report {
	now := time.Now()
	return &Report{
		RunID:     ulid.MustNew(ulid.Timestamp(now), b.entropy).String(),
		StartedAt: now,
		Listings:  make([]ListingDiag, n),
	}
}

// Matched returns the indices of listings that matched and survived pruning.
func (r *Report) Matched() []int {
	var out []int
	for _, d := range r.Listings {
		if d.Reason == match.MissNone && !d.Pruned {
			out = append(out, d.Index)
		}
	}
	return out
}

// Buckets groups missed listings by miss category, each bucket in listing
// order. Pruned listings get their own bucket under "pruned".
func (r *Report) Buckets() map[string][]int {
	buckets := make(map[string][]int)
	for _, d := range r.Listings {
		switch {
		case d.Pruned:
			buckets["pruned"] = append(buckets["pruned"], d.Index)
		case d.Reason != match.MissNone:
			buckets[string(d.Reason)] = append(buckets[string(d.Reason)], d.Index)
		}
	}
	for _, idxs := range buckets {
		sort.Ints(idxs)
	}
	return buckets
}
