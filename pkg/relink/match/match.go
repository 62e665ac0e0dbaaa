// Package match scores a listing against one manufacturer's catalog
// partition and selects the winning product under a threshold and an
// ambiguity guard.
package match

import (
	"sort"
	"strings"

	"github.com/cognicore/relink/pkg/relink/freq"
	"github.com/cognicore/relink/pkg/relink/record"
	"github.com/cognicore/relink/pkg/relink/text"
)

// AmbiguityMargin is the minimum lead the best candidate must hold over the
// runner-up. Near-ties are rejected as unreliable.
const AmbiguityMargin = 2.0

// DefaultScoreThreshold is the score a candidate must exceed to be accepted.
const DefaultScoreThreshold = 35.0

// MissReason buckets why a listing failed to match.
type MissReason string

const (
	MissNone            MissReason = ""
	MissNotRelevant     MissReason = "not-a-camera"
	MissUnknownCurrency MissReason = "unknown-currency"
	MissNoManufacturer  MissReason = "no-manufacturer"
	MissNoHits          MissReason = "no-hits"
	MissScoreTooLow     MissReason = "score-too-low"
)

// ScoreCandidates computes the additive match score of every product of the
// resolved manufacturer against the listing title's 1- and 2-grams. A token
// contributes its distinctiveness weight times the rarity dampener to every
// product owning it; products sharing no token stay at 0.
func ScoreCandidates(m *freq.Model, manufacturer, title string) map[record.Product]float64 {
	candidates := m.Products(manufacturer)
	if len(candidates) == 0 {
		return nil
	}

	scores := make(map[record.Product]float64, len(candidates))
	for _, p := range candidates {
		scores[p] = 0
	}

	words := strings.Fields(title)
	for n := 1; n <= 2; n++ {
		for _, tok := range text.NGrams(n, words) {
			info, ok := m.Lookup(manufacturer, tok)
			if !ok {
				continue
			}
			incr := info.Weight * m.Dampener(tok)
			for _, p := range info.Products {
				scores[p] += incr
			}
		}
	}
	return scores
}

// Selection is the outcome of ranking one listing's candidates. Best and
// RunnerUp are exposed for diagnostics even when the listing misses.
type Selection struct {
	Matched  bool
	Product  record.Product
	Best     float64
	RunnerUp float64
	Reason   MissReason
}

// Select ranks the scored candidates and applies the acceptance rule: the
// top product wins iff its score exceeds threshold and, when a runner-up
// exists, leads it by at least AmbiguityMargin. Candidates at score 0
// matched nothing and are never hits.
func Select(scores map[record.Product]float64, threshold float64) Selection {
	type scored struct {
		p record.Product
		s float64
	}
	hits := make([]scored, 0, len(scores))
	for p, s := range scores {
		if s > 0 {
			hits = append(hits, scored{p, s})
		}
	}
	if len(hits) == 0 {
		return Selection{Reason: MissNoHits}
	}

	// Descending score; product name breaks ties so ranking is stable
	// under map iteration order.
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].s != hits[j].s {
			return hits[i].s > hits[j].s
		}
		return hits[i].p.ProductName < hits[j].p.ProductName
	})

	sel := Selection{Best: hits[0].s}
	if len(hits) > 1 {
		sel.RunnerUp = hits[1].s
	}

	if hits[0].s <= threshold {
		sel.Reason = MissScoreTooLow
		return sel
	}
	if len(hits) > 1 && hits[0].s-hits[1].s < AmbiguityMargin {
		// Folded with score-too-low per the miss taxonomy.
		sel.Reason = MissScoreTooLow
		return sel
	}

	sel.Matched = true
	sel.Product = hits[0].p
	return sel
}
