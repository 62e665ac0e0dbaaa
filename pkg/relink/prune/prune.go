// Package prune removes statistically anomalous cheap listings from a
// product's match set. The check is asymmetric: cheap mismatches (bundled
// accessories, spare parts) are far more common than expensive ones, so
// only the low side of the price distribution is cut.
package prune

import (
	"math"

	"github.com/cognicore/relink/pkg/relink/record"
)

// Defaults for the pruning parameters.
const (
	DefaultSanityFactor = 1.5
	DefaultSDThreshold  = 0.1
)

// Outliers returns the indices of costs lying sanityFactor or more sample
// standard deviations below the mean. Fewer than 3 samples, or a spread
// below mean*sdThreshold, yields no outliers: too little data or too little
// variance to tell a mismatch from noise. The n-1 denominator needs at
// least 2 samples; the >=3 precondition covers it.
func Outliers(costs []float64, sanityFactor, sdThreshold float64) []int {
	if len(costs) < 3 {
		return nil
	}

	var sum float64
	for _, c := range costs {
		sum += c
	}
	mean := sum / float64(len(costs))

	var sq float64
	for _, c := range costs {
		d := c - mean
		sq += d * d
	}
	sd := math.Sqrt(sq / float64(len(costs)-1))

	if sd < mean*sdThreshold {
		return nil
	}

	var out []int
	for i, c := range costs {
		if mean-c >= sd*sanityFactor {
			out = append(out, i)
		}
	}
	return out
}

// ByCost prunes each product's match set in place. Cost converts a listing
// to USD; it is only ever called on listings that already passed cost-based
// classification, so an error here means the match set was corrupted and
// aborts the prune. Listings are removed, never reassigned.
func ByCost(matches map[record.Product][]record.Listing, cost func(record.Listing) (float64, error), sanityFactor, sdThreshold float64) error {
	for p, listings := range matches {
		if len(listings) < 3 {
			continue
		}
		costs := make([]float64, len(listings))
		for i, l := range listings {
			c, err := cost(l)
			if err != nil {
				return err
			}
			costs[i] = c
		}
		drop := Outliers(costs, sanityFactor, sdThreshold)
		if len(drop) == 0 {
			continue
		}
		kept := make([]record.Listing, 0, len(listings)-len(drop))
		di := 0
		for i, l := range listings {
			if di < len(drop) && drop[di] == i {
				di++
				continue
			}
			kept = append(kept, l)
		}
		matches[p] = kept
	}
	return nil
}
