// Package classify decides whether a listing is in-domain (an actual camera
// rather than an accessory) with a fixed linear heuristic over price and
// title text. Implementations may swap the model but must keep the
// inputs/outputs contract: listing in, confidence score out, in-domain at
// or above the threshold.
package classify

import (
	"fmt"
	"strings"

	"github.com/cognicore/relink/pkg/relink/internalerr"
	"github.com/cognicore/relink/pkg/relink/record"
)

// RelevanceThreshold is the confidence at or above which a listing is
// considered in-domain.
const RelevanceThreshold = 0.5

// DefaultCurrencyRatios converts listing prices to USD. Fixed multipliers,
// injected so drivers can override them from config.
var DefaultCurrencyRatios = map[string]float64{
	record.USD: 1,
	record.CAD: 0.75,
	record.EUR: 1.1,
	record.GBP: 1.5,
}

// Classifier scores listings against the injected currency table. Stateless
// beyond the table; safe for concurrent use.
type Classifier struct {
	ratios map[string]float64
}

// New creates a Classifier. A nil ratio table selects the defaults.
func New(ratios map[string]float64) *Classifier {
	if ratios == nil {
		ratios = DefaultCurrencyRatios
	}
	return &Classifier{ratios: ratios}
}

// Cost returns the listing's USD-normalized price. An unmapped currency
// code yields ErrUnknownCurrency; the caller decides whether that fails the
// run or just the listing.
func (c *Classifier) Cost(l record.Listing) (float64, error) {
	ratio, ok := c.ratios[l.Currency]
	if !ok {
		return 0, fmt.Errorf("currency %q: %w", l.Currency, internalerr.ErrUnknownCurrency)
	}
	price, err := l.PriceValue()
	if err != nil {
		return 0, err
	}
	return price * ratio, nil
}

// Score computes the confidence that a listing is in-domain.
//
// The price bracket is mutually exclusive: exactly one of the <30/<50/<100
// bands replaces the starting score. Title adjustments are independent
// case-insensitive substring tests and accumulate on top.
func (c *Classifier) Score(l record.Listing) (float64, error) {
	cost, err := c.Cost(l)
	if err != nil {
		return 0, err
	}

	score := 1.0
	switch {
	case cost < 30:
		score = 0.1
	case cost < 50:
		score = 0.3
	case cost < 100:
		score = 0.5
	}

	title := strings.ToUpper(l.Title)
	if strings.Contains(title, "MP") || strings.Contains(title, "MEGAPIXEL") {
		score += 0.5
	}
	if strings.Contains(title, "OPTICAL ZOOM") {
		score += 0.3
	}
	if strings.Contains(title, " FOR ") {
		// Accessory tell: "battery for X", "case for Y".
		score -= 0.2
	}
	if strings.Contains(title, " WITH ") {
		// Bundled-feature tell: "camera with 12x zoom".
		score += 0.2
	}
	return score, nil
}

// IsRelevant reports whether the listing is in-domain, along with the score
// the decision was made on.
func (c *Classifier) IsRelevant(l record.Listing) (bool, float64, error) {
	score, err := c.Score(l)
	if err != nil {
		return false, 0, err
	}
	return score >= RelevanceThreshold, score, nil
}
