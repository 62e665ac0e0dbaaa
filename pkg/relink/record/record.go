// Package record defines the input value types of the reconciliation
// pipeline. Listings and products are never mutated after construction;
// per-listing diagnostics live in the report package instead.
package record

import (
	"fmt"
	"strconv"

	"github.com/cognicore/relink/pkg/relink/internalerr"
)

// Product is a canonical catalog entry. All fields are strings, so the
// struct is comparable and usable as a map key; match results are keyed by
// the full field tuple.
type Product struct {
	ProductName   string `json:"product_name"`
	Manufacturer  string `json:"manufacturer"`
	Model         string `json:"model"`
	Family        string `json:"family,omitempty"`
	AnnouncedDate string `json:"announced-date"`
}

// Listing is a marketplace entry offered by a third-party seller. Price is
// kept as the decimal string it arrived as; cost computation parses it on
// demand.
type Listing struct {
	Title        string `json:"title"`
	Manufacturer string `json:"manufacturer"`
	Currency     string `json:"currency"`
	Price        string `json:"price"`
}

// Common currency codes seen in listing feeds. The set of currencies the
// pipeline can cost is defined by the configured ratio table, not by this
// list.
const (
	USD = "USD"
	CAD = "CAD"
	EUR = "EUR"
	GBP = "GBP"
)

// PriceValue parses the listing's decimal price string.
func (l Listing) PriceValue() (float64, error) {
	v, err := strconv.ParseFloat(l.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", l.Price, internalerr.ErrInvalidInput)
	}
	return v, nil
}

// ValidateProducts checks that every product carries its required fields.
// Family is optional. The first offending record fails the whole batch.
func ValidateProducts(products []Product) error {
	for i, p := range products {
		switch {
		case p.ProductName == "":
			return fmt.Errorf("product %d: missing product_name: %w", i, internalerr.ErrInvalidInput)
		case p.Manufacturer == "":
			return fmt.Errorf("product %d (%s): missing manufacturer: %w", i, p.ProductName, internalerr.ErrInvalidInput)
		case p.Model == "":
			return fmt.Errorf("product %d (%s): missing model: %w", i, p.ProductName, internalerr.ErrInvalidInput)
		case p.AnnouncedDate == "":
			return fmt.Errorf("product %d (%s): missing announced-date: %w", i, p.ProductName, internalerr.ErrInvalidInput)
		}
	}
	return nil
}

// ValidateListings checks that every listing carries its required fields and
// a parseable price. The first offending record fails the whole batch.
func ValidateListings(listings []Listing) error {
	for i, l := range listings {
		switch {
		case l.Title == "":
			return fmt.Errorf("listing %d: missing title: %w", i, internalerr.ErrInvalidInput)
		case l.Manufacturer == "":
			return fmt.Errorf("listing %d (%s): missing manufacturer: %w", i, l.Title, internalerr.ErrInvalidInput)
		case l.Currency == "":
			return fmt.Errorf("listing %d (%s): missing currency: %w", i, l.Title, internalerr.ErrInvalidInput)
		case l.Price == "":
			return fmt.Errorf("listing %d (%s): missing price: %w", i, l.Title, internalerr.ErrInvalidInput)
		}
		if _, err := l.PriceValue(); err != nil {
			return fmt.Errorf("listing %d (%s): %w", i, l.Title, err)
		}
	}
	return nil
}
