package prune

import (
	"reflect"
	"testing"

	"github.com/cognicore/relink/pkg/relink/classify"
	"github.com/cognicore/relink/pkg/relink/record"
)

var nikonD90 = record.Product{ProductName: "Nikon_D90", Manufacturer: "Nikon", Model: "D90", AnnouncedDate: "2008-08-27"}

func usdListings(prices ...string) []record.Listing {
	out := make([]record.Listing, len(prices))
	for i, p := range prices {
		out[i] = record.Listing{Title: "Nikon D90", Manufacturer: "Nikon", Currency: record.USD, Price: p}
	}
	return out
}

func usdCost(l record.Listing) (float64, error) {
	return classify.New(nil).Cost(l)
}

// Prices 100,105,95,103,97,125,60: mean ~97.86, sample sd ~19.4.
func TestByCost(t *testing.T) {
	prices := []string{"100", "105", "95", "103", "97", "125", "60"}

	// Spread guard: sd (19.4) < mean*0.25 (24.5), nothing pruned at any
	// sanity factor.
	matches := map[record.Product][]record.Listing{nikonD90: usdListings(prices...)}
	if err := ByCost(matches, usdCost, 1.5, 0.25); err != nil {
		t.Fatal(err)
	}
	if len(matches[nikonD90]) != 7 {
		t.Fatalf("sd_threshold=0.25: %d retained, want 7", len(matches[nikonD90]))
	}
	if err := ByCost(matches, usdCost, 2.5, 0.25); err != nil {
		t.Fatal(err)
	}
	if len(matches[nikonD90]) != 7 {
		t.Fatalf("sanity_factor=2.5: %d retained, want 7", len(matches[nikonD90]))
	}

	// Defaults: cutoff is mean - 1.5*sd ~ 68.76, only the 60 goes.
	if err := ByCost(matches, usdCost, DefaultSanityFactor, DefaultSDThreshold); err != nil {
		t.Fatal(err)
	}
	retained := matches[nikonD90]
	if len(retained) != 6 {
		t.Fatalf("defaults: %d retained, want 6", len(retained))
	}
	for _, l := range retained {
		if l.Price == "60" {
			t.Error("the 60 outlier survived pruning")
		}
	}
}

func TestByCostIdempotent(t *testing.T) {
	matches := map[record.Product][]record.Listing{
		nikonD90: usdListings("100", "105", "95", "103", "97", "125", "60"),
	}
	if err := ByCost(matches, usdCost, DefaultSanityFactor, DefaultSDThreshold); err != nil {
		t.Fatal(err)
	}
	once := append([]record.Listing(nil), matches[nikonD90]...)

	if err := ByCost(matches, usdCost, DefaultSanityFactor, DefaultSDThreshold); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(once, matches[nikonD90]) {
		t.Errorf("second prune changed the match set: %v -> %v", once, matches[nikonD90])
	}
}

func TestByCostSmallSets(t *testing.T) {
	matches := map[record.Product][]record.Listing{
		nikonD90: usdListings("100", "10"),
	}
	if err := ByCost(matches, usdCost, DefaultSanityFactor, DefaultSDThreshold); err != nil {
		t.Fatal(err)
	}
	if len(matches[nikonD90]) != 2 {
		t.Errorf("sets under 3 listings must never be pruned, got %d", len(matches[nikonD90]))
	}
}

func TestOutliersAsymmetric(t *testing.T) {
	// One expensive outlier, same spread shape: the high side is never cut.
	costs := []float64{100, 105, 95, 103, 97, 75, 140}
	drop := Outliers(costs, DefaultSanityFactor, DefaultSDThreshold)
	for _, i := range drop {
		if costs[i] > 100 {
			t.Errorf("expensive listing at index %d pruned; only the cheap side may be cut", i)
		}
	}
}

func TestOutliersCurrencyNormalization(t *testing.T) {
	// A CAD listing is compared on its USD cost, not its face price.
	listings := usdListings("100", "105", "95", "103", "97", "125")
	listings = append(listings, record.Listing{Title: "Nikon D90", Manufacturer: "Nikon", Currency: record.CAD, Price: "80"}) // 60 USD
	matches := map[record.Product][]record.Listing{nikonD90: listings}

	if err := ByCost(matches, usdCost, DefaultSanityFactor, DefaultSDThreshold); err != nil {
		t.Fatal(err)
	}
	for _, l := range matches[nikonD90] {
		if l.Currency == record.CAD {
			t.Error("CAD outlier (60 USD) survived pruning")
		}
	}
}
