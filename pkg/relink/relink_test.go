package relink

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cognicore/relink/pkg/relink/config"
	"github.com/cognicore/relink/pkg/relink/internalerr"
	"github.com/cognicore/relink/pkg/relink/match"
	"github.com/cognicore/relink/pkg/relink/record"
	"github.com/cognicore/relink/pkg/relink/store/memstore"
)

var (
	sx130is = record.Product{ProductName: "Canon_PowerShot_SX130IS", Manufacturer: "Canon", Model: "SX130 IS", Family: "PowerShot", AnnouncedDate: "2010-08-19T00:00:00.000-05:00"}
	a495    = record.Product{ProductName: "Canon_PowerShot_A495", Manufacturer: "Canon", Model: "A495", Family: "PowerShot", AnnouncedDate: "2010-02-08T00:00:00.000-05:00"}
	d90     = record.Product{ProductName: "Nikon_D90", Manufacturer: "Nikon", Model: "D90", AnnouncedDate: "2008-08-27T00:00:00.000-05:00"}
	d300    = record.Product{ProductName: "Nikon_D300", Manufacturer: "Nikon", Model: "D300", AnnouncedDate: "2007-08-23T00:00:00.000-05:00"}
)

const sxTitle = "Canon PowerShot SX130IS 12.1 MP Digital Camera with 12x Wide Angle Optical Image Stabilized Zoom with 3.0-Inch LCD"

// testCatalog pads Canon with filler products so token weights reach
// realistic magnitudes: distinctiveness is -log(owners/total) and a
// two-product catalog cannot clear the default threshold.
func testCatalog() []record.Product {
	products := []record.Product{sx130is, a495, d90, d300}
	for i := 0; i < 148; i++ {
		products = append(products, record.Product{
			ProductName:   fmt.Sprintf("Canon_Z%03d", i),
			Manufacturer:  "Canon",
			Model:         fmt.Sprintf("Z%03d", i),
			AnnouncedDate: "2010-01-01T00:00:00.000-05:00",
		})
	}
	return products
}

// testFeed returns the listing fixture and the indices of its interesting
// rows. Filler listings give the rarity table a realistic denominator.
func testFeed() (listings []record.Listing, sxNormal []int, sxCheap, accessory, sony, jpy, nikon int) {
	for _, price := range []string{"199.96", "209.00", "205.00", "202.00", "198.00"} {
		sxNormal = append(sxNormal, len(listings))
		listings = append(listings, record.Listing{Title: sxTitle, Manufacturer: "Canon Canada", Currency: record.CAD, Price: price})
	}

	sxCheap = len(listings)
	listings = append(listings, record.Listing{Title: sxTitle, Manufacturer: "Canon Canada", Currency: record.CAD, Price: "40.00"})

	accessory = len(listings)
	listings = append(listings, record.Listing{Title: "LED Flash Macro Ring Light (48 X LED) with 6 Adapter Rings for For Canon/Sony/Nikon/Sigma Lenses", Manufacturer: "Neewer Electronics Accessories", Currency: record.CAD, Price: "35.99"})

	sony = len(listings)
	listings = append(listings, record.Listing{Title: "Sony Alpha 14.2 MP Digital Camera", Manufacturer: "Sony", Currency: record.USD, Price: "550.00"})

	jpy = len(listings)
	listings = append(listings, record.Listing{Title: "Olympus PEN E-PL2 12.3 MP", Manufacturer: "Olympus", Currency: "JPY", Price: "48000"})

	nikon = len(listings)
	listings = append(listings, record.Listing{Title: "Nikon D90 12.3 MP Digital SLR Camera", Manufacturer: "Nikon", Currency: record.USD, Price: "650.00"})

	for i := 0; i < 600; i++ {
		listings = append(listings, record.Listing{
			Title:        fmt.Sprintf("Widget item %d", i),
			Manufacturer: "Misc",
			Currency:     record.USD,
			Price:        "150.00",
		})
	}
	return
}

func TestReconcileEndToEnd(t *testing.T) {
	ctx := context.Background()
	sink := memstore.New()
	r := New(Options{Config: config.Default(), Store: sink})

	listings, sxNormal, sxCheap, accessory, sony, jpy, nikon := testFeed()
	result, rep, err := r.Reconcile(ctx, testCatalog(), listings)
	if err != nil {
		t.Fatal(err)
	}

	// The five normally priced SX130IS listings match and survive pruning.
	matched := result[sx130is]
	if len(matched) != 5 {
		t.Fatalf("SX130IS matched %d listings, want 5: %v", len(matched), matched)
	}
	for _, l := range matched {
		if l.Price == "40.00" {
			t.Error("cheap outlier survived pruning")
		}
	}
	if len(result[a495]) != 0 {
		t.Errorf("A495 should have no matches, got %v", result[a495])
	}

	for _, i := range sxNormal {
		d := rep.Listings[i]
		if d.Reason != match.MissNone || d.Pruned {
			t.Errorf("listing %d: expected clean match, got %+v", i, d)
		}
		if d.Manufacturer != "Canon" {
			t.Errorf("listing %d resolved to %q, want Canon", i, d.Manufacturer)
		}
		if d.BestProduct != sx130is.ProductName {
			t.Errorf("listing %d best product = %q", i, d.BestProduct)
		}
		if d.BestScore <= config.Default().ScoreThreshold {
			t.Errorf("listing %d best score %v does not exceed threshold", i, d.BestScore)
		}
		if d.BestScore-d.RunnerUpScore < match.AmbiguityMargin {
			t.Errorf("listing %d margin too small: %v vs %v", i, d.BestScore, d.RunnerUpScore)
		}
	}

	// The cheap copy matched but was pruned afterwards.
	if d := rep.Listings[sxCheap]; d.Reason != match.MissNone || !d.Pruned {
		t.Errorf("cheap listing: expected pruned match, got %+v", d)
	}

	wantReasons := map[int]match.MissReason{
		accessory: match.MissNotRelevant,
		sony:      match.MissNoManufacturer,
		jpy:       match.MissUnknownCurrency,
		nikon:     match.MissScoreTooLow,
	}
	for i, want := range wantReasons {
		if got := rep.Listings[i].Reason; got != want {
			t.Errorf("listing %d reason = %q, want %q", i, got, want)
		}
	}

	if got := len(rep.Matched()); got != 5 {
		t.Errorf("report.Matched = %d listings, want 5", got)
	}

	// The run was persisted through the sink.
	run, ok, err := sink.GetRun(ctx, rep.RunID)
	if err != nil || !ok {
		t.Fatalf("run %s not persisted: %v", rep.RunID, err)
	}
	if len(run.Matches) != 5 {
		t.Errorf("persisted %d matches, want 5", len(run.Matches))
	}
	wantMisses := len(listings) - 5 // everything else, including the pruned row
	if len(run.Misses) != wantMisses {
		t.Errorf("persisted %d misses, want %d", len(run.Misses), wantMisses)
	}
}

func TestReconcileOrderIndependent(t *testing.T) {
	ctx := context.Background()
	listings, _, _, _, _, _, _ := testFeed()

	reversed := make([]record.Listing, len(listings))
	for i, l := range listings {
		reversed[len(listings)-1-i] = l
	}

	r := New(Options{Config: config.Default()})
	res1, rep1, err := r.Reconcile(ctx, testCatalog(), listings)
	if err != nil {
		t.Fatal(err)
	}
	res2, rep2, err := r.Reconcile(ctx, testCatalog(), reversed)
	if err != nil {
		t.Fatal(err)
	}

	if len(res1[sx130is]) != len(res2[sx130is]) {
		t.Errorf("match counts differ across permutations: %d vs %d", len(res1[sx130is]), len(res2[sx130is]))
	}
	// Per-listing outcomes follow the listing, not its position.
	for i := range listings {
		d1, d2 := rep1.Listings[i], rep2.Listings[len(listings)-1-i]
		if d1.Reason != d2.Reason || d1.Pruned != d2.Pruned || d1.BestScore != d2.BestScore {
			t.Errorf("listing %d outcome changed under permutation: %+v vs %+v", i, d1, d2)
		}
	}
}

func TestReconcileEmptyInputs(t *testing.T) {
	ctx := context.Background()
	r := New(Options{Config: config.Default()})

	result, rep, err := r.Reconcile(ctx, nil, nil)
	if err != nil {
		t.Fatalf("empty inputs must not error: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("expected empty result, got %v", result)
	}
	if len(rep.Listings) != 0 {
		t.Errorf("expected empty report, got %+v", rep.Listings)
	}

	// Products without listings, and vice versa.
	if _, _, err := r.Reconcile(ctx, testCatalog(), nil); err != nil {
		t.Errorf("catalog-only input errored: %v", err)
	}
	listings, _, _, _, _, _, _ := testFeed()
	result, rep, err = r.Reconcile(ctx, nil, listings)
	if err != nil {
		t.Errorf("listings-only input errored: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("no catalog, no matches: %v", result)
	}
	if rep.Listings[0].Reason != match.MissNoHits {
		t.Errorf("without a catalog every listing is a no-hit, got %+v", rep.Listings[0])
	}
}

func TestReconcileMalformedInput(t *testing.T) {
	ctx := context.Background()
	r := New(Options{Config: config.Default()})

	_, _, err := r.Reconcile(ctx, testCatalog(), []record.Listing{
		{Title: "no price", Manufacturer: "Canon", Currency: record.USD},
	})
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for malformed listing, got %v", err)
	}

	_, _, err = r.Reconcile(ctx, []record.Product{{Manufacturer: "Canon"}}, nil)
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for malformed product, got %v", err)
	}
}

func TestReconcileDeterministicRuns(t *testing.T) {
	ctx := context.Background()
	listings, _, _, _, _, _, _ := testFeed()
	catalog := testCatalog()

	r := New(Options{Config: config.Default()})
	res1, rep1, err := r.Reconcile(ctx, catalog, listings)
	if err != nil {
		t.Fatal(err)
	}
	res2, rep2, err := r.Reconcile(ctx, catalog, listings)
	if err != nil {
		t.Fatal(err)
	}

	if rep1.RunID == rep2.RunID {
		t.Error("runs must get distinct IDs")
	}
	for p, l1 := range res1 {
		if len(res2[p]) != len(l1) {
			t.Errorf("product %s: %d vs %d matches across identical runs", p.ProductName, len(l1), len(res2[p]))
		}
	}
	for i := range listings {
		if rep1.Listings[i].Reason != rep2.Listings[i].Reason {
			t.Errorf("listing %d reason unstable across identical runs", i)
		}
	}
}
