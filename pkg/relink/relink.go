// Package relink reconciles unstructured marketplace listings against a
// canonical product catalog: manufacturer resolution, entropy-weighted token
// scoring, threshold/ambiguity selection, and price-based outlier pruning.
package relink

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/cognicore/relink/pkg/relink/classify"
	"github.com/cognicore/relink/pkg/relink/config"
	"github.com/cognicore/relink/pkg/relink/freq"
	"github.com/cognicore/relink/pkg/relink/internalerr"
	"github.com/cognicore/relink/pkg/relink/manufacturer"
	"github.com/cognicore/relink/pkg/relink/match"
	"github.com/cognicore/relink/pkg/relink/prune"
	"github.com/cognicore/relink/pkg/relink/record"
	"github.com/cognicore/relink/pkg/relink/report"
	"github.com/cognicore/relink/pkg/relink/store"
)

// Result maps each catalog product to its matched listings, in listing
// input order, post-pruning.
type Result map[record.Product][]record.Listing

// Options configures a Reconciler.
type Options struct {
	Config config.Config
	// Store, when set, receives every run's matches and misses.
	Store store.Store
}

// Reconciler runs the batch pipeline. The per-run tables (manufacturer map,
// frequency model) are built inside Reconcile and frozen before any listing
// is scored, so scoring shards freely across workers.
type Reconciler struct {
	cfg        config.Config
	classifier *classify.Classifier
	reports    *report.Builder
	sink       store.Store
}

// New creates a Reconciler.
func New(opts Options) *Reconciler {
	opts.Config.Normalize()
	return &Reconciler{
		cfg:        opts.Config,
		classifier: classify.New(opts.Config.Currencies),
		reports:    report.NewBuilder(),
		sink:       opts.Store,
	}
}

// Reconcile assigns listings to catalog products and prunes price outliers.
// Malformed records fail the whole batch; empty collections yield an empty
// result. The returned report carries per-listing diagnostics keyed by
// input index.
func (r *Reconciler) Reconcile(ctx context.Context, products []record.Product, listings []record.Listing) (Result, *report.Report, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if err := record.ValidateProducts(products); err != nil {
		return nil, nil, err
	}
	if err := record.ValidateListings(listings); err != nil {
		return nil, nil, err
	}

	rep := r.reports.New(len(listings))
	for i := range rep.Listings {
		rep.Listings[i].Index = i
	}

	result := Result{}
	if len(listings) == 0 || len(products) == 0 {
		for i := range rep.Listings {
			rep.Listings[i].Reason = match.MissNoHits
		}
		return result, rep, r.persist(ctx, rep, result, listings)
	}

	manuMap := manufacturer.Resolve(listingManufacturers(listings), productManufacturers(products), r.cfg.Aliases)
	model := freq.BuildModel(listings, products, r.cfg.Workers)

	selections := make([]match.Selection, len(listings))
	if err := r.scoreAll(ctx, model, manuMap, listings, selections, rep.Listings); err != nil {
		return nil, nil, err
	}

	// Barrier: every listing is assigned before any product is pruned.
	indices := make(map[record.Product][]int)
	for i, sel := range selections {
		if !sel.Matched {
			continue
		}
		result[sel.Product] = append(result[sel.Product], listings[i])
		indices[sel.Product] = append(indices[sel.Product], i)
	}

	r.pruneResult(result, indices, rep.Listings)

	return result, rep, r.persist(ctx, rep, result, listings)
}

// scoreAll classifies and scores every listing across a worker pool. The
// model and manufacturer map are read-only; each worker writes only its own
// slice range.
func (r *Reconciler) scoreAll(ctx context.Context, model *freq.Model, manuMap map[string]string, listings []record.Listing, selections []match.Selection, diags []report.ListingDiag) error {
	workers := r.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(listings) {
		workers = len(listings)
	}

	errs := make([]error, workers)
	var wg sync.WaitGroup
	chunk := (len(listings) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(listings) {
			hi = len(listings)
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					errs[w] = err
					return
				}
				sel, diag, err := r.scoreOne(model, manuMap, listings[i])
				if err != nil {
					errs[w] = fmt.Errorf("listing %d (%s): %w", i, listings[i].Title, err)
					return
				}
				diag.Index = i
				selections[i] = sel
				diags[i] = diag
			}
		}(w, lo, hi)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// scoreOne runs the per-listing stages: classify, resolve manufacturer,
// score, select. An unknown currency is an automatic miss, not a batch
// failure (the feed's dirtiest field should not kill the run).
func (r *Reconciler) scoreOne(model *freq.Model, manuMap map[string]string, l record.Listing) (match.Selection, report.ListingDiag, error) {
	var diag report.ListingDiag

	relevant, score, err := r.classifier.IsRelevant(l)
	if err != nil {
		if errors.Is(err, internalerr.ErrUnknownCurrency) {
			diag.Reason = match.MissUnknownCurrency
			return match.Selection{Reason: match.MissUnknownCurrency}, diag, nil
		}
		return match.Selection{}, diag, err
	}
	diag.ClassificationScore = score
	if !relevant {
		diag.Reason = match.MissNotRelevant
		return match.Selection{Reason: match.MissNotRelevant}, diag, nil
	}

	manu, ok := manuMap[l.Manufacturer]
	if !ok {
		diag.Reason = match.MissNoManufacturer
		return match.Selection{Reason: match.MissNoManufacturer}, diag, nil
	}
	diag.Manufacturer = manu

	scores := match.ScoreCandidates(model, manu, l.Title)
	sel := match.Select(scores, r.cfg.ScoreThreshold)

	diag.BestScore = sel.Best
	diag.RunnerUpScore = sel.RunnerUp
	diag.Reason = sel.Reason
	if sel.Matched {
		diag.BestProduct = sel.Product.ProductName
	}
	return sel, diag, nil
}

// pruneResult drops statistically cheap listings per product. Pruning
// across products is independent; the sets here are small enough that a
// serial pass costs less than fanning out.
func (r *Reconciler) pruneResult(result Result, indices map[record.Product][]int, diags []report.ListingDiag) {
	for p, matched := range result {
		costs := make([]float64, len(matched))
		for i, l := range matched {
			// Cost succeeded during classification for every matched
			// listing.
			costs[i], _ = r.classifier.Cost(l)
		}
		drop := prune.Outliers(costs, r.cfg.SanityFactor, r.cfg.SDThreshold)
		if len(drop) == 0 {
			continue
		}

		idxs := indices[p]
		kept := make([]record.Listing, 0, len(matched)-len(drop))
		di := 0
		for i, l := range matched {
			if di < len(drop) && drop[di] == i {
				diags[idxs[i]].Pruned = true
				di++
				continue
			}
			kept = append(kept, l)
		}
		result[p] = kept
	}
}

// persist sends the run to the configured store, if any.
func (r *Reconciler) persist(ctx context.Context, rep *report.Report, result Result, listings []record.Listing) error {
	if r.sink == nil {
		return nil
	}

	run := store.Run{ID: rep.RunID, StartedAt: rep.StartedAt}
	for p, matched := range result {
		for _, l := range matched {
			run.Matches = append(run.Matches, store.Match{ProductName: p.ProductName, Listing: l})
		}
	}
	for _, d := range rep.Listings {
		switch {
		case d.Pruned:
			run.Misses = append(run.Misses, store.Miss{ListingIndex: d.Index, Reason: "pruned", Listing: listings[d.Index]})
		case d.Reason != match.MissNone:
			run.Misses = append(run.Misses, store.Miss{ListingIndex: d.Index, Reason: string(d.Reason), Listing: listings[d.Index]})
		}
	}
	if err := r.sink.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("persist run %s: %w", rep.RunID, err)
	}
	return nil
}

func listingManufacturers(listings []record.Listing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = l.Manufacturer
	}
	return out
}

func productManufacturers(products []record.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Manufacturer
	}
	return out
}
