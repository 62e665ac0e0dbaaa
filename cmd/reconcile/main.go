// Command reconcile runs one reconciliation batch: it reads a product
// catalog and a listing feed (JSONL), matches listings to products, prunes
// price outliers, and prints product_name → matched listings as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/cognicore/relink/internal/jsonl"
	"github.com/cognicore/relink/pkg/relink"
	"github.com/cognicore/relink/pkg/relink/config"
	"github.com/cognicore/relink/pkg/relink/record"
	"github.com/cognicore/relink/pkg/relink/store/sqlite"
)

func main() {
	var (
		productsPath = flag.String("products", "", "Product catalog JSONL (required)")
		listingsPath = flag.String("listings", "", "Listing feed JSONL (required)")
		configPath   = flag.String("config", "", "YAML config file (optional)")
		dbPath       = flag.String("db", "", "SQLite path to persist the run (optional)")
		pretty       = flag.Bool("pretty", false, "Indent the JSON output")
		misses       = flag.Bool("misses", false, "Print miss buckets to stderr")
	)
	flag.Parse()

	if *productsPath == "" {
		log.Fatal("--products required")
	}
	if *listingsPath == "" {
		log.Fatal("--listings required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	products, err := jsonl.ReadProductsFile(*productsPath)
	if err != nil {
		log.Fatal("Failed to read products:", err)
	}
	listings, err := jsonl.ReadListingsFile(*listingsPath)
	if err != nil {
		log.Fatal("Failed to read listings:", err)
	}

	ctx := context.Background()
	opts := relink.Options{Config: cfg}
	if *dbPath != "" {
		sink, err := sqlite.Open(ctx, *dbPath)
		if err != nil {
			log.Fatal("Failed to open database:", err)
		}
		defer sink.Close()
		opts.Store = sink
	}

	r := relink.New(opts)
	result, rep, err := r.Reconcile(ctx, products, listings)
	if err != nil {
		log.Fatal("Reconcile failed:", err)
	}

	out := make(map[string][]record.Listing, len(result))
	for p, matched := range result {
		out[p.ProductName] = matched
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "    ")
	}
	// encoding/json sorts map keys, so the output is stable across runs.
	if err := enc.Encode(out); err != nil {
		log.Fatal("Failed to encode results:", err)
	}

	if *misses {
		buckets := rep.Buckets()
		reasons := make([]string, 0, len(buckets))
		for reason := range buckets {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Fprintf(os.Stderr, "%s: %d listings\n", reason, len(buckets[reason]))
		}
	}

	log.Printf("run %s: %d listings, %d matched", rep.RunID, len(listings), len(rep.Matched()))
}
