// Command manu-stats reports how the catalog's and the feed's manufacturer
// sets overlap, a quick gauge of how much the resolver can claim.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/cognicore/relink/internal/jsonl"
	"github.com/cognicore/relink/pkg/relink/manufacturer"
)

func main() {
	var (
		productsPath = flag.String("products", "", "Product catalog JSONL (required)")
		listingsPath = flag.String("listings", "", "Listing feed JSONL (required)")
	)
	flag.Parse()

	if *productsPath == "" {
		log.Fatal("--products required")
	}
	if *listingsPath == "" {
		log.Fatal("--listings required")
	}

	products, err := jsonl.ReadProductsFile(*productsPath)
	if err != nil {
		log.Fatal("Failed to read products:", err)
	}
	listings, err := jsonl.ReadListingsFile(*listingsPath)
	if err != nil {
		log.Fatal("Failed to read listings:", err)
	}

	listingManus := make([]string, len(listings))
	for i, l := range listings {
		listingManus[i] = l.Manufacturer
	}
	productManus := make([]string, len(products))
	for i, p := range products {
		productManus[i] = p.Manufacturer
	}

	o := manufacturer.OverlapStats(listingManus, productManus)
	fmt.Printf("%d prodmanus; %d listingmanus. %d prod only; %d listing only\n",
		o.ProductManufacturers, o.ListingManufacturers, o.ProductOnly, o.ListingOnly)

	resolved := manufacturer.Resolve(listingManus, productManus, nil)
	fmt.Printf("resolver claims %d of %d listing manufacturers\n", len(resolved), o.ListingManufacturers)
}
