package manufacturer

// Overlap summarizes how the catalog's and the listings' manufacturer sets
// relate, before any resolution runs. Used by the manu-stats tool to gauge
// how much of a feed the resolver can hope to claim.
type Overlap struct {
	ProductManufacturers int
	ListingManufacturers int
	ProductOnly          int
	ListingOnly          int
}

// OverlapStats computes set sizes and one-sided differences over the
// distinct manufacturer strings of both collections (exact comparison, no
// normalization; the resolver's job is to close this gap).
func OverlapStats(listingManus, productManus []string) Overlap {
	prod := make(map[string]struct{})
	for _, m := range productManus {
		if m != "" {
			prod[m] = struct{}{}
		}
	}
	list := make(map[string]struct{})
	for _, m := range listingManus {
		if m != "" {
			list[m] = struct{}{}
		}
	}

	o := Overlap{
		ProductManufacturers: len(prod),
		ListingManufacturers: len(list),
	}
	for m := range prod {
		if _, ok := list[m]; !ok {
			o.ProductOnly++
		}
	}
	for m := range list {
		if _, ok := prod[m]; !ok {
			o.ListingOnly++
		}
	}
	return o
}
