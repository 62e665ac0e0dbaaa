// Package freq builds the frozen entropy-weighted lookup tables the scorer
// reads: global listing-token rarity and per-manufacturer product-token
// distinctiveness. A Model is immutable once built, so scoring workers can
// share one without locks.
package freq

import (
	"math"
	"runtime"
	"sync"

	"github.com/cognicore/relink/pkg/relink/record"
	"github.com/cognicore/relink/pkg/relink/text"
)

// TokenInfo records which products of one manufacturer own a token and how
// distinguishing that token is among them.
type TokenInfo struct {
	Products []record.Product
	Weight   float64
}

// manuIndex is one manufacturer's partition of the product-token table.
type manuIndex struct {
	total    int
	products []record.Product
	tokens   map[string]TokenInfo
}

// Model holds both frozen tables. Build once per batch; read-only after.
type Model struct {
	totalListings int
	rarity        map[string]float64
	byManu        map[string]*manuIndex
}

// BuildModel computes document frequencies over every listing title's 1- and
// 2-grams and the per-manufacturer family/model token partitions. The
// counting scan is sharded across workers and merged before the log
// transform; workers <= 0 selects GOMAXPROCS.
func BuildModel(listings []record.Listing, products []record.Product, workers int) *Model {
	m := &Model{
		totalListings: len(listings),
		rarity:        countRarity(listings, workers),
		byManu:        make(map[string]*manuIndex),
	}

	for _, p := range products {
		idx := m.byManu[p.Manufacturer]
		if idx == nil {
			idx = &manuIndex{tokens: make(map[string]TokenInfo)}
			m.byManu[p.Manufacturer] = idx
		}
		idx.total++
		idx.products = append(idx.products, p)
		for _, tok := range productTokens(p) {
			info := idx.tokens[tok]
			info.Products = append(info.Products, p)
			idx.tokens[tok] = info
		}
	}

	// Weights need the final per-manufacturer totals, so they come after
	// the grouping pass.
	for _, idx := range m.byManu {
		for tok, info := range idx.tokens {
			info.Weight = -math.Log(float64(len(info.Products)) / float64(idx.total))
			idx.tokens[tok] = info
		}
	}
	return m
}

// productTokens returns the product's distinctiveness tokens: the normalized
// family and model, each as one whole token. A product whose family and
// model normalize identically still owns the token once.
func productTokens(p record.Product) []string {
	family := text.Normalize(p.Family)
	model := text.Normalize(p.Model)
	switch {
	case family == "" && model == "":
		return nil
	case family == "" || family == model:
		return []string{model}
	case model == "":
		return []string{family}
	}
	return []string{family, model}
}

// countRarity computes -log(df/total) for every 1/2-gram across all listing
// titles. Each listing counts a token at most once (document frequency), so
// df <= total and no weight goes negative.
func countRarity(listings []record.Listing, workers int) map[string]float64 {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(listings) {
		workers = len(listings)
	}
	if len(listings) == 0 {
		return map[string]float64{}
	}

	counts := make([]map[string]int, workers)
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
			local := make(map[string]int)
			for _, l := range listings[lo:hi] {
				seen := make(map[string]struct{})
				for _, tok := range text.TitleGrams(l.Title) {
					if _, dup := seen[tok]; dup {
						continue
					}
					seen[tok] = struct{}{}
					local[tok]++
				}
			}
			counts[w] = local
		}(w, lo, hi)
	}
	wg.Wait()

	merged := make(map[string]int)
	for _, local := range counts {
		for tok, n := range local {
			merged[tok] += n
		}
	}

	total := float64(len(listings))
	rarity := make(map[string]float64, len(merged))
	for tok, n := range merged {
		rarity[tok] = -math.Log(float64(n) / total)
	}
	return rarity
}

// Rarity returns the global rarity weight of a listing token.
func (m *Model) Rarity(token string) (float64, bool) {
	w, ok := m.rarity[token]
	return w, ok
}

// Dampener returns the rarity weight for scoring, defaulting to 1 for
// tokens never seen in a listing title (assume moderate distinctiveness).
func (m *Model) Dampener(token string) float64 {
	if w, ok := m.rarity[token]; ok {
		return w
	}
	return 1
}

// Lookup returns the distinctiveness entry for a token within one canonical
// manufacturer's partition.
func (m *Model) Lookup(manufacturer, token string) (TokenInfo, bool) {
	idx, ok := m.byManu[manufacturer]
	if !ok {
		return TokenInfo{}, false
	}
	info, ok := idx.tokens[token]
	return info, ok
}

// Products returns all products of one canonical manufacturer in catalog
// order, the candidate set the scorer restricts itself to.
func (m *Model) Products(manufacturer string) []record.Product {
	idx, ok := m.byManu[manufacturer]
	if !ok {
		return nil
	}
	return idx.products
}

// TotalListings returns the listing count the rarity table was built over.
func (m *Model) TotalListings() int { return m.totalListings }
