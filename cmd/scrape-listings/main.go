// Command scrape-listings pulls a marketplace results page and extracts
// listing records to the JSONL format the reconcile tool consumes. Page
// structures vary, so the extraction is deliberately loose: any element
// whose class mentions "listing" or "product" with a readable title and
// price becomes a record.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"strings"

	"golang.org/x/net/html"

	"github.com/cognicore/relink/internal/jsonl"
	"github.com/cognicore/relink/pkg/relink/record"
)

func main() {
	var (
		pageURL  = flag.String("url", "", "Results page to scrape (required)")
		outPath  = flag.String("out", "listings.jsonl", "Output JSONL file")
		manu     = flag.String("manufacturer", "", "Manufacturer to stamp on records missing one")
		currency = flag.String("currency", record.USD, "Currency for prices without a recognizable symbol")
	)
	flag.Parse()

	if *pageURL == "" {
		log.Fatal("--url required")
	}

	resp, err := http.Get(*pageURL)
	if err != nil {
		log.Fatal("Failed to fetch page:", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Fetch returned %s", resp.Status)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		log.Fatal("Failed to parse page:", err)
	}

	listings := extract(doc, *manu, *currency)
	if len(listings) == 0 {
		log.Fatal("No listings found on page")
	}

	out, err := os.Create(*outPath)
	if err != nil {
		log.Fatal("Failed to create output file:", err)
	}
	defer out.Close()

	if err := jsonl.WriteListings(out, listings); err != nil {
		log.Fatal("Failed to write listings:", err)
	}
	log.Printf("Wrote %d listings to %s", len(listings), *outPath)
}

// extract walks the document collecting listing-shaped elements.
func extract(doc *html.Node, defaultManu, defaultCurrency string) []record.Listing {
	var listings []record.Listing

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && isListingNode(n) {
			if l, ok := listingFrom(n, defaultManu, defaultCurrency); ok {
				listings = append(listings, l)
				return // don't descend into a claimed element
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return listings
}

func isListingNode(n *html.Node) bool {
	class := strings.ToLower(attr(n, "class"))
	return strings.Contains(class, "listing") || strings.Contains(class, "product")
}

// listingFrom reads the first heading or anchor as the title and the first
// "price"-classed element as the price.
func listingFrom(n *html.Node, defaultManu, defaultCurrency string) (record.Listing, bool) {
	l := record.Listing{
		Manufacturer: firstText(n, func(c *html.Node) bool {
			return strings.Contains(strings.ToLower(attr(c, "class")), "brand")
		}),
		Currency: defaultCurrency,
	}
	if l.Manufacturer == "" {
		l.Manufacturer = defaultManu
	}

	l.Title = firstText(n, func(c *html.Node) bool {
		switch c.Data {
		case "h1", "h2", "h3", "a":
			return true
		}
		return false
	})

	raw := firstText(n, func(c *html.Node) bool {
		return strings.Contains(strings.ToLower(attr(c, "class")), "price")
	})
	l.Currency, l.Price = parsePrice(raw, defaultCurrency)

	if l.Title == "" || l.Price == "" || l.Manufacturer == "" {
		return record.Listing{}, false
	}
	return l, true
}

// parsePrice splits a display price like "C$199.96" or "$59.00" into a
// currency code and a bare decimal string.
func parsePrice(raw, defaultCurrency string) (currency, price string) {
	raw = strings.TrimSpace(raw)
	currency = defaultCurrency

	switch {
	case strings.HasPrefix(raw, "C$"):
		currency, raw = record.CAD, raw[2:]
	case strings.HasPrefix(raw, "US$"):
		currency, raw = record.USD, raw[3:]
	case strings.HasPrefix(raw, "$"):
		currency, raw = record.USD, raw[1:]
	case strings.HasPrefix(raw, "€"):
		currency, raw = record.EUR, strings.TrimPrefix(raw, "€")
	case strings.HasPrefix(raw, "£"):
		currency, raw = record.GBP, strings.TrimPrefix(raw, "£")
	}

	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	for _, r := range raw {
		if (r < '0' || r > '9') && r != '.' {
			return currency, ""
		}
	}
	return currency, raw
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// firstText returns the trimmed text of the first descendant matching the
// predicate.
func firstText(n *html.Node, match func(*html.Node) bool) string {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if found != nil {
			return
		}
		if c.Type == html.ElementNode && match(c) {
			found = c
			return
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child)
	}
	if found == nil {
		return ""
	}
	return strings.TrimSpace(nodeText(found))
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}
