// Package jsonl reads and writes the line-delimited JSON feeds the
// reconcile tools exchange: one record per line, no enclosing array.
package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cognicore/relink/pkg/relink/record"
)

// scanner returns a line scanner sized for long listing titles.
func scanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return sc
}

// ReadListings decodes a listing per line, skipping blank lines. Errors
// name the offending line.
func ReadListings(r io.Reader) ([]record.Listing, error) {
	var out []record.Listing
	sc := scanner(r)
	for line := 1; sc.Scan(); line++ {
		data := bytes.TrimSpace(sc.Bytes())
		if len(data) == 0 {
			continue
		}
		var l record.Listing
		if err := json.Unmarshal(data, &l); err != nil {
			return nil, fmt.Errorf("listings line %d: %w", line, err)
		}
		out = append(out, l)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadProducts decodes a product per line, skipping blank lines.
func ReadProducts(r io.Reader) ([]record.Product, error) {
	var out []record.Product
	sc := scanner(r)
	for line := 1; sc.Scan(); line++ {
		data := bytes.TrimSpace(sc.Bytes())
		if len(data) == 0 {
			continue
		}
		var p record.Product
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("products line %d: %w", line, err)
		}
		out = append(out, p)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadListingsFile reads a listings feed from disk.
func ReadListingsFile(path string) ([]record.Listing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadListings(f)
}

// ReadProductsFile reads a product catalog from disk.
func ReadProductsFile(path string) ([]record.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadProducts(f)
}

// WriteListings encodes one listing per line.
func WriteListings(w io.Writer, listings []record.Listing) error {
	enc := json.NewEncoder(w)
	for _, l := range listings {
		if err := enc.Encode(l); err != nil {
			return err
		}
	}
	return nil
}
