// Package manufacturer maps raw listing-manufacturer strings to canonical
// catalog manufacturers.
package manufacturer

import (
	"sort"
	"strings"
)

// DefaultAliases folds known brand variants to a single comparison form.
// Applied token-wise, uppercase, before prefix matching.
var DefaultAliases = map[string]string{
	"FUJIFILM": "FUJI",
}

// Resolve builds the raw→canonical manufacturer map.
//
// Canonical manufacturers are processed in a fixed order (descending
// whitespace-token count, then lexicographic) so that multi-word brands like
// "Konica Minolta" claim their listings before a single-word brand can. A
// listing manufacturer matches when any token of the canonical name is a
// prefix of any of its tokens; once claimed it is removed from further
// consideration. Unmatched listing manufacturers are absent from the result.
//
// Keys preserve the listing string's original casing and values the catalog
// string's; comparison happens uppercase with aliases applied.
func Resolve(listingManus, productManus []string, aliases map[string]string) map[string]string {
	if aliases == nil {
		aliases = DefaultAliases
	}

	canon := dedupe(productManus)
	sort.Slice(canon, func(i, j int) bool {
		ti, tj := len(strings.Fields(canon[i])), len(strings.Fields(canon[j]))
		if ti != tj {
			return ti > tj
		}
		return canon[i] < canon[j]
	})

	type rawManu struct {
		original string
		tokens   []string
	}
	remaining := make([]rawManu, 0, len(listingManus))
	for _, m := range dedupe(listingManus) {
		remaining = append(remaining, rawManu{original: m, tokens: aliasTokens(m, aliases)})
	}
	sort.Slice(remaining, func(i, j int) bool { return remaining[i].original < remaining[j].original })

	result := make(map[string]string)
	for _, c := range canon {
		ctokens := aliasTokens(c, aliases)
		kept := remaining[:0:len(remaining)]
		for _, raw := range remaining {
			if matches(ctokens, raw.tokens) {
				result[raw.original] = c
			} else {
				kept = append(kept, raw)
			}
		}
		remaining = kept
	}
	return result
}

// matches reports whether any canonical token is a prefix of any listing
// token. The prefix rule covers variants like FUJI/FUJIFILM without any
// fuzzy matching.
func matches(canonTokens, listingTokens []string) bool {
	for _, ct := range canonTokens {
		for _, lt := range listingTokens {
			if strings.HasPrefix(lt, ct) {
				return true
			}
		}
	}
	return false
}

func aliasTokens(s string, aliases map[string]string) []string {
	tokens := strings.Fields(strings.ToUpper(s))
	for i, t := range tokens {
		if canon, ok := aliases[t]; ok {
			tokens[i] = canon
		}
	}
	return tokens
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
