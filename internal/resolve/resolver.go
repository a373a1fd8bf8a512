// Package resolve collapses near-duplicate records from different sources
// into one canonical record per resolved identity.
package resolve

import (
	"sort"

	"github.com/macadam-io/macadam/internal/model"
)

// Resolver deduplicates records by resolution key and normalized name.
type Resolver struct{}

// NewResolver creates a resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve orders records so those with stronger identity signals come first,
// then keeps the first record seen for each (resolution key, name) pair.
// The sort is stable and purely value-based, which makes the surviving
// duplicate independent of crawl completion order. Empty input yields empty
// output; this stage never fails.
func (r *Resolver) Resolve(records []model.CanonicalRecord) []model.CanonicalRecord {
	if len(records) == 0 {
		return nil
	}

	ordered := make([]model.CanonicalRecord, len(records))
	copy(ordered, records)

	// Descending by phone then website root: a populated field sorts before
	// an empty one, and between populated fields the lexicographically
	// larger value wins, matching a plain descending value sort.
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].PhoneE164 != ordered[j].PhoneE164 {
			return ordered[i].PhoneE164 > ordered[j].PhoneE164
		}
		return ordered[i].WebsiteRoot > ordered[j].WebsiteRoot
	})

	type identity struct {
		key  string
		name string
	}

	seen := make(map[identity]bool, len(ordered))
	out := make([]model.CanonicalRecord, 0, len(ordered))
	for _, rec := range ordered {
		id := identity{key: rec.ResolutionKey(), name: rec.Name}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, rec)
	}
	return out
}
