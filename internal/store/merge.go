package store

import "github.com/zachittx/inoutboard/internal/roster"

// Reconcile merges persisted records into defaults.
//
// The result starts as a copy of defaults. Each persisted record whose
// id matches an entry replaces it in place, keeping the defaults'
// order; persisted records with new ids are appended in persisted
// order. Applying Reconcile to its own output with the same defaults
// returns the same list.
func Reconcile(defaults, persisted []roster.Record) []roster.Record {
	merged := make([]roster.Record, len(defaults), len(defaults)+len(persisted))
	copy(merged, defaults)

	index := make(map[string]int, len(merged))
	for i, r := range merged {
		index[r.ID] = i
	}

	for _, r := range persisted {
		if i, ok := index[r.ID]; ok {
			merged[i] = r
			continue
		}
		index[r.ID] = len(merged)
		merged = append(merged, r)
	}
	return merged
}
