package graph

import (
	"strings"

	"github.com/phobologic/nodedocs/internal/model"
)

// Filter narrows a store for display.
type Filter struct {
	// Kinds keeps only entries of the listed kinds when non-empty.
	Kinds []model.Kind
	// IncludePrivate keeps entries marked @private.
	IncludePrivate bool
	// Limit caps the number of entries kept, in id order. <= 0 keeps all.
	Limit int
}

// Select returns a new store containing the entries f keeps. The input is
// returned unchanged when nothing would be dropped.
func Select(store model.EntryStore, f Filter) model.EntryStore {
	kinds := make(map[model.Kind]struct{}, len(f.Kinds))
	for _, k := range f.Kinds {
		kinds[k] = struct{}{}
	}

	out := model.EntryStore{}
	for _, e := range store.Sorted() {
		if f.Limit > 0 && out.Len() >= f.Limit {
			break
		}
		if !f.IncludePrivate && e.Access == "private" {
			continue
		}
		if len(kinds) > 0 {
			if _, ok := kinds[e.Kind]; !ok {
				continue
			}
		}
		out.Put(e)
	}

	if out.Len() == store.Len() {
		return store
	}
	return out
}

// FilterBySymbol returns the entries whose name or id contains substr
// (case-insensitive). When withMembers is true the members of every matched
// entry, those whose owner is the matched name, are included as well.
func FilterBySymbol(store model.EntryStore, substr string, withMembers bool) model.EntryStore {
	lower := strings.ToLower(substr)

	matched := model.EntryStore{}
	for _, e := range store {
		if strings.Contains(strings.ToLower(e.Name), lower) || strings.Contains(strings.ToLower(e.ID), lower) {
			matched.Put(e)
		}
	}
	if !withMembers {
		return matched
	}

	owners := make(map[string]struct{})
	for _, e := range matched {
		owners[e.Name] = struct{}{}
		if e.MemberOf != "" {
			owners[e.MemberOf+"."+e.Name] = struct{}{}
		}
	}
	for _, e := range store {
		if _, ok := owners[e.MemberOf]; ok {
			matched.Put(e)
		}
	}
	return matched
}
