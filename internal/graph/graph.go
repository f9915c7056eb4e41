// Package graph organises doc entries by the owner they belong to.
package graph

import (
	"sort"

	"github.com/phobologic/nodedocs/internal/model"
)

// OwnerGroup is the set of entries that share an owner. Owner is "" for
// global entries.
type OwnerGroup struct {
	Owner string
	// Entry is the documented declaration of the owner itself, if any.
	Entry   *model.DocEntry
	Members []model.DocEntry
}

// GroupByOwner returns one group per owner, sorted by owner, with members
// sorted by id. An entry that documents an owner is reported both as that
// group's Entry and as a member of its own owner's group.
func GroupByOwner(store model.EntryStore) []OwnerGroup {
	byOwner := make(map[string][]model.DocEntry)
	for _, e := range store.Sorted() {
		byOwner[e.MemberOf] = append(byOwner[e.MemberOf], e)
	}

	owners := make([]string, 0, len(byOwner))
	for owner := range byOwner {
		owners = append(owners, owner)
	}
	sort.Strings(owners)

	groups := make([]OwnerGroup, 0, len(owners))
	for _, owner := range owners {
		g := OwnerGroup{Owner: owner, Members: byOwner[owner]}
		if owner != "" {
			g.Entry = ownerEntry(store, owner)
		}
		groups = append(groups, g)
	}
	return groups
}

// ownerEntry finds the entry that declares owner, either by bare name
// ("Circle") or by qualified name ("vjs.Player"). The first match in id order
// wins.
func ownerEntry(store model.EntryStore, owner string) *model.DocEntry {
	for _, id := range store.IDs() {
		e := store[id]
		if e.Name == owner || (e.MemberOf != "" && e.MemberOf+"."+e.Name == owner) {
			return &e
		}
	}
	return nil
}

// Owners returns the distinct non-empty owners in the store, sorted.
func Owners(store model.EntryStore) []string {
	seen := make(map[string]struct{})
	for _, e := range store {
		if e.MemberOf != "" {
			seen[e.MemberOf] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
