// Package model defines core data structures for nodedocs.
package model

import (
	"sort"
	"strings"
)

// Kind indicates what sort of declaration a doc entry documents.
type Kind string

const (
	Unknown   Kind = ""
	Function  Kind = "function"
	Member    Kind = "member"
	Event     Kind = "event"
	Class     Kind = "class"
	Namespace Kind = "namespace"
)

// SourceLocation records where a documented declaration starts.
type SourceLocation struct {
	Line int    `json:"line" yaml:"line"`
	File string `json:"file" yaml:"file"`
	URL  string `json:"url,omitempty" yaml:"url,omitempty"`
}

// CodeShape is the declaration shape inferred from a single line of code.
type CodeShape struct {
	Name     string
	Kind     Kind
	Owner    string
	Instance bool
}

// Param describes one @param tag.
type Param struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Optional    bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
	Default     string `json:"default,omitempty" yaml:"default,omitempty"`
}

// Return describes a @returns tag.
type Return struct {
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Metadata is what a comment-metadata parser extracts from a cleaned comment body.
// Zero values mean "not stated"; Instance is a pointer so that an explicit
// @static can be told apart from silence.
type Metadata struct {
	Description     string
	Name            string
	Kind            Kind
	MemberOf        string
	Instance        *bool
	Params          []Param
	Returns         *Return
	Type            string
	Access          string
	Deprecated      bool
	DeprecationNote string
	Since           string
	Examples        []string
	Tags            map[string][]string
}

// Context is a snapshot of the traversal state at the point an entry was found.
type Context struct {
	ScopeDepth int      `json:"scopeDepth,omitempty" yaml:"scopeDepth,omitempty"`
	Parents    []string `json:"parents,omitempty" yaml:"parents,omitempty"`
}

// DocEntry is the documentation record for a single declaration.
type DocEntry struct {
	ID              string              `json:"id" yaml:"id"`
	Name            string              `json:"name,omitempty" yaml:"name,omitempty"`
	Kind            Kind                `json:"kind,omitempty" yaml:"kind,omitempty"`
	MemberOf        string              `json:"memberof,omitempty" yaml:"memberof,omitempty"`
	Instance        bool                `json:"instance,omitempty" yaml:"instance,omitempty"`
	Source          SourceLocation      `json:"location" yaml:"location"`
	Context         *Context            `json:"context,omitempty" yaml:"context,omitempty"`
	Description     string              `json:"description,omitempty" yaml:"description,omitempty"`
	Params          []Param             `json:"params,omitempty" yaml:"params,omitempty"`
	Returns         *Return             `json:"returns,omitempty" yaml:"returns,omitempty"`
	Type            string              `json:"type,omitempty" yaml:"type,omitempty"`
	Access          string              `json:"access,omitempty" yaml:"access,omitempty"`
	Deprecated      bool                `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	DeprecationNote string              `json:"deprecationNote,omitempty" yaml:"deprecationNote,omitempty"`
	Since           string              `json:"since,omitempty" yaml:"since,omitempty"`
	Examples        []string            `json:"examples,omitempty" yaml:"examples,omitempty"`
	Tags            map[string][]string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// ApplyShape copies the non-empty fields of an inferred code shape onto the entry.
func (e *DocEntry) ApplyShape(s CodeShape) {
	if s.Name != "" {
		e.Name = s.Name
	}
	if s.Kind != Unknown {
		e.Kind = s.Kind
	}
	if s.Owner != "" {
		e.MemberOf = s.Owner
	}
	if s.Instance {
		e.Instance = true
	}
}

// ApplyMetadata merges comment metadata onto the entry. It runs after
// ApplyShape: any identity field the comment states (name, kind, memberof,
// instance/static) replaces what was inferred from code.
func (e *DocEntry) ApplyMetadata(m Metadata) {
	if m.Name != "" {
		e.Name = m.Name
	}
	if m.Kind != Unknown {
		e.Kind = m.Kind
	}
	if m.MemberOf != "" {
		e.MemberOf = m.MemberOf
	}
	if m.Instance != nil {
		e.Instance = *m.Instance
	}

	e.Description = m.Description
	e.Params = m.Params
	e.Returns = m.Returns
	e.Type = m.Type
	e.Access = m.Access
	e.Deprecated = m.Deprecated
	e.DeprecationNote = m.DeprecationNote
	e.Since = m.Since
	e.Examples = m.Examples
	if len(m.Tags) > 0 {
		e.Tags = m.Tags
	}
}

// Summary returns the first line of the description.
func (e *DocEntry) Summary() string {
	s, _, _ := strings.Cut(strings.TrimSpace(e.Description), "\n")
	return strings.TrimSpace(s)
}

// EntryStore maps generated identifiers to doc entries.
type EntryStore map[string]DocEntry

// Put inserts e under e.ID and reports whether an existing entry was replaced.
func (s EntryStore) Put(e DocEntry) bool {
	_, replaced := s[e.ID]
	s[e.ID] = e
	return replaced
}

// Get returns the entry stored under id.
func (s EntryStore) Get(id string) (DocEntry, bool) {
	e, ok := s[id]
	return e, ok
}

// Merge copies every entry of other into s. Entries of other win on collision.
// It returns the ids that were overwritten, sorted.
func (s EntryStore) Merge(other EntryStore) []string {
	var replaced []string
	for id, e := range other {
		if _, ok := s[id]; ok {
			replaced = append(replaced, id)
		}
		s[id] = e
	}
	sort.Strings(replaced)
	return replaced
}

// Len returns the number of entries.
func (s EntryStore) Len() int {
	return len(s)
}

// IDs returns all identifiers in lexical order.
func (s EntryStore) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Sorted returns all entries ordered by identifier.
func (s EntryStore) Sorted() []DocEntry {
	ids := s.IDs()
	entries := make([]DocEntry, len(ids))
	for i, id := range ids {
		entries[i] = s[id]
	}
	return entries
}
