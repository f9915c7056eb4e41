// Package toon implements TOON (Token-Oriented Object Notation) encoding of
// doc entries.
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/nodedocs/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts an entry store into TOON. Entries are listed in id order;
// params and deprecations are emitted as separate tables keyed by entry id.
func Encode(project string, store model.EntryStore) string {
	var parts []string

	if project != "" {
		parts = append(parts, fmt.Sprintf("project: %s", encodeValue(project)))
	}

	entries := store.Sorted()

	entryRows := make([][]string, 0, len(entries))
	var paramRows, returnRows, deprecatedRows [][]string
	for i := range entries {
		e := &entries[i]
		entryRows = append(entryRows, []string{
			e.ID,
			string(e.Kind),
			e.Name,
			e.MemberOf,
			strconv.FormatBool(e.Instance),
			e.Source.File,
			strconv.Itoa(e.Source.Line),
			e.Summary(),
		})
		for _, p := range e.Params {
			paramRows = append(paramRows, []string{
				e.ID,
				p.Name,
				p.Type,
				strconv.FormatBool(p.Optional),
				p.Description,
			})
		}
		if e.Returns != nil {
			returnRows = append(returnRows, []string{e.ID, e.Returns.Type, e.Returns.Description})
		}
		if e.Deprecated {
			deprecatedRows = append(deprecatedRows, []string{e.ID, e.DeprecationNote})
		}
	}

	parts = append(parts, formatTabular("entries",
		[]string{"id", "kind", "name", "memberof", "instance", "file", "line", "summary"}, entryRows))
	parts = append(parts, formatTabular("params",
		[]string{"id", "name", "type", "optional", "description"}, paramRows))
	parts = append(parts, formatTabular("returns",
		[]string{"id", "type", "description"}, returnRows))

	if len(deprecatedRows) > 0 {
		parts = append(parts, formatTabular("deprecated", []string{"id", "note"}, deprecatedRows))
	}

	return strings.Join(parts, "\n")
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

// encodeValue renders a cell bare when TOON allows it and quoted otherwise.
func encodeValue(value string) string {
	switch {
	case value == "":
		return `""`
	case value != strings.TrimSpace(value),
		strings.ContainsAny(value, "\n\r\t"):
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		// Booleans produced by the encoder itself stay bare.
		if value == "true" || value == "false" {
			return value
		}
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}
	if needsQuoting.MatchString(value) || strings.HasPrefix(value, "-") {
		return quote(value)
	}
	return value
}

var quoteReplacer = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func quote(value string) string {
	return `"` + quoteReplacer.Replace(value) + `"`
}
