package render

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/olekukonko/tablewriter"

	"github.com/phobologic/nodedocs/internal/graph"
	"github.com/phobologic/nodedocs/internal/model"
)

// GlobalsFile holds the entries that have no owner.
const GlobalsFile = "globals.md"

var (
	htmlTagRe    = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9]*(?:\s[^<>]*)?/?>`)
	unsafeNameRe = regexp.MustCompile(`[^\w.$-]+`)
)

// Markdown renders one page per owner.
type Markdown struct {
	converter *md.Converter
}

// NewMarkdown returns a Markdown renderer that converts HTML found in
// descriptions to GitHub-flavored Markdown.
func NewMarkdown() *Markdown {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &Markdown{converter: converter}
}

// FileName returns the page an owner's entries are written to.
func FileName(owner string) string {
	if owner == "" {
		return GlobalsFile
	}
	return unsafeNameRe.ReplaceAllString(owner, "_") + ".md"
}

func (m *Markdown) Render(ctx context.Context, store model.EntryStore) (map[string]string, error) {
	files := make(map[string]string)
	used := make(map[string]struct{})
	for _, g := range graph.GroupByOwner(store) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := m.page(g)
		if err != nil {
			return nil, err
		}
		files[uniqueName(FileName(g.Owner), used)] = page
	}
	return files, nil
}

// uniqueName returns name, or name with a "-N" suffix when an earlier page
// already took it. Names are compared case-insensitively so pages stay apart
// on case-insensitive filesystems. Groups arrive sorted by owner, so globals
// always keep GlobalsFile.
func uniqueName(name string, used map[string]struct{}) string {
	base := strings.TrimSuffix(name, ".md")
	for n := 2; ; n++ {
		if _, taken := used[strings.ToLower(name)]; !taken {
			used[strings.ToLower(name)] = struct{}{}
			return name
		}
		name = fmt.Sprintf("%s-%d.md", base, n)
	}
}

func (m *Markdown) page(g graph.OwnerGroup) (string, error) {
	var b strings.Builder

	title := g.Owner
	if title == "" {
		title = "Globals"
	}
	fmt.Fprintf(&b, "# %s\n", title)

	if g.Entry != nil && g.Entry.Description != "" {
		desc, err := m.description(g.Entry.Description)
		if err != nil {
			return "", fmt.Errorf("%s: %w", g.Entry.ID, err)
		}
		fmt.Fprintf(&b, "\n%s\n", desc)
	}

	for i := range g.Members {
		if err := m.entry(&b, &g.Members[i]); err != nil {
			return "", fmt.Errorf("%s: %w", g.Members[i].ID, err)
		}
	}
	return b.String(), nil
}

func (m *Markdown) entry(b *strings.Builder, e *model.DocEntry) error {
	name := e.Name
	if e.Kind == model.Function {
		name += "()"
	}
	fmt.Fprintf(b, "\n## %s\n\n", name)

	facts := []string{"`" + e.ID + "`"}
	if e.Kind != model.Unknown {
		facts = append(facts, string(e.Kind))
	}
	if e.Instance {
		facts = append(facts, "instance")
	}
	if e.Access != "" {
		facts = append(facts, e.Access)
	}
	loc := fmt.Sprintf("%s:%d", e.Source.File, e.Source.Line)
	if e.Source.URL != "" {
		loc = fmt.Sprintf("[%s](%s)", loc, e.Source.URL)
	}
	facts = append(facts, loc)
	fmt.Fprintf(b, "%s\n", strings.Join(facts, " · "))

	if e.Deprecated {
		note := "Deprecated."
		if e.DeprecationNote != "" {
			note = "Deprecated: " + e.DeprecationNote
		}
		fmt.Fprintf(b, "\n> **%s**\n", note)
	}

	if e.Description != "" {
		desc, err := m.description(e.Description)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "\n%s\n", desc)
	}

	if e.Type != "" {
		fmt.Fprintf(b, "\n**Type:** `%s`\n", e.Type)
	}

	if len(e.Params) > 0 {
		fmt.Fprintf(b, "\n%s", paramsTable(e.Params))
	}

	if e.Returns != nil {
		fmt.Fprintf(b, "\n**Returns:** `%s`", orDash(e.Returns.Type))
		if e.Returns.Description != "" {
			fmt.Fprintf(b, " %s", e.Returns.Description)
		}
		b.WriteString("\n")
	}

	if e.Since != "" {
		fmt.Fprintf(b, "\n_Since %s_\n", e.Since)
	}

	for _, ex := range e.Examples {
		fmt.Fprintf(b, "\n```js\n%s\n```\n", ex)
	}
	return nil
}

// description converts HTML in a description to Markdown. Plain text is
// returned unchanged.
func (m *Markdown) description(s string) (string, error) {
	if !htmlTagRe.MatchString(s) {
		return s, nil
	}
	out, err := m.converter.ConvertString(s)
	if err != nil {
		return "", fmt.Errorf("converting description: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func paramsTable(params []model.Param) string {
	var b strings.Builder
	table := tablewriter.NewWriter(&b)
	table.SetHeader([]string{"Name", "Type", "Description"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	for _, p := range params {
		name := p.Name
		if p.Optional {
			name = "[" + name + "]"
			if p.Default != "" {
				name = "[" + p.Name + "=" + p.Default + "]"
			}
		}
		table.Append([]string{name, orDash(p.Type), strings.ReplaceAll(p.Description, "\n", " ")})
	}
	table.Render()
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
