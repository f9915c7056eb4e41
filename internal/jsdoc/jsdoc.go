// Package jsdoc parses cleaned documentation comment bodies into tag metadata.
package jsdoc

import (
	"strings"

	"github.com/phobologic/nodedocs/internal/model"
)

// Parser implements the comment-metadata capability used by the tree walker.
type Parser struct{}

// Parse implements parse.MetadataParser.
func (Parser) Parse(body string) model.Metadata {
	return Parse(body)
}

type tag struct {
	name string
	text string
}

// Parse splits a cleaned comment body into its free-text description and
// block tags and interprets the tags it knows about. Every tag, known or not,
// is also recorded verbatim in Metadata.Tags.
func Parse(body string) model.Metadata {
	desc, tags := split(body)

	m := model.Metadata{Description: desc}
	if len(tags) > 0 {
		m.Tags = make(map[string][]string, len(tags))
	}

	for _, t := range tags {
		text := strings.TrimSpace(t.text)
		m.Tags[t.name] = append(m.Tags[t.name], text)

		switch t.name {
		case "param", "arg", "argument":
			m.Params = append(m.Params, parseParam(text))
		case "return", "returns":
			typ, rest := readType(text)
			m.Returns = &model.Return{Type: typ, Description: trimDash(rest)}
		case "type":
			typ, rest := readType(text)
			if typ == "" {
				typ = firstWord(rest)
			}
			m.Type = typ
		case "name":
			m.Name = firstWord(text)
		case "memberof", "memberOf":
			m.MemberOf = strings.TrimSuffix(firstWord(text), "!")
		case "instance":
			m.Instance = boolPtr(true)
		case "static":
			m.Instance = boolPtr(false)
		case "function", "func", "method":
			m.Kind = model.Function
			setPath(&m, firstWord(text))
		case "member", "var":
			m.Kind = model.Member
			typ, rest := readType(text)
			if typ != "" {
				m.Type = typ
			}
			setPath(&m, firstWord(rest))
		case "event":
			m.Kind = model.Event
			setPath(&m, firstWord(text))
		case "class", "constructor":
			m.Kind = model.Class
			setPath(&m, firstWord(text))
		case "namespace":
			m.Kind = model.Namespace
			setPath(&m, firstWord(text))
		case "private", "protected", "public":
			m.Access = t.name
		case "access":
			m.Access = firstWord(text)
		case "deprecated":
			m.Deprecated = true
			m.DeprecationNote = text
		case "since":
			m.Since = text
		case "example":
			m.Examples = append(m.Examples, strings.TrimRight(strings.TrimLeft(t.text, " \t\n"), " \t\n"))
		case "description", "desc":
			if text != "" {
				m.Description = text
			}
		}
	}

	return m
}

// split separates the description from the block tags. A tag starts on a
// line whose first non-blank character is "@" and runs until the next tag.
func split(body string) (string, []tag) {
	var descLines []string
	var tags []tag

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "@") && len(trimmed) > 1 {
			name, rest, _ := strings.Cut(trimmed[1:], " ")
			if i := strings.IndexAny(name, "\t{"); i >= 0 {
				rest = name[i:] + " " + rest
				name = name[:i]
			}
			tags = append(tags, tag{name: name, text: rest})
			continue
		}
		if len(tags) > 0 {
			last := &tags[len(tags)-1]
			last.text += "\n" + line
			continue
		}
		descLines = append(descLines, line)
	}

	return strings.TrimSpace(strings.Join(descLines, "\n")), tags
}

// parseParam parses "{Type} [name=default] - description".
func parseParam(text string) model.Param {
	typ, rest := readType(text)
	p := model.Param{Type: typ}

	if strings.HasSuffix(p.Type, "=") {
		p.Type = strings.TrimSuffix(p.Type, "=")
		p.Optional = true
	}

	if strings.HasPrefix(rest, "[") {
		end := strings.Index(rest, "]")
		if end < 0 {
			end = len(rest)
		}
		inner := rest[1:end]
		p.Name, p.Default, _ = strings.Cut(inner, "=")
		p.Name = strings.TrimSpace(p.Name)
		p.Default = strings.TrimSpace(p.Default)
		p.Optional = true
		if end < len(rest) {
			rest = rest[end+1:]
		} else {
			rest = ""
		}
	} else {
		p.Name = firstWord(rest)
		rest = strings.TrimPrefix(rest, p.Name)
	}

	p.Description = trimDash(rest)
	return p
}

// readType reads a leading {type} expression with balanced braces and returns
// it together with the remaining text.
func readType(text string) (string, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "{") {
		return "", text
	}
	depth := 0
	for i, r := range text {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(text[1:i]), strings.TrimSpace(text[i+1:])
			}
		}
	}
	return strings.TrimSpace(text[1:]), ""
}

// setPath applies a tag argument such as "ready", "Player#ready" or
// "vjs.Player.create" as name, owner and instance marker.
func setPath(m *model.Metadata, path string) {
	if path == "" {
		return
	}
	if owner, name, ok := strings.Cut(path, "#"); ok {
		m.MemberOf = owner
		m.Name = name
		m.Instance = boolPtr(true)
		return
	}
	if i := strings.LastIndex(path, "."); i > 0 && i < len(path)-1 {
		m.MemberOf = path[:i]
		m.Name = path[i+1:]
		return
	}
	m.Name = path
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func trimDash(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "-")
	return strings.TrimSpace(s)
}

func boolPtr(b bool) *bool {
	return &b
}
