// Package parse extracts doc entries from source files using tree-sitter.
package parse

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/nodedocs/internal/comment"
	"github.com/phobologic/nodedocs/internal/ident"
	"github.com/phobologic/nodedocs/internal/lang"
	"github.com/phobologic/nodedocs/internal/model"
	"github.com/phobologic/nodedocs/internal/shape"
)

// ErrSyntax is wrapped by ParseError when the tree contains error nodes.
var ErrSyntax = errors.New("syntax error")

// ParseError reports a source file that could not be parsed into a clean tree.
type ParseError struct {
	Path   string
	Line   int // 1-based; 0 when no position is known
	Column int // 1-based
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %v", e.Path, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MetadataParser turns a cleaned documentation comment body into metadata.
type MetadataParser interface {
	Parse(body string) model.Metadata
}

// FileOptions describe the file being parsed.
type FileOptions struct {
	Path string // source path as given to the run; drives ids and module names
	URL  string // optional link to the source, copied to every entry
}

var functionTypes = map[string]struct{}{
	"function_declaration":           {},
	"function":                       {},
	"function_expression":            {},
	"generator_function":             {},
	"generator_function_declaration": {},
	"arrow_function":                 {},
	"method_definition":              {},
}

const objectType = "object"

// ExtractEntries parses source and returns one doc entry for every
// declaration that directly follows a /** */ comment. The parser must be
// created for the correct language. meta may be nil, in which case entries
// carry only location and code-shape information.
func ExtractEntries(ctx context.Context, parser *sitter.Parser, source []byte, opts FileOptions, meta MetadataParser) (model.EntryStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := model.EntryStore{}
	if len(source) == 0 {
		return entries, nil
	}

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ParseError{Path: opts.Path, Err: err}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(root, source, opts.Path)
	}

	w := &walker{
		source:   source,
		lines:    strings.Split(string(source), "\n"),
		comments: comment.Index(root, source),
		claimed:  make(map[int]bool),
		opts:     opts,
		meta:     meta,
		entries:  entries,
	}
	w.walkChildren(root)

	return entries, nil
}

// traversalState is the per-file context maintained while walking the tree.
type traversalState struct {
	scopeDepth int
	objects    []string // enclosing object literal names; "" when unnamed
}

func (s traversalState) snapshot() *model.Context {
	var parents []string
	for _, name := range s.objects {
		if name != "" {
			parents = append(parents, name)
		}
	}
	if s.scopeDepth == 0 && len(parents) == 0 {
		return nil
	}
	return &model.Context{ScopeDepth: s.scopeDepth, Parents: parents}
}

type walker struct {
	source   []byte
	lines    []string
	comments map[int]comment.DocComment
	claimed  map[int]bool
	state    traversalState
	opts     FileOptions
	meta     MetadataParser
	entries  model.EntryStore
}

func (w *walker) walkChildren(node *sitter.Node) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		w.walk(node.NamedChild(i), node)
	}
}

// walk visits node in pre-order, then its named children, then leaves it.
func (w *walker) walk(node, parent *sitter.Node) {
	w.enter(node, parent)
	w.walkChildren(node)
	w.leave(node)
}

func (w *walker) enter(node, parent *sitter.Node) {
	nodeType := node.Type()

	// The first node to reach a commented line claims it; the entry sees the
	// state of the context the node lives in, not the scope it opens.
	if nodeType != comment.NodeType {
		line := lang.Line(node)
		if c, ok := w.comments[line]; ok && !w.claimed[line] {
			w.claimed[line] = true
			w.document(line, c)
		}
	}

	if _, ok := functionTypes[nodeType]; ok {
		w.state.scopeDepth++
	}
	if nodeType == objectType {
		w.state.objects = append(w.state.objects, containerName(parent, w.source))
	}
}

func (w *walker) leave(node *sitter.Node) {
	nodeType := node.Type()
	if _, ok := functionTypes[nodeType]; ok {
		w.state.scopeDepth--
	}
	if nodeType == objectType && len(w.state.objects) > 0 {
		w.state.objects = w.state.objects[:len(w.state.objects)-1]
	}
}

// document builds the entry for a claimed line: location, then the shape of
// the line's code, then the comment's metadata, which wins on conflicts.
func (w *walker) document(line int, c comment.DocComment) {
	var code string
	if line-1 < len(w.lines) {
		code = strings.TrimSpace(w.lines[line-1])
	}

	entry := model.DocEntry{
		Source: model.SourceLocation{
			Line: line,
			File: w.opts.Path,
			URL:  w.opts.URL,
		},
		Context: w.state.snapshot(),
	}
	entry.ApplyShape(shape.Infer(code, w.opts.Path))
	if w.meta != nil {
		entry.ApplyMetadata(w.meta.Parse(comment.Clean(c.Text)))
	}
	entry.ID = ident.Generate(entry)

	w.entries.Put(entry)
}

// containerName returns the name an object literal is bound to: the variable
// it initializes or the property key it is the value of.
func containerName(parent *sitter.Node, source []byte) string {
	if parent == nil {
		return ""
	}
	switch parent.Type() {
	case "variable_declarator":
		if n := parent.ChildByFieldName("name"); n != nil && n.Type() == "identifier" {
			return lang.NodeText(n, source)
		}
	case "pair":
		if n := parent.ChildByFieldName("key"); n != nil {
			return strings.Trim(lang.NodeText(n, source), `'"`)
		}
	}
	return ""
}

func syntaxError(root *sitter.Node, source []byte, path string) *ParseError {
	pe := &ParseError{Path: path, Err: ErrSyntax}
	n := firstError(root)
	if n == nil {
		return pe
	}
	pe.Line = lang.Line(n)
	pe.Column = int(n.StartPoint().Column) + 1
	if n.IsMissing() {
		pe.Err = fmt.Errorf("%w: missing %q", ErrSyntax, n.Type())
	} else {
		pe.Err = fmt.Errorf("%w: unexpected %q", ErrSyntax, snippet(lang.NodeText(n, source)))
	}
	return pe
}

// firstError returns the first ERROR or MISSING node in document order.
func firstError(node *sitter.Node) *sitter.Node {
	if node.Type() == "ERROR" || node.IsMissing() {
		return node
	}
	if !node.HasError() {
		return nil
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if n := firstError(node.Child(i)); n != nil {
			return n
		}
	}
	return nil
}

func snippet(s string) string {
	s, _, _ = strings.Cut(s, "\n")
	if len(s) > 20 {
		s = s[:20] + "..."
	}
	return s
}
