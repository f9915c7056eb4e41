// Package comment indexes documentation comments by the line they document.
package comment

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/nodedocs/internal/lang"
)

// NodeType is the tree-sitter node type of comments in the JavaScript family.
const NodeType = "comment"

var leadingStarRe = regexp.MustCompile(`(?m)^[ \t]*\* ?`)

// DocComment is a documentation comment found in a source file.
type DocComment struct {
	Text    string // body between the block delimiters, e.g. "* adds two numbers "
	EndLine int
}

// Index walks every comment under root and returns the documentation comments
// keyed by the line immediately following each comment's last line. When two
// comments map to the same line the later one wins.
func Index(root *sitter.Node, source []byte) map[int]DocComment {
	index := make(map[int]DocComment)
	if root == nil {
		return index
	}
	collect(root, source, index)
	return index
}

func collect(node *sitter.Node, source []byte, index map[int]DocComment) {
	if node.Type() == NodeType {
		if body, ok := docBody(lang.NodeText(node, source)); ok {
			end := int(node.EndPoint().Row) + 1
			index[end+1] = DocComment{Text: body, EndLine: end}
		}
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		collect(node.Child(i), source, index)
	}
}

// docBody returns the body of a /** */ block comment. Line comments, plain
// block comments and the empty /**/ are rejected.
func docBody(raw string) (string, bool) {
	if !strings.HasPrefix(raw, "/*") || !strings.HasSuffix(raw, "*/") || len(raw) < 4 {
		return "", false
	}
	body := raw[2 : len(raw)-2]
	if !strings.HasPrefix(body, "*") {
		return "", false
	}
	return body, true
}

// Clean strips comment syntax from a documentation comment body: the leading
// marker and, on every line, leading whitespace followed by an asterisk and
// one optional space.
func Clean(body string) string {
	body = strings.TrimPrefix(body, "*")
	body = strings.ReplaceAll(body, "\r\n", "\n")
	return leadingStarRe.ReplaceAllString(body, "")
}
