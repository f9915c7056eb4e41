// Package lang provides a language registry mapping file extensions to
// tree-sitter grammars for the JavaScript family.
package lang

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Default is the language assumed for files with an unregistered extension.
const Default = "javascript"

// Language holds tree-sitter configuration for a supported language.
type Language struct {
	Name       string
	Extensions []string
	lang       *sitter.Language
}

// GetLanguage returns the tree-sitter Language pointer.
func (l *Language) GetLanguage() *sitter.Language {
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// Languages maps language names to their configuration.
var Languages = map[string]*Language{
	"javascript": {
		Name:       "javascript",
		Extensions: []string{".js", ".jsx", ".mjs", ".cjs"},
		lang:       javascript.GetLanguage(),
	},
	"typescript": {
		Name:       "typescript",
		Extensions: []string{".ts", ".mts", ".cts"},
		lang:       typescript.GetLanguage(),
	},
	"tsx": {
		Name:       "tsx",
		Extensions: []string{".tsx"},
		lang:       tsx.GetLanguage(),
	},
}

var extensionMap map[string]string
var extensionOnce sync.Once

func getExtensionMap() map[string]string {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]string)
		for _, l := range Languages {
			for _, ext := range l.Extensions {
				extensionMap[ext] = l.Name
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language name for a file extension, or "" if unsupported.
func ForExtension(ext string) string {
	return getExtensionMap()[strings.ToLower(ext)]
}

// ForPath returns the language for a file path, falling back to Default.
func ForPath(path string) *Language {
	if name := ForExtension(filepath.Ext(path)); name != "" {
		return Languages[name]
	}
	return Languages[Default]
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// Line returns the 1-based line a node starts on.
func Line(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}
