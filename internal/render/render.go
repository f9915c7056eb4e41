// Package render turns an entry store into output files.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/phobologic/nodedocs/internal/model"
)

// Renderer produces a set of named output files from a store.
type Renderer interface {
	Render(ctx context.Context, store model.EntryStore) (map[string]string, error)
}

// Options configure the renderers built by New.
type Options struct {
	// Project names the documented project in outputs that carry a title.
	Project string
	// Script is the risor source evaluated by the script renderer.
	Script string
}

var constructors = map[string]func(Options) Renderer{
	"json":     func(Options) Renderer { return JSON{} },
	"yaml":     func(Options) Renderer { return YAML{} },
	"toon":     func(o Options) Renderer { return TOON{Project: o.Project} },
	"markdown": func(Options) Renderer { return NewMarkdown() },
	"script":   func(o Options) Renderer { return Script{Source: o.Script} },
}

// Formats returns the names accepted by New, sorted.
func Formats() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the renderer registered under format.
func New(format string, opts Options) (Renderer, error) {
	ctor, ok := constructors[format]
	if !ok {
		return nil, fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats(), ", "))
	}
	if format == "script" && strings.TrimSpace(opts.Script) == "" {
		return nil, fmt.Errorf("format %q requires a script", format)
	}
	return ctor(opts), nil
}

// ErrUnsafeName is returned by WriteFiles for a file name that is absolute or
// climbs out of the destination directory.
var ErrUnsafeName = errors.New("file name escapes destination")

// WriteFiles writes every rendered file below dest, creating directories as
// needed. Nothing is written if any name is unsafe.
func WriteFiles(dest string, files map[string]string) error {
	names := sortedNames(files)
	for _, name := range names {
		if !filepath.IsLocal(filepath.FromSlash(name)) {
			return fmt.Errorf("%q: %w", name, ErrUnsafeName)
		}
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	for _, name := range names {
		path := filepath.Join(dest, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(files[name]), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

// Print writes the rendered files to w. A single file is written as is;
// several are each preceded by a "==> name <==" header.
func Print(w io.Writer, files map[string]string) error {
	names := sortedNames(files)
	if len(names) == 1 {
		_, err := io.WriteString(w, ensureNewline(files[names[0]]))
		return err
	}
	for i, name := range names {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "==> %s <==\n%s", name, ensureNewline(files[name])); err != nil {
			return err
		}
	}
	return nil
}

func sortedNames(files map[string]string) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ensureNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
