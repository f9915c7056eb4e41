// Package extract drives documentation extraction over a list of source files.
package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/nodedocs/internal/jsdoc"
	"github.com/phobologic/nodedocs/internal/lang"
	"github.com/phobologic/nodedocs/internal/model"
	"github.com/phobologic/nodedocs/internal/parse"
)

// Options configure a run.
type Options struct {
	// BaseURL is prefixed to each file path to form the entry's source URL.
	BaseURL string
	// Workers is the number of files parsed concurrently. Values <= 1 parse
	// sequentially.
	Workers int
	// Metadata parses comment bodies. Defaults to the JSDoc parser.
	Metadata parse.MetadataParser
	Logger   *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Metadata == nil {
		o.Metadata = jsdoc.Parser{}
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// Extract parses every file and merges the entries into one store. Files are
// merged in input order, so a later file overwrites an earlier one on id
// collision. The first file that fails, in input order, aborts the run and no
// store is returned.
func Extract(ctx context.Context, files []string, opts Options) (model.EntryStore, error) {
	opts = opts.withDefaults()

	var (
		results []model.EntryStore
		err     error
	)
	if opts.Workers > 1 && len(files) > 1 {
		results, err = extractConcurrent(ctx, files, opts)
	} else {
		results, err = extractSequential(ctx, files, opts)
	}
	if err != nil {
		return nil, err
	}

	store := model.EntryStore{}
	for i, entries := range results {
		for _, id := range store.Merge(entries) {
			opts.Logger.Debug("identifier collision", "id", id, "file", files[i])
		}
	}
	opts.Logger.Debug("extraction complete", "files", len(files), "entries", store.Len())
	return store, nil
}

func extractSequential(ctx context.Context, files []string, opts Options) ([]model.EntryStore, error) {
	parsers := make(map[string]*sitter.Parser)
	results := make([]model.EntryStore, len(files))
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := extractFile(ctx, parsers, path, opts)
		if err != nil {
			return nil, err
		}
		results[i] = entries
	}
	return results, nil
}

// extractConcurrent parses files with a bounded number of goroutines. Every
// file's outcome is recorded by index so the reported error is the one that
// a sequential run would have hit first.
func extractConcurrent(ctx context.Context, files []string, opts Options) ([]model.EntryStore, error) {
	results := make([]model.EntryStore, len(files))
	errs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			// Each goroutine gets its own parser.
			entries, err := extractFile(gctx, make(map[string]*sitter.Parser), path, opts)
			results[i], errs[i] = entries, err
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func extractFile(ctx context.Context, parsers map[string]*sitter.Parser, path string, opts Options) (model.EntryStore, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	l := lang.ForPath(path)
	p, ok := parsers[l.Name]
	if !ok {
		p = l.NewParser()
		parsers[l.Name] = p
	}

	fo := parse.FileOptions{Path: path}
	if opts.BaseURL != "" {
		fo.URL = opts.BaseURL + filepath.ToSlash(path)
	}

	entries, err := parse.ExtractEntries(ctx, p, source, fo, opts.Metadata)
	if err != nil {
		return nil, err
	}
	opts.Logger.Debug("parsed file", "file", path, "language", l.Name, "entries", entries.Len())
	return entries, nil
}
