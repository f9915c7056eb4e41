package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/phobologic/nodedocs/internal/discover"
	"github.com/phobologic/nodedocs/internal/extract"
	"github.com/phobologic/nodedocs/internal/model"
	"github.com/phobologic/nodedocs/internal/render"
	"github.com/phobologic/nodedocs/internal/store"
)

const extractLong = `Extract documentation from the given files and directories (default: the
configured paths, or the current directory).

Directories are searched for .js, .jsx, .mjs, .cjs, .ts, .mts, .cts and .tsx
files, skipping hidden, node_modules, dist, build and coverage directories and
anything .gitignore excludes. Output goes to stdout unless --dest is set; --db
additionally saves the entries for the list and show commands.`

func (a *app) extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [paths...]",
		Short: "Extract documentation and render it",
		Long:  extractLong,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.buildStore(cmd.Context(), args)
			if err != nil {
				return err
			}
			return a.publish(cmd.Context(), entries)
		},
	}
	a.addSourceFlags(cmd)
	a.addOutputFlags(cmd)
	return cmd
}

func (a *app) addSourceFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringArrayP("ignore", "x", nil, "skip paths matching a glob or containing a substring (repeatable)")
	f.Bool("skip-tests", false, "skip test files and test directories")
	f.Int64("max-file-size", defaultMaxFileSize, "skip files larger than this many bytes")
	f.String("base-url", "", "prefix joined with each file path to link entries to their source")
	f.IntP("workers", "j", 0, "files parsed concurrently (default: number of CPUs)")
}

func (a *app) addOutputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("format", "f", defaultFormat, "output format: json, yaml, toon, markdown or script")
	f.StringP("dest", "d", "", "write output files to this directory instead of stdout")
	f.String("db", "", "also save entries to this SQLite database")
	f.String("script", "", "risor script used by --format script")
	f.String("project", "", "project name used in output headers")
}

// sourceFiles expands paths into the list of files to extract, in a stable
// order without duplicates. Directory results keep the directory prefix so
// that ids derived from paths are the same whichever directory is named.
func (a *app) sourceFiles(paths []string) ([]string, error) {
	if len(paths) == 0 {
		paths = a.cfg.Paths
	}
	opts := discover.Options{Ignore: a.cfg.Ignore, SkipTests: a.cfg.SkipTests}

	seen := make(map[string]struct{})
	var files []string
	add := func(path string) {
		path = filepath.Clean(path)
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("source path: %w", err)
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		found, err := discover.Files(p, opts)
		if err != nil {
			return nil, fmt.Errorf("discovering files in %s: %w", p, err)
		}
		for _, f := range found {
			add(filepath.Join(p, f.Path))
		}
	}
	return a.filterBySize(files), nil
}

func (a *app) filterBySize(files []string) []string {
	if a.cfg.MaxFileSize <= 0 {
		return files
	}
	var kept []string
	for _, f := range files {
		if fileSize(f) > a.cfg.MaxFileSize {
			a.logger.Warn("skipping large file", "file", f, "limit", a.cfg.MaxFileSize)
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// buildStore discovers and extracts the given paths.
func (a *app) buildStore(ctx context.Context, paths []string) (model.EntryStore, error) {
	files, err := a.sourceFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no source files found")
	}

	workers := a.cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	entries, err := extract.Extract(ctx, files, extract.Options{
		BaseURL: a.cfg.BaseURL,
		Workers: workers,
		Logger:  a.logger,
	})
	if err != nil {
		return nil, err
	}
	a.logger.Info("extracted documentation", "files", len(files), "entries", entries.Len())
	return entries, nil
}

// publish saves entries to the configured database and renders them.
func (a *app) publish(ctx context.Context, entries model.EntryStore) error {
	if a.cfg.DB != "" {
		if err := saveEntries(ctx, a.cfg.DB, entries); err != nil {
			return err
		}
		a.logger.Info("saved entries", "db", a.cfg.DB)
	}

	var script string
	if a.cfg.Format == "script" {
		s, err := render.LoadScript(a.cfg.Script)
		if err != nil {
			return err
		}
		script = s
	}

	r, err := render.New(a.cfg.Format, render.Options{Project: a.cfg.Project, Script: script})
	if err != nil {
		return err
	}
	files, err := r.Render(ctx, entries)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", a.cfg.Format, err)
	}

	if a.cfg.Dest == "" {
		return render.Print(a.stdout, files)
	}
	if err := render.WriteFiles(a.cfg.Dest, files); err != nil {
		return err
	}
	a.logger.Info("wrote output", "dest", a.cfg.Dest, "files", len(files))
	return nil
}

func openStore(path string) (*store.Store, error) {
	s, err := store.NewStore(path)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func saveEntries(ctx context.Context, path string, entries model.EntryStore) error {
	s, err := openStore(path)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.SaveEntries(ctx, entries)
}
