package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/nodedocs/internal/watch"
)

func (a *app) watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Extract, then re-extract whenever a source file changes",
		Long: `Run extract once, then watch the source directories and run it again each
time supported source files change. Requires --dest or --db. Parse errors
during watching are logged and the previous output is kept.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Dest == "" && a.cfg.DB == "" {
				return errors.New("watch needs --dest or --db")
			}
			return a.runWatch(cmd.Context(), args)
		},
	}
	a.addSourceFlags(cmd)
	a.addOutputFlags(cmd)
	cmd.Flags().Duration("debounce", defaultDebounce, "quiet period before re-extracting")
	return cmd
}

func (a *app) runWatch(ctx context.Context, args []string) error {
	// Watchers on separate roots may fire together; rebuilds run one at a time.
	var mu sync.Mutex
	rebuild := func(ctx context.Context, changed []string) error {
		mu.Lock()
		defer mu.Unlock()
		if len(changed) > 0 {
			a.logger.Info("source changed", "files", len(changed), "first", changed[0])
		}
		entries, err := a.buildStore(ctx, args)
		if err != nil {
			return err
		}
		return a.publish(ctx, entries)
	}

	if err := rebuild(ctx, nil); err != nil {
		return err
	}

	roots, err := a.watchRoots(args)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, root := range roots {
		w, err := watch.New(watch.Config{
			Root:     root,
			Debounce: a.cfg.Watch.Debounce,
			Logger:   a.logger,
			OnChange: rebuild,
		})
		if err != nil {
			return err
		}
		g.Go(func() error { return w.Run(gctx) })
	}
	return g.Wait()
}

// watchRoots returns the directories to watch: each directory path, and the
// parent of each file path, without nesting duplicates.
func (a *app) watchRoots(args []string) ([]string, error) {
	paths := args
	if len(paths) == 0 {
		paths = a.cfg.Paths
	}

	var roots []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		dir := p
		if !info.IsDir() {
			dir = filepath.Dir(p)
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, err
		}
		roots = append(roots, abs)
	}
	return dedupeRoots(roots), nil
}

// dedupeRoots drops roots contained in another root.
func dedupeRoots(roots []string) []string {
	var out []string
	for i, r := range roots {
		covered := false
		for j, other := range roots {
			if i == j {
				continue
			}
			if within(r, other) && (r != other || j < i) {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, r)
		}
	}
	return out
}

func within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
