package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/phobologic/nodedocs/internal/graph"
	"github.com/phobologic/nodedocs/internal/model"
)

const (
	sentinelStart = "<!-- nodedocs:start -->"
	sentinelEnd   = "<!-- nodedocs:end -->"
)

const injectLong = `Write an API index to a Markdown file (default ./README.md). The index is
wrapped in sentinel comments so it can be updated in place on subsequent runs
without touching surrounding content. Creates the file if it does not exist.

Entries come from --db when it is newer than every source file, and from a
fresh extraction of the configured paths otherwise.`

func (a *app) injectCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "inject [file]",
		Short: "Write an API index between sentinel comments in a Markdown file",
		Long:  injectLong,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.indexEntries(cmd.Context())
			if err != nil {
				return err
			}
			section := generateSection(a.cfg.Project, entries)

			path := "README.md"
			if len(args) > 0 {
				path = args[0]
			}

			existing, err := os.ReadFile(path)
			if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			updated := applySection(string(existing), section)

			if dryRun {
				_, _ = fmt.Fprint(a.stdout, updated)
				return nil
			}
			if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			a.logger.Info("wrote api index", "file", path, "entries", entries.Len())
			return nil
		},
	}
	a.addSourceFlags(cmd)
	f := cmd.Flags()
	f.String("db", "", "reuse entries from this database when it is up to date")
	f.String("project", "", "project name used in the index heading")
	f.BoolVar(&dryRun, "dry-run", false, "print the would-be file instead of writing it")
	return cmd
}

// indexEntries loads entries from the configured database when it is fresh
// and extracts the configured paths otherwise.
func (a *app) indexEntries(ctx context.Context) (model.EntryStore, error) {
	if a.cfg.DB != "" && fileSize(a.cfg.DB) >= 0 {
		files, err := a.sourceFiles(nil)
		if err != nil {
			return nil, err
		}
		s, err := openStore(a.cfg.DB)
		if err != nil {
			return nil, err
		}
		defer s.Close()

		extractedAt, err := s.ExtractedAt(ctx)
		if err != nil {
			return nil, err
		}
		if dbIsFresh(extractedAt, files) {
			a.logger.Debug("using saved entries", "db", a.cfg.DB)
			return s.LoadEntries(ctx)
		}
		a.logger.Debug("saved entries are stale", "db", a.cfg.DB)
	}
	return a.buildStore(ctx, nil)
}

// dbIsFresh reports whether every file was last modified before extractedAt.
// A zero extractedAt is never fresh.
func dbIsFresh(extractedAt time.Time, files []string) bool {
	if extractedAt.IsZero() {
		return false
	}
	for _, f := range files {
		fi, err := os.Stat(f)
		if err != nil {
			return false
		}
		if !fi.ModTime().Before(extractedAt) {
			return false
		}
	}
	return true
}

// generateSection returns the sentinel-wrapped API index: one heading per
// owner and one line per public entry.
func generateSection(project string, entries model.EntryStore) string {
	var b strings.Builder
	b.WriteString(sentinelStart + "\n")
	if project != "" {
		b.WriteString("## " + project + " API\n")
	} else {
		b.WriteString("## API\n")
	}

	for _, g := range graph.GroupByOwner(graph.Select(entries, graph.Filter{})) {
		title := g.Owner
		if title == "" {
			title = "Globals"
		}
		b.WriteString("\n### " + title + "\n\n")
		for _, e := range g.Members {
			b.WriteString("- `" + e.ID + "`")
			if s := e.Summary(); s != "" {
				b.WriteString(" " + s)
			}
			b.WriteString(" (" + e.Source.File + ":" + strconv.Itoa(e.Source.Line) + ")\n")
		}
	}

	b.WriteString(sentinelEnd)
	return b.String()
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	if content == "" {
		return section + "\n"
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
