package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/nodedocs/internal/graph"
	"github.com/phobologic/nodedocs/internal/model"
	"github.com/phobologic/nodedocs/internal/store"
)

var errNoDB = errors.New("no database configured (set --db or db in nodedocs.yaml)")

func (a *app) listCmd() *cobra.Command {
	var (
		symbol  string
		members bool
		private bool
		kinds   []string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries saved by extract --db",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openDB()
			if err != nil {
				return err
			}
			defer s.Close()

			entries, err := s.LoadEntries(cmd.Context())
			if err != nil {
				return err
			}
			if symbol != "" {
				entries = graph.FilterBySymbol(entries, symbol, members)
			}
			filter := graph.Filter{IncludePrivate: private, Limit: limit}
			for _, k := range kinds {
				filter.Kinds = append(filter.Kinds, model.Kind(k))
			}
			entries = graph.Select(entries, filter)

			extractedAt, err := s.ExtractedAt(cmd.Context())
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(a.stdout)
			table.SetHeader([]string{"ID", "Kind", "Location", "Summary"})
			table.SetBorder(false)
			table.SetCenterSeparator("")
			table.SetColumnSeparator("")
			table.SetAutoWrapText(false)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			for _, e := range entries.Sorted() {
				table.Append([]string{
					e.ID,
					string(e.Kind),
					e.Source.File + ":" + strconv.Itoa(e.Source.Line),
					e.Summary(),
				})
			}
			footer := fmt.Sprintf("%d entries", entries.Len())
			if !extractedAt.IsZero() {
				footer += ", extracted " + extractedAt.Local().Format("2006-01-02 15:04")
			}
			table.SetFooter([]string{footer, "", "", ""})
			table.Render()
			return nil
		},
	}
	f := cmd.Flags()
	f.String("db", "", "entry database written by extract --db")
	f.StringVarP(&symbol, "symbol", "s", "", "only entries whose name or id contains this text")
	f.BoolVar(&members, "members", false, "with --symbol, also list members of matched entries")
	f.BoolVar(&private, "private", false, "include @private entries")
	f.StringSliceVarP(&kinds, "kind", "k", nil, "only these kinds: function, member, event, class, namespace")
	f.IntVarP(&limit, "limit", "n", 0, "show at most this many entries")
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one entry saved by extract --db",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openDB()
			if err != nil {
				return err
			}
			defer s.Close()

			e, err := s.Entry(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("no entry %q", args[0])
				}
				return err
			}

			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetEscapeHTML(false)
				enc.SetIndent("", "  ")
				return enc.Encode(e)
			}
			enc := yaml.NewEncoder(a.stdout)
			enc.SetIndent(2)
			if err := enc.Encode(e); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	cmd.Flags().String("db", "", "entry database written by extract --db")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of YAML")
	return cmd
}

func (a *app) openDB() (*store.Store, error) {
	if strings.TrimSpace(a.cfg.DB) == "" {
		return nil, errNoDB
	}
	if fileSize(a.cfg.DB) < 0 {
		return nil, fmt.Errorf("database %s does not exist; run extract --db first", a.cfg.DB)
	}
	return openStore(a.cfg.DB)
}
