package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/logger"
)

type options struct {
	catalogPath string
	configPath  string
	logLevel    string
	limit       int
	asJSON      bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "searchctl",
		Short:         "Query a product catalog with the catalog search engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetupWriter(cmd.ErrOrStderr(), opts.logLevel, "text")
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.catalogPath, "catalog", "data/catalog.json", "path to the catalog JSON file")
	flags.StringVar(&opts.configPath, "config", "", "optional config file for search settings")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flags.IntVarP(&opts.limit, "limit", "n", 0, "maximum results (0 uses the configured default)")
	flags.BoolVar(&opts.asJSON, "json", false, "print JSON instead of a table")

	root.AddCommand(
		newSearchCmd(opts),
		newSuggestCmd(opts),
		newProductsCmd(opts),
		newStatsCmd(opts),
		newLoadTestCmd(),
	)
	return root
}

func newSearchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Rank catalog items for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.engine(cmd)
			if err != nil {
				return err
			}
			limit := opts.limit
			if limit <= 0 {
				limit = engine.Config().DefaultLimit
			}
			resp := engine.Execute(strings.Join(args, " "), limit)
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SCORE\tID\tNAME\tBRAND\tCATEGORY\tATTRS")
			for _, r := range resp.Results {
				fmt.Fprintf(tw, "%.4f\t%s\t%s\t%s\t%s\t%s\n",
					r.Score, r.Item.ID, r.Item.Name, orDash(r.Item.Brand), orDash(r.Item.Category),
					orDash(strings.Join(r.Item.AttrNames(), ",")))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d matching items\n", len(resp.Results), resp.TotalHits)
			return nil
		},
	}
}

func newSuggestCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <prefix>",
		Short: "Complete a partial query from the index vocabulary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.engine(cmd)
			if err != nil {
				return err
			}
			terms := engine.Suggestions(strings.Join(args, " "), opts.limit)
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), terms)
			}
			for _, t := range terms {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
}

func newProductsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "products <query>",
		Short: "Show the top products for a partial query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.engine(cmd)
			if err != nil {
				return err
			}
			items := engine.ProductSuggestions(strings.Join(args, " "), opts.limit)
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), items)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSLUG")
			for _, it := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", it.ID, it.Name, it.Slug)
			}
			return tw.Flush()
		},
	}
}

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print index statistics for the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.engine(cmd)
			if err != nil {
				return err
			}
			stats := engine.Stats()
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "documents:  %d\n", stats.Documents)
			fmt.Fprintf(out, "terms:      %d\n", stats.Terms)
			fmt.Fprintf(out, "ngrams:     %d\n", stats.NGrams)
			fmt.Fprintf(out, "entries:    %d\n", stats.Entries)
			fmt.Fprintf(out, "build time: %s\n", stats.BuildDuration)
			return nil
		},
	}
}

// engine loads the catalog and builds a fresh index for one command.
func (o *options) engine(cmd *cobra.Command) (*searcher.Engine, error) {
	searchCfg := config.SearchConfig{}
	if o.configPath != "" {
		cfg, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		searchCfg = cfg.Search
	}
	items, err := catalog.NewFileSource(o.catalogPath).Load(cmd.Context())
	if err != nil {
		return nil, err
	}
	engine := searcher.NewEngine(searchCfg)
	engine.BuildIndex(items)
	return engine, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
