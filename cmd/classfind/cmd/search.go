package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/classfind/internal/classsearch"
	cferrors "github.com/Aman-CERP/classfind/internal/errors"
	"github.com/Aman-CERP/classfind/internal/output"
	"github.com/Aman-CERP/classfind/internal/store"
	"github.com/Aman-CERP/classfind/internal/telemetry"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit    int
	format   string // "text", "json"
	exact    bool
	stats    bool
	backends []string
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <pattern>",
		Short: "Search classes by name",
		Long: `Search the class indexes for classes whose name matches a pattern.

Every dot-separated segment of the pattern is a case-insensitive prefix:
  ArrayList        classes whose simple name starts with ArrayList
  j.u.ArrayL       java.util.ArrayList and friends
  com.acme.*Dao    '*' matches within one segment
  "Bar "           a trailing space (or --exact) requires the whole class name

Results are grouped by package and list every artifact version containing the class.`,
		Example: `  classfind search ArrayList
  classfind search j.u.con.ConcurrentH -n 10
  classfind search Bar --exact --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, pattern, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of classes (default search.max_results)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.exact, "exact", false, "Match the class name exactly instead of as a prefix")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "Print search statistics after the results")
	cmd.Flags().StringSliceVarP(&opts.backends, "backend", "b", nil, "Index backends to search (sqlite, bleve)")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, pattern string, opts searchOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return cferrors.New(cferrors.ErrCodeInvalidInput, fmt.Sprintf("invalid format %q", opts.format), nil).
			WithSuggestion("Use --format text or --format json.")
	}
	if opts.limit < 0 {
		return cferrors.New(cferrors.ErrCodeInvalidInput, "limit must not be negative", nil)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyBackendFlag(cfg, opts.backends); err != nil {
		return err
	}

	stopLogging := startFileLogging(cfg)
	defer stopLogging()

	if opts.exact && !strings.HasSuffix(pattern, " ") {
		pattern += " "
	}
	limit := opts.limit
	if limit == 0 {
		limit = cfg.Search.MaxResults
	}

	indexes, err := openExistingIndexes(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.CloseAll(indexes) }()

	var metrics *telemetry.QueryMetrics
	var recorder classsearch.Recorder
	if opts.stats {
		metrics = telemetry.NewQueryMetrics(telemetry.DefaultConfig())
		recorder = metrics
	}

	searcher, err := newSearcher(cfg, indexes, recorder)
	if err != nil {
		return err
	}

	if timeout := cfg.SearchTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	slog.Info("search_started",
		slog.String("pattern", pattern),
		slog.Int("limit", limit),
		slog.Any("backends", cfg.Index.Backends))

	results, err := searcher.Search(ctx, pattern, limit)
	if err != nil {
		slog.Warn("search_failed", slog.String("error", err.Error()))
		return cferrors.SearchError(err)
	}

	slog.Info("search_complete",
		slog.Int("results", len(results)),
		slog.Duration("duration", time.Since(start)))

	out := output.New(cmd.OutOrStdout())
	display := strings.TrimRight(pattern, " ")
	if opts.format == "json" {
		if err := out.ResultsJSON(display, results); err != nil {
			return err
		}
	} else {
		out.Results(display, results)
	}

	if metrics != nil && opts.format == "text" {
		out.Newline()
		out.Metrics(metrics.Snapshot())
	}
	return nil
}
