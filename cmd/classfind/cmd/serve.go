package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/Aman-CERP/classfind/internal/mcp"
	"github.com/Aman-CERP/classfind/internal/store"
	"github.com/Aman-CERP/classfind/internal/telemetry"
	"github.com/Aman-CERP/classfind/pkg/version"
)

func newServeCmd() *cobra.Command {
	var backends []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: `Start the Model Context Protocol server for AI assistants.

The server speaks JSON-RPC on stdin/stdout and exposes two tools:
  search_classes   find classes by name pattern
  index_status     artifact counts per index and search telemetry

Logs go to <data-dir>/logs/classfind.log; stdout is reserved for the protocol.`,
		Example: `  # MCP client configuration
  {"command": "classfind", "args": ["serve"]}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), backends)
		},
	}

	cmd.Flags().StringSliceVarP(&backends, "backend", "b", nil, "Index backends to serve (sqlite, bleve)")

	return cmd
}

func runServe(ctx context.Context, backends []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyBackendFlag(cfg, backends); err != nil {
		return err
	}

	// Nothing may be written to stdout from here on.
	stopLogging := startFileLogging(cfg)
	defer stopLogging()

	indexes, err := openIndexes(cfg.Index.DataDir, cfg.Index.Backends)
	if err != nil {
		slog.Error("serve_open_failed", slog.String("error", err.Error()))
		return err
	}
	defer func() { _ = store.CloseAll(indexes) }()

	metrics := telemetry.NewQueryMetrics(telemetry.DefaultConfig())
	searcher, err := newSearcher(cfg, indexes, metrics)
	if err != nil {
		return err
	}

	srv, err := mcpserver.NewServer(searcher, indexes, cfg)
	if err != nil {
		return err
	}
	srv.SetLogger(slog.Default())
	srv.SetMetrics(metrics)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("serve_started",
		slog.String("version", version.Version),
		slog.String("data_dir", cfg.Index.DataDir),
		slog.Any("backends", cfg.Index.Backends))

	err = srv.Serve(ctx, cfg.Server.Transport)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
