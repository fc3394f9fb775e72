package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/classfind/internal/config"
	"github.com/Aman-CERP/classfind/internal/output"
	"github.com/Aman-CERP/classfind/internal/store"
)

// statusInfo is the JSON document printed by status --json.
type statusInfo struct {
	DataDir    string              `json:"data_dir"`
	UserConfig string              `json:"user_config,omitempty"`
	Indexes    []store.IndexStatus `json:"indexes"`
}

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the configured indexes and their artifact counts",
		Long: `Display every configured index backend with:
  - its location under the data dir
  - the number of imported artifact versions
  - whether it has been created yet`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	info := statusInfo{
		DataDir: cfg.Index.DataDir,
		Indexes: collectIndexStatus(ctx, cfg),
	}
	if config.UserConfigExists() {
		info.UserConfig = config.GetUserConfigPath()
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	out := output.New(cmd.OutOrStdout())
	out.IndexStatus(info.DataDir, info.Indexes)
	if info.UserConfig != "" {
		out.Newline()
		out.Status("", "user config: "+info.UserConfig)
	}
	return nil
}

// collectIndexStatus counts existing indexes and reports missing ones without creating them.
func collectIndexStatus(ctx context.Context, cfg *config.Config) []store.IndexStatus {
	existing := store.Existing(cfg.Index.DataDir)
	statuses := make([]store.IndexStatus, 0, len(cfg.Index.Backends))

	for _, name := range cfg.Index.Backends {
		backend := store.Backend(name)
		path := store.IndexPath(cfg.Index.DataDir, backend)

		if !slices.Contains(existing, backend) {
			statuses = append(statuses, store.IndexStatus{
				Name:  name + ":" + path,
				Error: "not created (run 'classfind import')",
			})
			continue
		}

		idx, err := store.NewIndex(cfg.Index.DataDir, backend)
		if err != nil {
			statuses = append(statuses, store.IndexStatus{
				Name:  name + ":" + path,
				Error: fmt.Sprintf("cannot open: %v", err),
			})
			continue
		}
		statuses = append(statuses, store.Status(ctx, []store.ClassIndex{idx})...)
		_ = idx.Close()
	}
	return statuses
}
