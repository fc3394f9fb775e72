package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/classfind/pkg/version"
)

func newVersionCmd() *cobra.Command {
	var jsonOutput, shortOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the classfind version with its commit, build date and Go toolchain.
Builds without release stamps report the VCS state of the checkout they came from.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Info()
			w := cmd.OutOrStdout()

			switch {
			case shortOutput:
				_, err := fmt.Fprintln(w, info.Version)
				return err
			case jsonOutput:
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			default:
				_, err := fmt.Fprintln(w, info.String())
				return err
			}
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print build information as JSON")
	cmd.Flags().BoolVar(&shortOutput, "short", false, "Print only the version (wins over --json)")

	return cmd
}
