package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/classfind/internal/logging"
	"github.com/Aman-CERP/classfind/internal/output"
)

// logsOptions holds CLI flags for logs.
type logsOptions struct {
	lines   int
	level   string
	event   string
	file    string
	noColor bool
}

func newLogsCmd() *cobra.Command {
	var opts logsOptions

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log entries",
		Long: `Show the last entries of the classfind log file (<data-dir>/logs/classfind.log).

Entries are written by search, import and serve, and by any command run with --debug.`,
		Example: `  classfind logs
  classfind logs -n 200 --level warn
  classfind logs --event search_`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogs(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.lines, "lines", "n", 50, "Number of lines to read from the end (0 for all)")
	cmd.Flags().StringVar(&opts.level, "level", "", "Minimum level: debug, info, warn, error")
	cmd.Flags().StringVar(&opts.event, "event", "", "Only entries whose message contains this text")
	cmd.Flags().StringVar(&opts.file, "file", "", "Read this log file instead")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func runLogs(cmd *cobra.Command, opts logsOptions) error {
	path, err := logging.FindLogFile(resolveDataDir(), opts.file)
	if err != nil {
		return err
	}

	noColor := opts.noColor || output.DetectNoColor() || !output.IsTTY(cmd.OutOrStdout())
	viewer := logging.NewViewer(logging.ViewerConfig{
		Level:   opts.level,
		Event:   opts.event,
		NoColor: noColor,
	}, cmd.OutOrStdout())

	entries, err := viewer.Tail(path, opts.lines)
	if err != nil {
		return err
	}
	viewer.Print(entries)
	return nil
}
