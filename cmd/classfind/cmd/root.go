// Package cmd provides the CLI commands for classfind.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	cferrors "github.com/Aman-CERP/classfind/internal/errors"
	"github.com/Aman-CERP/classfind/internal/logging"
	"github.com/Aman-CERP/classfind/pkg/version"
)

// Persistent flags
var (
	debugMode   bool
	dataDirFlag string
)

// loggingCleanup restores the previous logger once --debug logging stops.
var loggingCleanup func()

// NewRootCmd creates the root command for classfind CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classfind",
		Short: "Find Java classes by name across indexed artifacts",
		Long: `classfind answers "which artifact contains this class?".

Import the class listings of jars once, then search them with abbreviated,
case-insensitive patterns such as 'j.u.ArrayL' or 'com.acme.*Service'.

The same search is served to AI assistants over MCP with 'classfind serve'.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("classfind version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to <data-dir>/logs/ and stderr")
	cmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Directory holding the class indexes (default ~/.classfind)")

	cmd.PersistentPreRunE = startDebugLogging
	cmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
		stopDebugLogging()
		return nil
	}

	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command and prints a failing command's error.
func Execute() error {
	root := NewRootCmd()
	defer stopDebugLogging()

	err := root.Execute()
	if err != nil {
		if _, ok := cferrors.As(err); ok {
			_, _ = fmt.Fprint(root.ErrOrStderr(), cferrors.FormatForCLI(err))
		} else {
			_, _ = fmt.Fprintf(root.ErrOrStderr(), "Error: %s\n", err)
		}
	}
	return err
}

// startDebugLogging installs debug logging when --debug is set.
func startDebugLogging(_ *cobra.Command, _ []string) error {
	if !debugMode || loggingCleanup != nil {
		return nil
	}

	dataDir := resolveDataDir()
	prev := slog.Default()
	cleanup, err := logging.SetupDefault(logging.DebugConfig(dataDir))
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = func() {
		cleanup()
		slog.SetDefault(prev)
	}

	slog.Info("debug_logging_enabled",
		slog.String("log_file", logging.LogPath(dataDir)),
		slog.String("version", version.Version))
	return nil
}

func stopDebugLogging() {
	if loggingCleanup == nil {
		return
	}
	slog.Info("debug_logging_stopped")
	loggingCleanup()
	loggingCleanup = nil
}
