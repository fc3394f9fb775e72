package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	cferrors "github.com/Aman-CERP/classfind/internal/errors"
	"github.com/Aman-CERP/classfind/internal/output"
	"github.com/Aman-CERP/classfind/internal/store"
)

// importOptions holds CLI flags for import.
type importOptions struct {
	backends []string
	wait     time.Duration
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <group:artifact:version> [jar|listing]",
		Short: "Add an artifact's classes to the index",
		Long: `Add one artifact version and its classes to every configured index.

The class source is either a .jar file, whose .class entries are listed, or a
text file with one class per line ("com.acme.Foo", "com/acme/Foo.class" or
"/com/acme/Foo"). Without a source the artifact is recorded with no class data.

Importing the same coordinate again replaces its classes.`,
		Example: `  classfind import com.google.guava:guava:33.0.0 ~/.m2/repository/com/google/guava/guava/33.0.0/guava-33.0.0.jar
  classfind import com.acme:widgets:1.0 classes.txt
  classfind import org.example:bom:1.0`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := ""
			if len(args) == 2 {
				source = args[1]
			}
			return runImport(cmd.Context(), cmd, args[0], source, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.backends, "backend", "b", nil, "Index backends to write (sqlite, bleve)")
	cmd.Flags().DurationVar(&opts.wait, "wait", 30*time.Second, "How long to wait for a running import (0 fails immediately)")

	return cmd
}

func runImport(ctx context.Context, cmd *cobra.Command, coordinate, source string, opts importOptions) error {
	coord, err := store.ParseCoordinate(coordinate)
	if err != nil {
		return cferrors.New(cferrors.ErrCodeInvalidCoordinate, err.Error(), err).
			WithSuggestion("Use group:artifact:version, e.g. com.acme:widgets:1.0.")
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

	var classPaths []string
	if source != "" {
		classPaths, err = store.ReadClassSource(source)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return cferrors.New(cferrors.ErrCodeFileNotFound, fmt.Sprintf("class source not found: %s", source), err)
			}
			return cferrors.New(cferrors.ErrCodeJarUnreadable, fmt.Sprintf("cannot read classes from %s", source), err)
		}
	}

	lock := store.NewImportLock(cfg.Index.DataDir)
	if err := acquireImportLock(ctx, lock, opts.wait); err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	indexes, err := openIndexes(cfg.Index.DataDir, cfg.Index.Backends)
	if err != nil {
		return err
	}
	defer func() { _ = store.CloseAll(indexes) }()

	artifact := store.Artifact{Coordinate: coord, ClassPaths: classPaths}
	start := time.Now()
	for _, idx := range indexes {
		if err := idx.AddArtifacts(ctx, []store.Artifact{artifact}); err != nil {
			return cferrors.New(cferrors.ErrCodeImportFailed, fmt.Sprintf("failed to import %s", coord), err).
				WithDetail("index", idx.Name())
		}
	}

	slog.Info("import_complete",
		slog.String("artifact", coord.String()),
		slog.Int("classes", len(classPaths)),
		slog.Int("indexes", len(indexes)),
		slog.Duration("duration", time.Since(start)))

	out := output.New(cmd.OutOrStdout())
	if source == "" {
		out.Successf("Imported %s without class data", coord)
	} else {
		out.Successf("Imported %s (%d %s)", coord, len(classPaths), pluralize(len(classPaths), "class", "classes"))
	}
	for _, idx := range indexes {
		out.Status("", idx.Name())
	}
	return nil
}

// acquireImportLock takes the data dir import lock, waiting up to wait.
func acquireImportLock(ctx context.Context, lock *store.ImportLock, wait time.Duration) error {
	locked := func(cause error) error {
		return cferrors.New(cferrors.ErrCodeIndexLocked, "another import is running", cause).
			WithDetail("lock", lock.Path()).
			WithSuggestion("Retry when it finishes or raise --wait.")
	}

	if wait <= 0 {
		acquired, err := lock.TryLock()
		if err != nil {
			return cferrors.Wrap(cferrors.ErrCodeFilePermission, err)
		}
		if !acquired {
			return locked(nil)
		}
		return nil
	}

	lockCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	if err := lock.Lock(lockCtx); err != nil {
		return locked(err)
	}
	return nil
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
