package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/Aman-CERP/classfind/internal/classsearch"
	"github.com/Aman-CERP/classfind/internal/config"
	cferrors "github.com/Aman-CERP/classfind/internal/errors"
	"github.com/Aman-CERP/classfind/internal/logging"
	"github.com/Aman-CERP/classfind/internal/store"
)

// loadConfig loads the configuration for the working directory and applies --data-dir.
func loadConfig() (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, cferrors.InternalError("failed to get current directory", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, cferrors.ConfigError(err.Error(), err).
			WithSuggestion(fmt.Sprintf("Check %s and %s, or run 'classfind config show --source defaults'.",
				config.GetUserConfigPath(), config.ProjectConfigFile))
	}

	if dataDirFlag != "" {
		cfg.Index.DataDir = dataDirFlag
	}
	return cfg, nil
}

// resolveDataDir returns the data dir without failing: --data-dir, then config, then default.
func resolveDataDir() string {
	if dataDirFlag != "" {
		return dataDirFlag
	}
	if cfg, err := loadConfig(); err == nil {
		return cfg.Index.DataDir
	}
	return config.DefaultDataDir()
}

// applyBackendFlag replaces the configured backends with --backend values.
func applyBackendFlag(cfg *config.Config, backends []string) error {
	if len(backends) == 0 {
		return nil
	}
	for _, b := range backends {
		if !store.IsValidBackend(b) {
			return cferrors.New(cferrors.ErrCodeInvalidBackend, fmt.Sprintf("unknown backend %q", b), nil).
				WithSuggestion("Valid backends: sqlite, bleve.")
		}
	}
	cfg.Index.Backends = backends
	return nil
}

// startFileLogging logs the command to the data dir log file unless --debug already does.
// The returned function restores the previous logger.
func startFileLogging(cfg *config.Config) func() {
	if loggingCleanup != nil {
		return func() {}
	}

	prev := slog.Default()
	cleanup, err := logging.SetupDefault(logging.ServerConfig(cfg.Index.DataDir, cfg.Server.LogLevel))
	if err != nil {
		return func() {}
	}
	return func() {
		cleanup()
		slog.SetDefault(prev)
	}
}

// openExistingIndexes opens the configured backends that already hold an index.
func openExistingIndexes(cfg *config.Config) ([]store.ClassIndex, error) {
	dataDir := cfg.Index.DataDir
	existing := store.Existing(dataDir)

	var backends []string
	for _, b := range cfg.Index.Backends {
		if slices.Contains(existing, store.Backend(b)) {
			backends = append(backends, b)
		}
	}
	if len(backends) == 0 {
		return nil, cferrors.New(cferrors.ErrCodeFileNotFound, fmt.Sprintf("no class index found in %s", dataDir), nil).
			WithSuggestion("Run 'classfind import <group:artifact:version> <jar>' first.")
	}

	return openIndexes(dataDir, backends)
}

// openIndexes opens (creating if needed) the given backends.
func openIndexes(dataDir string, backends []string) ([]store.ClassIndex, error) {
	indexes, err := store.Open(dataDir, backends)
	if err != nil {
		return nil, cferrors.New(cferrors.ErrCodeIndexOpenFailed, "failed to open class index", err).
			WithDetail("data_dir", dataDir)
	}
	return indexes, nil
}

// newSearcher builds a searcher over indexes with the configured limits.
// recorder may be nil.
func newSearcher(cfg *config.Config, indexes []store.ClassIndex, recorder classsearch.Recorder) (*classsearch.Searcher, error) {
	opts := []classsearch.Option{
		classsearch.WithProviderLimit(cfg.Search.ProviderLimit),
		classsearch.WithDefaultMaxResults(cfg.Search.MaxResults),
		classsearch.WithLogger(slog.Default()),
	}
	if recorder != nil {
		opts = append(opts, classsearch.WithRecorder(recorder))
	}

	searcher, err := classsearch.NewSearcher(store.Providers(indexes), opts...)
	if err != nil {
		return nil, cferrors.InternalError("failed to create searcher", err)
	}
	return searcher, nil
}
