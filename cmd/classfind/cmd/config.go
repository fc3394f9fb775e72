package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/classfind/configs"
	"github.com/Aman-CERP/classfind/internal/config"
	cferrors "github.com/Aman-CERP/classfind/internal/errors"
	"github.com/Aman-CERP/classfind/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage classfind configuration files.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/classfind/config.yaml)
  3. Project config (.classfind.yaml)
  4. Environment variables (CLASSFIND_*)`,
		Example: `  # Create user config with defaults
  classfind config init

  # Create a project config in the current directory
  classfind config init --project

  # Show effective configuration
  classfind config show`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		force   bool
		project bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file from the template",
		Long: `Create the user configuration file, or with --project a .classfind.yaml in
the current directory. Options in the new file are commented out.

With --force an existing file is backed up, and rewritten with its settings kept
and any missing options filled in with defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, template := config.GetUserConfigPath(), configs.UserConfigTemplate
			if project {
				cwd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("failed to get current directory: %w", err)
				}
				path, template = filepath.Join(cwd, config.ProjectConfigFile), configs.ProjectConfigTemplate
			}
			return runConfigInit(cmd, path, template, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Back up and rewrite an existing configuration")
	cmd.Flags().BoolVar(&project, "project", false, "Create .classfind.yaml in the current directory")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show configuration",
		Long:  `Show the effective configuration, or the contents of one source.`,
		Example: `  classfind config show
  classfind config show --json
  classfind config show --source user`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, jsonOutput, source)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, user, project, defaults")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print user config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}

func runConfigInit(cmd *cobra.Command, path, template string, force bool) error {
	out := output.New(cmd.OutOrStdout())

	if _, err := os.Stat(path); err == nil {
		if !force {
			out.Warning("Configuration already exists")
			out.Status("", "Location: "+path)
			out.Status("", "Use --force to rewrite it (a backup is kept)")
			return nil
		}
		return runConfigUpgrade(out, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return cferrors.New(cferrors.ErrCodeConfigPermission, "failed to create config directory", err).
			WithDetail("path", path)
	}
	if err := os.WriteFile(path, []byte(template), 0644); err != nil {
		return cferrors.New(cferrors.ErrCodeConfigPermission, "failed to write configuration", err).
			WithDetail("path", path)
	}

	out.Success("Created configuration")
	out.Status("", "Location: "+path)
	return nil
}

// runConfigUpgrade backs up an existing file and rewrites it over fresh defaults.
func runConfigUpgrade(out *output.Writer, path string) error {
	cfg, err := readConfigFile(path)
	if err != nil {
		return err
	}

	backupPath, err := config.BackupFile(path)
	if err != nil {
		return cferrors.New(cferrors.ErrCodeConfigPermission, "failed to back up configuration", err)
	}

	if err := cfg.WriteYAML(path); err != nil {
		return cferrors.New(cferrors.ErrCodeConfigPermission, "failed to write configuration", err).
			WithDetail("path", path)
	}

	out.Success("Configuration rewritten")
	out.Status("", "Location: "+path)
	out.Status("", "Backup: "+backupPath)
	return nil
}

// readConfigFile decodes one config file over the defaults.
func readConfigFile(path string) (*config.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cferrors.New(cferrors.ErrCodeConfigNotFound, "failed to read configuration", err).
			WithDetail("path", path)
	}
	cfg := config.NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, cferrors.ConfigError(fmt.Sprintf("failed to parse %s", path), err)
	}
	return cfg, nil
}

func runConfigShow(cmd *cobra.Command, jsonOutput bool, source string) error {
	out := output.New(cmd.OutOrStdout())

	var cfg *config.Config
	var sourceDesc string

	switch source {
	case "merged":
		var err error
		cfg, err = loadConfig()
		if err != nil {
			return err
		}
		sourceDesc = "merged (defaults + user + project + env)"

	case "user":
		path := config.GetUserConfigPath()
		if !config.UserConfigExists() {
			out.Warning("No user configuration file found")
			out.Status("", "Expected at: "+path)
			out.Status("", "Run 'classfind config init' to create one")
			return nil
		}
		var err error
		if cfg, err = readConfigFile(path); err != nil {
			return err
		}
		sourceDesc = fmt.Sprintf("user (%s)", path)

	case "project":
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		path := config.ProjectConfigPath(cwd)
		if path == "" {
			out.Warning("No project configuration file found")
			out.Status("", "Expected at: "+filepath.Join(cwd, config.ProjectConfigFile))
			out.Status("", "Run 'classfind config init --project' to create one")
			return nil
		}
		if cfg, err = readConfigFile(path); err != nil {
			return err
		}
		sourceDesc = fmt.Sprintf("project (%s)", path)

	case "defaults":
		cfg = config.NewConfig()
		sourceDesc = "defaults (hardcoded)"

	default:
		return cferrors.New(cferrors.ErrCodeInvalidInput, fmt.Sprintf("invalid source: %s", source), nil).
			WithSuggestion("Use one of: merged, user, project, defaults.")
	}

	if jsonOutput {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	out.Status("", "Configuration source: "+sourceDesc)
	out.Newline()
	_, err = fmt.Fprint(cmd.OutOrStdout(), string(data))
	return err
}
