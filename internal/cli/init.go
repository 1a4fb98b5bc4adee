package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/sndeals/internal/journal"
	"github.com/mesh-intelligence/sndeals/internal/paths"
	"github.com/mesh-intelligence/sndeals/pkg/types"
)

// configFile is the layout written to a fresh config.yaml.
type configFile struct {
	BaseURL  string         `yaml:"base_url"`
	PageSize int            `yaml:"page_size"`
	Timeout  string         `yaml:"timeout"`
	LogLevel string         `yaml:"log_level"`
	Journal  bool           `yaml:"journal"`
	DataDir  string         `yaml:"data_dir,omitempty"`
	Blob     configFileBlob `yaml:"blob"`
}

type configFileBlob struct {
	Driver string `yaml:"driver"`
}

func newConfigFile(cfg types.Config) configFile {
	return configFile{
		BaseURL:  cfg.BaseURL,
		PageSize: cfg.PageSize,
		Timeout:  cfg.Timeout.String(),
		LogLevel: cfg.LogLevel,
		Journal:  cfg.Journal,
		DataDir:  cfg.DataDir,
		Blob:     configFileBlob{Driver: cfg.Blob.Driver},
	}
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize sndeals configuration",
		Long: "Create the configuration and data directories, write config.yaml\n" +
			"when it is missing, and create the event journal.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(cmd); err != nil {
				return err
			}
			configDir, err := a.resolveConfigDir()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(configDir, 0o755); err != nil {
				return sysErr(fmt.Errorf("create config directory: %w", err))
			}
			if err := writeConfigIfMissing(paths.ConfigFile(configDir), a.cfg); err != nil {
				return sysErr(fmt.Errorf("write config: %w", err))
			}

			j := journal.New()
			if err := j.Attach(a.cfg.DataDir); err != nil {
				return sysErr(fmt.Errorf("initialize journal: %w", err))
			}
			if err := j.Detach(); err != nil {
				return sysErr(fmt.Errorf("finalize journal: %w", err))
			}

			fmt.Fprintln(cmd.OutOrStdout(), "sndeals initialized successfully")
			return nil
		},
	}
}

// writeConfigIfMissing creates config.yaml from cfg. An existing file is
// left untouched.
func writeConfigIfMissing(path string, cfg types.Config) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	data, err := yaml.Marshal(newConfigFile(cfg))
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
