package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/sndeals/internal/paths"
	"github.com/mesh-intelligence/sndeals/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "SNDEALS"
)

// Config keys as they appear in config.yaml.
const (
	cfgKeyBaseURL     = "base_url"
	cfgKeyToken       = "token"
	cfgKeyPageSize    = "page_size"
	cfgKeyTimeout     = "timeout"
	cfgKeyLogLevel    = "log_level"
	cfgKeyJournal     = "journal"
	cfgKeyDataDir     = "data_dir"
	cfgKeyBlobDriver  = "blob.driver"
	cfgKeyBlobFSRoot  = "blob.fs_root"
	cfgKeyS3Bucket    = "blob.s3.bucket"
	cfgKeyS3Region    = "blob.s3.region"
	cfgKeyS3Endpoint  = "blob.s3.endpoint"
	cfgKeyS3PathStyle = "blob.s3.path_style"
)

// envKeys may be overridden by SNDEALS_<KEY> variables, with dots
// replaced by underscores. data_dir is resolved separately so that the
// config file wins over SNDEALS_DATA_DIR.
var envKeys = []string{
	cfgKeyBaseURL, cfgKeyToken, cfgKeyPageSize, cfgKeyTimeout, cfgKeyLogLevel,
	cfgKeyJournal, cfgKeyBlobDriver, cfgKeyBlobFSRoot, cfgKeyS3Bucket,
	cfgKeyS3Region, cfgKeyS3Endpoint, cfgKeyS3PathStyle,
}

// resolveConfigDir returns the config directory from flag, env, or default.
func (a *app) resolveConfigDir() (string, error) {
	if a.configDir != "" {
		return a.configDir, nil
	}
	dir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return "", sysErr(fmt.Errorf("resolve config dir: %w", err))
	}
	a.configDir = dir
	return dir, nil
}

// loadConfig reads .env files, config.yaml, environment overrides, and
// flags into a.cfg. A missing config.yaml is not an error.
func (a *app) loadConfig(cmd *cobra.Command) error {
	configDir, err := a.resolveConfigDir()
	if err != nil {
		return err
	}
	if files := paths.EnvFiles(configDir); len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return userErr(fmt.Errorf("load .env: %w", err))
		}
	}

	v := viper.New()
	def := types.DefaultConfig()
	v.SetDefault(cfgKeyBaseURL, def.BaseURL)
	v.SetDefault(cfgKeyToken, "")
	v.SetDefault(cfgKeyPageSize, def.PageSize)
	v.SetDefault(cfgKeyTimeout, def.Timeout)
	v.SetDefault(cfgKeyLogLevel, def.LogLevel)
	v.SetDefault(cfgKeyJournal, false)
	v.SetDefault(cfgKeyDataDir, "")
	v.SetDefault(cfgKeyBlobDriver, def.Blob.Driver)
	v.SetDefault(cfgKeyBlobFSRoot, "")
	v.SetDefault(cfgKeyS3Bucket, "")
	v.SetDefault(cfgKeyS3Region, "")
	v.SetDefault(cfgKeyS3Endpoint, "")
	v.SetDefault(cfgKeyS3PathStyle, false)

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range envKeys {
		if err := v.BindEnv(k); err != nil {
			return sysErr(err)
		}
	}
	if f := cmd.Flags().Lookup("base-url"); f != nil {
		if err := v.BindPFlag(cfgKeyBaseURL, f); err != nil {
			return sysErr(err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return userErr(fmt.Errorf("read config: %w", err))
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return userErr(fmt.Errorf("decode config: %w", err))
	}
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, cfg.DataDir)
	if err != nil {
		return sysErr(fmt.Errorf("resolve data dir: %w", err))
	}
	cfg.DataDir = dataDir

	if err := cfg.Validate(); err != nil {
		return userErr(fmt.Errorf("config: %w", err))
	}
	a.cfg = cfg
	return nil
}
