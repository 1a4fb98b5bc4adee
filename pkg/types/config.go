package types

import (
	"errors"
	"net/url"
	"time"
)

// Config holds the client settings loaded from config.yaml, the
// environment, and command-line flags.
type Config struct {
	BaseURL  string        `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
	Token    string        `json:"token,omitempty" yaml:"token,omitempty" mapstructure:"token"`
	PageSize int           `json:"page_size" yaml:"page_size" mapstructure:"page_size"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	LogLevel string        `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	Journal  bool          `json:"journal" yaml:"journal" mapstructure:"journal"`
	DataDir  string        `json:"data_dir,omitempty" yaml:"data_dir,omitempty" mapstructure:"data_dir"`
	Blob     BlobConfig    `json:"blob" yaml:"blob" mapstructure:"blob"`
}

// BlobConfig selects where exported attachment content is written.
type BlobConfig struct {
	Driver string   `json:"driver" yaml:"driver" mapstructure:"driver"`
	FSRoot string   `json:"fs_root,omitempty" yaml:"fs_root,omitempty" mapstructure:"fs_root"`
	S3     S3Config `json:"s3,omitempty" yaml:"s3,omitempty" mapstructure:"s3"`
}

// S3Config holds S3 or MinIO connection parameters. Credentials come from
// the default AWS chain.
type S3Config struct {
	Bucket    string `json:"bucket,omitempty" yaml:"bucket,omitempty" mapstructure:"bucket"`
	Region    string `json:"region,omitempty" yaml:"region,omitempty" mapstructure:"region"`
	Endpoint  string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" mapstructure:"endpoint"`
	PathStyle bool   `json:"path_style,omitempty" yaml:"path_style,omitempty" mapstructure:"path_style"`
}

// Defaults applied when a setting is absent.
const (
	DefaultBaseURL    = "http://localhost:8080"
	DefaultPageSize   = 20
	DefaultTimeout    = 30 * time.Second
	DefaultLogLevel   = "info"
	DefaultBlobDriver = BlobDriverFS
)

// Blob driver names.
const (
	BlobDriverFS     = "fs"
	BlobDriverS3     = "s3"
	BlobDriverMemory = "memory"
)

// Config validation errors.
var (
	ErrBaseURLEmpty      = errors.New("base_url must not be empty")
	ErrBaseURLInvalid    = errors.New("base_url must be an absolute http(s) URL")
	ErrPageSizeInvalid   = errors.New("page_size must be positive")
	ErrTimeoutInvalid    = errors.New("timeout must be positive")
	ErrBlobDriverUnknown = errors.New("unknown blob driver")
	ErrBlobBucketEmpty   = errors.New("blob.s3.bucket required for s3 driver")
)

// knownBlobDrivers lists the drivers that Validate accepts.
var knownBlobDrivers = map[string]bool{
	BlobDriverFS:     true,
	BlobDriverS3:     true,
	BlobDriverMemory: true,
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	return Config{
		BaseURL:  DefaultBaseURL,
		PageSize: DefaultPageSize,
		Timeout:  DefaultTimeout,
		LogLevel: DefaultLogLevel,
		Blob:     BlobConfig{Driver: DefaultBlobDriver},
	}
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return ErrBaseURLEmpty
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrBaseURLInvalid
	}
	if c.PageSize <= 0 {
		return ErrPageSizeInvalid
	}
	if c.Timeout <= 0 {
		return ErrTimeoutInvalid
	}
	if c.Blob.Driver != "" && !knownBlobDrivers[c.Blob.Driver] {
		return ErrBlobDriverUnknown
	}
	if c.Blob.Driver == BlobDriverS3 && c.Blob.S3.Bucket == "" {
		return ErrBlobBucketEmpty
	}
	return nil
}
