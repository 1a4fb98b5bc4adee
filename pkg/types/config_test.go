package types

import (
	"errors"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig()

	with := func(mut func(*Config)) Config {
		c := valid
		mut(&c)
		return c
	}

	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "defaults are valid",
			config:  valid,
			wantErr: nil,
		},
		{
			name:    "empty base URL returns ErrBaseURLEmpty",
			config:  with(func(c *Config) { c.BaseURL = "" }),
			wantErr: ErrBaseURLEmpty,
		},
		{
			name:    "relative base URL returns ErrBaseURLInvalid",
			config:  with(func(c *Config) { c.BaseURL = "api/posts" }),
			wantErr: ErrBaseURLInvalid,
		},
		{
			name:    "non-http scheme returns ErrBaseURLInvalid",
			config:  with(func(c *Config) { c.BaseURL = "ftp://example.com" }),
			wantErr: ErrBaseURLInvalid,
		},
		{
			name:    "zero page size returns ErrPageSizeInvalid",
			config:  with(func(c *Config) { c.PageSize = 0 }),
			wantErr: ErrPageSizeInvalid,
		},
		{
			name:    "negative timeout returns ErrTimeoutInvalid",
			config:  with(func(c *Config) { c.Timeout = -time.Second }),
			wantErr: ErrTimeoutInvalid,
		},
		{
			name:    "unknown blob driver returns ErrBlobDriverUnknown",
			config:  with(func(c *Config) { c.Blob.Driver = "gcs" }),
			wantErr: ErrBlobDriverUnknown,
		},
		{
			name:    "s3 without bucket returns ErrBlobBucketEmpty",
			config:  with(func(c *Config) { c.Blob.Driver = BlobDriverS3 }),
			wantErr: ErrBlobBucketEmpty,
		},
		{
			name: "s3 with bucket is valid",
			config: with(func(c *Config) {
				c.Blob.Driver = BlobDriverS3
				c.Blob.S3.Bucket = "deals"
			}),
			wantErr: nil,
		},
		{
			name:    "empty blob driver is valid at config level",
			config:  with(func(c *Config) { c.Blob.Driver = "" }),
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %v, got nil", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}
