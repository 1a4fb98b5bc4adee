// Package blob stores exported attachment content under string keys. The
// filesystem, S3, and in-memory drivers share one Store interface.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/mesh-intelligence/sndeals/pkg/types"
)

// Blob errors.
var (
	ErrExists   = errors.New("blob already exists")
	ErrNotFound = errors.New("blob not found")
	ErrKey      = errors.New("invalid blob key")
)

// PutOptions carries optional object attributes.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info describes a stored blob.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	Location     string            `json:"location,omitempty"`
}

// Store is a flat key-value object store. Put is create-only and returns
// ErrExists when the key is taken.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() string
}

// Open returns the store selected by cfg. A relative filesystem root is
// resolved against dataDir.
func Open(ctx context.Context, cfg types.BlobConfig, dataDir string) (Store, error) {
	switch cfg.Driver {
	case "", types.BlobDriverFS:
		root := cfg.FSRoot
		if root == "" {
			root = "blobs"
		}
		if !filepath.IsAbs(root) && dataDir != "" {
			root = filepath.Join(dataDir, root)
		}
		return NewFS(root)
	case types.BlobDriverS3:
		return NewS3(ctx, cfg.S3)
	case types.BlobDriverMemory:
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("%w: %q", types.ErrBlobDriverUnknown, cfg.Driver)
}

// ExportKey is the default key for an exported binary field:
// <collection>/<id>/<fileName>.
func ExportKey(kind types.Kind, id int64, fileName string) string {
	name := filepath.Base(filepath.ToSlash(strings.TrimSpace(fileName)))
	if name == "" || name == "." || name == "/" {
		name = "content"
	}
	return fmt.Sprintf("%s/%d/%s", kind.Collection(), id, name)
}

// cleanKey rejects empty, absolute, and traversing keys.
func cleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: empty", ErrKey)
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: %q is absolute", ErrKey, key)
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q contains '..'", ErrKey, key)
	}
	return filepath.ToSlash(filepath.Clean(key)), nil
}

func cloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
