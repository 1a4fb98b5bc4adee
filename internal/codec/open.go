package codec

import (
	"context"
	"fmt"
	"mime"
	"os"

	"github.com/pkg/browser"
)

// Opener writes decoded content to a temporary file and hands it to the
// host's preview mechanism.
type Opener struct {
	// Dir is where preview files are written. Empty means os.TempDir.
	Dir string

	open func(path string) error
}

// NewOpener returns an Opener that uses the desktop's default handler.
func NewOpener() *Opener {
	return &Opener{open: browser.OpenFile}
}

// NewOpenerFunc returns an Opener that writes preview files to dir and
// passes their paths to open.
func NewOpenerFunc(dir string, open func(path string) error) *Opener {
	return &Opener{Dir: dir, open: open}
}

// Open decodes data and opens it. It returns the path of the preview file,
// which is left in place for the viewer.
func (o *Opener) Open(ctx context.Context, contentType, data string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	raw, err := Decode(data)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(o.Dir, "sndeals-*"+extensionFor(contentType))
	if err != nil {
		return "", fmt.Errorf("create preview file: %w", err)
	}
	if _, err := f.Write(raw); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write preview file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close preview file: %w", err)
	}

	open := o.open
	if open == nil {
		open = browser.OpenFile
	}
	if err := open(f.Name()); err != nil {
		return f.Name(), fmt.Errorf("open %s: %w", f.Name(), err)
	}
	return f.Name(), nil
}

// extensionFor returns a file extension for contentType, or ".bin".
func extensionFor(contentType string) string {
	exts, err := mime.ExtensionsByType(contentType)
	if err != nil || len(exts) == 0 {
		return ".bin"
	}
	return exts[0]
}
