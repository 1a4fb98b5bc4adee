// Package codec converts local files to the base64 text form binary
// fields travel in, and back.
//
// Whole files are held in memory; there is no streaming.
package codec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/h2non/filetype"
)

// DefaultContentType is used when no better type can be determined.
const DefaultContentType = "application/octet-stream"

// sniffLen is the number of leading bytes examined for magic numbers.
const sniffLen = 512

// ErrNoFile is returned by EncodeFile when no file was selected. Callers
// treat it as a no-op and leave the field unchanged.
var ErrNoFile = errors.New("no file selected")

// Encoded is a file in transport form.
type Encoded struct {
	FileName    string
	ContentType string
	Data        string
}

// EncodeFile encodes the first of the selected paths. Remaining paths are
// ignored, matching a single-file picker.
func EncodeFile(paths []string) (Encoded, error) {
	if len(paths) == 0 || paths[0] == "" {
		return Encoded{}, ErrNoFile
	}
	path := paths[0]
	f, err := os.Open(path)
	if err != nil {
		return Encoded{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Encode(filepath.Base(path), f)
}

// Encode reads r to the end and returns its base64 form with a detected
// content type. name is used for extension-based detection only.
func Encode(name string, r io.Reader) (Encoded, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Encoded{}, fmt.Errorf("read %s: %w", name, err)
	}
	return Encoded{
		FileName:    name,
		ContentType: DetectContentType(name, raw),
		Data:        base64.StdEncoding.EncodeToString(raw),
	}, nil
}

// Decode returns the bytes encoded in data.
func Decode(data string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode binary field: %w", err)
	}
	return raw, nil
}

// DetectContentType determines a MIME type from the file's magic number,
// then its extension, then content sniffing. Parameters such as charset
// are dropped.
func DetectContentType(name string, content []byte) string {
	head := content
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	if ext := filepath.Ext(name); ext != "" {
		if t := mime.TypeByExtension(strings.ToLower(ext)); t != "" {
			return baseType(t)
		}
	}
	if len(head) == 0 {
		return DefaultContentType
	}
	return baseType(http.DetectContentType(head))
}

func baseType(t string) string {
	base, _, _ := strings.Cut(t, ";")
	return strings.TrimSpace(base)
}

// ByteSize estimates the decoded length of data from its encoded length.
// Malformed input never yields a negative size.
func ByteSize(data string) int {
	n := len(data) * 3 / 4
	switch {
	case strings.HasSuffix(data, "=="):
		n -= 2
	case strings.HasSuffix(data, "="):
		n--
	}
	return max(n, 0)
}

// FormatByteSize renders ByteSize for display, e.g. "1.2 MB".
func FormatByteSize(data string) string {
	return humanize.Bytes(uint64(ByteSize(data)))
}

// Reader returns a reader over the decoded content of data.
func Reader(data string) (io.Reader, error) {
	raw, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(raw), nil
}
