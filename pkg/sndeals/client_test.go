package sndeals

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/sndeals/internal/blob"
	"github.com/mesh-intelligence/sndeals/internal/codec"
	"github.com/mesh-intelligence/sndeals/internal/gateway"
	"github.com/mesh-intelligence/sndeals/internal/journal"
	"github.com/mesh-intelligence/sndeals/internal/store"
	"github.com/mesh-intelligence/sndeals/pkg/types"
)

var photo = base64.StdEncoding.EncodeToString([]byte("photo bytes"))

func backend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/attachments/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(types.Attachment{
			ID:                 types.Int64(3),
			FileName:           "photo.png",
			Content:            photo,
			ContentContentType: "image/png",
		})
	})
	mux.HandleFunc("PUT /api/attachments", func(w http.ResponseWriter, r *http.Request) {
		io.Copy(w, r.Body)
	})
	mux.HandleFunc("GET /api/posts", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(gateway.TotalCountHeader, "1")
		json.NewEncoder(w).Encode([]types.Post{{ID: types.Int64(1), Title: "bike"}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	cfg := types.DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.DataDir = t.TempDir()
	c, err := New(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNewValidatesConfig(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.BaseURL = ""
	_, err := New(context.Background(), cfg)
	assert.ErrorIs(t, err, types.ErrBaseURLEmpty)
}

func TestKitsAreIsolated(t *testing.T) {
	c := newClient(t, backend(t))

	_, err := c.Posts().Gateway.FetchList(context.Background(), gateway.ListOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, c.Posts().Store.State().TotalItems)
	assert.Equal(t, store.Initial[types.Comment](), c.Comments().Store.State())
	assert.Equal(t, store.Initial[types.Category](), c.Categories().Store.State())
	assert.Equal(t, types.KindResource, c.Resources().Gateway.Kind())

	c.Posts().Reset()
	assert.Equal(t, store.Initial[types.Post](), c.Posts().Store.State())
}

func TestJournalRecordsBusEvents(t *testing.T) {
	srv := backend(t)
	cfg := types.DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.DataDir = t.TempDir()
	cfg.Journal = true
	c, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Posts().Gateway.FetchList(context.Background(), gateway.ListOptions{})
	require.NoError(t, err)

	require.NotNil(t, c.Journal())
	entries, err := c.Journal().Recent(context.Background(), journal.Query{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "post/FETCH_LIST_SUCCESS", entries[0].Type)

	_, err = os.Stat(filepath.Join(cfg.DataDir, journal.FileName))
	assert.NoError(t, err)
}

func TestJournalDisabledByDefault(t *testing.T) {
	c := newClient(t, backend(t))
	assert.Nil(t, c.Journal())
	assert.NoError(t, c.Close())
}

func TestSetBinaryFile(t *testing.T) {
	c := newClient(t, backend(t))
	kit := c.Attachments()

	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	enc, err := SetBinaryFile(kit, types.FieldContent, []string{path})
	require.NoError(t, err)
	assert.Equal(t, "note.txt", enc.FileName)

	e := kit.Store.State().Entity
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("hello")), e.Content)
	assert.Equal(t, "text/plain", e.ContentContentType)

	_, err = SetBinaryFile(kit, types.FieldContent, nil)
	assert.ErrorIs(t, err, codec.ErrNoFile)
	assert.Equal(t, e, kit.Store.State().Entity)

	ClearBinary(kit, types.FieldContent)
	e = kit.Store.State().Entity
	assert.Empty(t, e.Content)
	assert.Empty(t, e.ContentContentType)
}

func TestSetBinaryFileOnKindWithoutBinary(t *testing.T) {
	c := newClient(t, backend(t))
	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	_, err := SetBinaryFile(c.Posts(), types.FieldContent, []string{path})
	require.NoError(t, err)
	assert.Equal(t, store.Initial[types.Post](), c.Posts().Store.State())
}

func TestExportBinary(t *testing.T) {
	mem := blob.NewMemory()
	c := newClient(t, backend(t), WithBlobStore(mem))
	ctx := context.Background()

	info, err := ExportBinary(ctx, c, c.Attachments(), 3, types.FieldContent, "", false)
	require.NoError(t, err)
	assert.Equal(t, "attachments/3/photo.png", info.Key)
	assert.Equal(t, "image/png", info.ContentType)
	assert.Equal(t, int64(len("photo bytes")), info.Size)

	_, rc, err := mem.Get(ctx, info.Key)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "photo bytes", string(data))

	_, err = ExportBinary(ctx, c, c.Attachments(), 3, types.FieldContent, "", false)
	assert.ErrorIs(t, err, blob.ErrExists)

	_, err = ExportBinary(ctx, c, c.Attachments(), 3, types.FieldContent, "", true)
	assert.NoError(t, err)

	info, err = ExportBinary(ctx, c, c.Attachments(), 3, types.FieldContent, "custom/key.png", false)
	require.NoError(t, err)
	assert.Equal(t, "custom/key.png", info.Key)
}

func TestExportBinaryDefaultStore(t *testing.T) {
	c := newClient(t, backend(t))
	info, err := ExportBinary(context.Background(), c, c.Attachments(), 3, types.FieldContent, "", false)
	require.NoError(t, err)
	assert.FileExists(t, info.Location)
	assert.Equal(t, filepath.Join(c.Config().DataDir, "blobs", "attachments", "3", "photo.png"), info.Location)
}

func TestListExports(t *testing.T) {
	mem := blob.NewMemory()
	c := newClient(t, backend(t), WithBlobStore(mem))
	ctx := context.Background()

	_, err := ExportBinary(ctx, c, c.Attachments(), 3, types.FieldContent, "", false)
	require.NoError(t, err)
	_, err = mem.Put(ctx, "attachments/4/other.txt", strings.NewReader("x"), blob.PutOptions{})
	require.NoError(t, err)
	_, err = mem.Put(ctx, "resources/3/photo.png", strings.NewReader("x"), blob.PutOptions{})
	require.NoError(t, err)

	infos, err := ListExports(ctx, c, c.Attachments(), 3)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "attachments/3/photo.png", infos[0].Key)

	infos, err = ListExports(ctx, c, c.Attachments(), 0)
	require.NoError(t, err)
	assert.Len(t, infos, 2)
}

func TestImportBinary(t *testing.T) {
	mem := blob.NewMemory()
	c := newClient(t, backend(t), WithBlobStore(mem))
	ctx := context.Background()

	_, err := mem.Put(ctx, "incoming/new.bin", strings.NewReader("new bytes"), blob.PutOptions{ContentType: "text/plain"})
	require.NoError(t, err)

	got, err := ImportBinary(ctx, c, c.Attachments(), 3, types.FieldContent, "incoming/new.bin")
	require.NoError(t, err)
	assert.Equal(t, "new bytes", string(mustDecode(t, got.Content)))
	assert.Equal(t, "text/plain", got.ContentContentType)
	assert.Equal(t, "photo.png", got.FileName)
	assert.Equal(t, int64(3), *got.ID)

	_, err = ImportBinary(ctx, c, c.Attachments(), 3, types.FieldContent, "")
	assert.ErrorIs(t, err, blob.ErrNotFound)

	_, err = ImportBinary(ctx, c, c.Posts(), 1, types.FieldContent, "incoming/new.bin")
	assert.ErrorIs(t, err, types.ErrUnknownField)
}

func TestOpenBinary(t *testing.T) {
	var opened string
	op := codec.NewOpenerFunc(t.TempDir(), func(path string) error {
		opened = path
		return nil
	})
	c := newClient(t, backend(t), WithOpener(op))

	path, err := OpenBinary(context.Background(), c, c.Attachments(), 3, types.FieldContent)
	require.NoError(t, err)
	assert.Equal(t, opened, path)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "photo bytes", string(got))
	assert.Equal(t, "photo bytes", string(mustDecode(t, c.Attachments().Store.State().Entity.Content)))
}

func TestMetricsRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newClient(t, backend(t), WithRegisterer(reg))

	_, err := c.Posts().Gateway.FetchList(context.Background(), gateway.ListOptions{})
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "sndeals_gateway_requests_total")
	assert.Contains(t, names, "sndeals_gateway_request_duration_seconds")
}

func mustDecode(t *testing.T, s string) []byte {
	t.Helper()
	b, err := codec.Decode(s)
	require.NoError(t, err)
	return b
}
