package sndeals

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strconv"

	"github.com/mesh-intelligence/sndeals/internal/blob"
	"github.com/mesh-intelligence/sndeals/internal/codec"
	"github.com/mesh-intelligence/sndeals/internal/store"
	"github.com/mesh-intelligence/sndeals/pkg/types"
)

// SetBinaryFile encodes the first of paths and sets it as field on the
// kit's selected entity. With no path it returns codec.ErrNoFile and the
// entity is unchanged.
func SetBinaryFile[E types.Entity](kit Kit[E], field types.BinaryField, paths []string) (codec.Encoded, error) {
	enc, err := codec.EncodeFile(paths)
	if err != nil {
		return codec.Encoded{}, err
	}
	kit.Dispatch(store.SetBinaryField[E]{Field: field, Data: enc.Data, ContentType: enc.ContentType})
	return enc, nil
}

// ClearBinary removes field and its content type from the selected entity.
func ClearBinary[E types.Entity](kit Kit[E], field types.BinaryField) {
	kit.Dispatch(store.SetBinaryField[E]{Field: field})
}

// binaryOf fetches entity id and returns the content of field.
func binaryOf[E types.Entity](ctx context.Context, kit Kit[E], id int64, field types.BinaryField) (E, string, string, error) {
	item, err := kit.Gateway.FetchOne(ctx, id)
	if err != nil {
		return item, "", "", err
	}
	g, ok := any(item).(types.BinaryGetter)
	if !ok {
		return item, "", "", fmt.Errorf("%s: %w: %s", item.Kind(), types.ErrUnknownField, field)
	}
	data, ct, ok := g.Binary(field)
	if !ok {
		return item, "", "", fmt.Errorf("%s: %w: %s", item.Kind(), types.ErrUnknownField, field)
	}
	if data == "" {
		return item, "", "", fmt.Errorf("%s %d has no %s", item.Kind(), id, field)
	}
	return item, data, ct, nil
}

// OpenBinary fetches entity id through kit and opens field in the host
// viewer. It returns the path of the preview file.
func OpenBinary[E types.Entity](ctx context.Context, c *Client, kit Kit[E], id int64, field types.BinaryField) (string, error) {
	_, data, ct, err := binaryOf(ctx, kit, id, field)
	if err != nil {
		return "", err
	}
	return c.opener.Open(ctx, ct, data)
}

// ExportBinary fetches entity id through kit and writes the decoded
// content of field to the blob store. An empty key selects
// blob.ExportKey. With replace set an existing blob is overwritten.
func ExportBinary[E types.Entity](ctx context.Context, c *Client, kit Kit[E], id int64, field types.BinaryField, key string, replace bool) (blob.Info, error) {
	item, data, ct, err := binaryOf(ctx, kit, id, field)
	if err != nil {
		return blob.Info{}, err
	}
	raw, err := codec.Decode(data)
	if err != nil {
		return blob.Info{}, err
	}
	if key == "" {
		key = defaultKey(item, id)
	}

	bs, err := c.Blobs(ctx)
	if err != nil {
		return blob.Info{}, err
	}
	if replace {
		if _, err := bs.Delete(ctx, key); err != nil {
			return blob.Info{}, err
		}
	}
	return bs.Put(ctx, key, bytes.NewReader(raw), blob.PutOptions{
		ContentType: ct,
		Metadata: map[string]string{
			"kind": string(item.Kind()),
			"id":   fmt.Sprint(id),
		},
	})
}

func defaultKey(item types.Entity, id int64) string {
	name := ""
	if n, ok := any(item).(types.FileNamer); ok {
		name = n.GetFileName()
	}
	return blob.ExportKey(item.Kind(), id, name)
}

// ListExports returns the blobs exported for entity id of the kit's kind,
// or for every entity of that kind when id is 0.
func ListExports[E types.Entity](ctx context.Context, c *Client, kit Kit[E], id int64) ([]blob.Info, error) {
	prefix := kit.Gateway.Kind().Collection() + "/"
	if id > 0 {
		prefix += strconv.FormatInt(id, 10) + "/"
	}
	bs, err := c.Blobs(ctx)
	if err != nil {
		return nil, err
	}
	return bs.List(ctx, prefix)
}

// ImportBinary reads key from the blob store into field of entity id and
// sends the update. An empty key selects the key ExportBinary would use.
// The content type stored with the blob wins over detection.
func ImportBinary[E types.Entity](ctx context.Context, c *Client, kit Kit[E], id int64, field types.BinaryField, key string) (E, error) {
	var zero E
	if _, ok := any(new(E)).(types.BinarySetter); !ok {
		return zero, fmt.Errorf("%s: %w: %s", kit.Gateway.Kind(), types.ErrUnknownField, field)
	}
	item, err := kit.Gateway.FetchOne(ctx, id)
	if err != nil {
		return zero, err
	}
	if key == "" {
		key = defaultKey(item, id)
	}

	bs, err := c.Blobs(ctx)
	if err != nil {
		return zero, err
	}
	info, rc, err := bs.Get(ctx, key)
	if err != nil {
		return zero, err
	}
	defer rc.Close()
	enc, err := codec.Encode(path.Base(info.Key), rc)
	if err != nil {
		return zero, err
	}
	if info.ContentType != "" {
		enc.ContentType = info.ContentType
	}

	kit.Dispatch(store.SetBinaryField[E]{Field: field, Data: enc.Data, ContentType: enc.ContentType})
	return kit.Gateway.Update(ctx, kit.Store.State().Entity)
}
