package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/sndeals/internal/blob"
	"github.com/mesh-intelligence/sndeals/internal/gateway"
	"github.com/mesh-intelligence/sndeals/pkg/sndeals"
	"github.com/mesh-intelligence/sndeals/pkg/types"
)

// hasBinary reports whether E carries binary fields.
func hasBinary[E types.Entity]() bool {
	_, ok := any(new(E)).(types.BinarySetter)
	return ok
}

// newKindCmd builds the command group for one entity kind.
func newKindCmd[E types.Entity](a *app, v view[E]) *cobra.Command {
	name := string(v.kind)
	cmd := &cobra.Command{
		Use:     name,
		Aliases: []string{v.kind.Collection()},
		Short:   fmt.Sprintf("Manage %s entities", name),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return userErr(fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath()))
			}
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		newListCmd(a, v),
		newGetCmd(a, v),
		newCreateCmd(a, v),
		newUpdateCmd(a, v),
		newDeleteCmd(a, v),
		newCountCmd(a, v),
	)
	if hasBinary[E]() {
		cmd.AddCommand(newOpenCmd(a, v), newExportCmd(a, v), newExportsCmd(a, v), newImportCmd(a, v))
	}
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, userErr(fmt.Errorf("invalid id %q", s))
	}
	return id, nil
}

func parseCriteria(filters []string) ([]gateway.Criterion, error) {
	var out []gateway.Criterion
	for _, f := range filters {
		c, err := gateway.ParseCriterion(f)
		if err != nil {
			return nil, userErr(err)
		}
		out = append(out, c)
	}
	return out, nil
}

func newListCmd[E types.Entity](a *app, v view[E]) *cobra.Command {
	var (
		page    int
		size    int
		sort    string
		filters []string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s", v.kind.Collection()),
		Long: fmt.Sprintf(`List fetches %s from the backend. Paging applies only when
--sort is given. Filters use field.filter=value with filters equals,
contains, in, specified, greaterThan, and lessThan.

Example:
  sndeals %s list
  sndeals %s list --sort id,desc --page 0 --size 10
  sndeals %s list --filter title.contains=bike --json`,
			v.kind.Collection(), v.kind, v.kind, v.kind),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect(cmd)
			if err != nil {
				return err
			}
			opts := gateway.ListOptions{Page: page, Size: size}
			if opts.Size <= 0 {
				opts.Size = c.Config().PageSize
			}
			if sort != "" {
				if opts.Sort, err = gateway.ParseSort(sort); err != nil {
					return userErr(err)
				}
			}
			if opts.Criteria, err = parseCriteria(filters); err != nil {
				return err
			}

			kit := v.kit(c)
			if _, err := kit.Gateway.FetchList(cmd.Context(), opts); err != nil {
				return err
			}
			s := kit.Store.State()
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"items":      s.Entities,
					"totalItems": s.TotalItems,
				})
			}
			rows := make([][]string, len(s.Entities))
			for i, e := range s.Entities {
				rows[i] = v.row(e)
			}
			if len(rows) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No %s found.\n", v.kind.Collection())
				return nil
			}
			printTable(cmd.OutOrStdout(), v.headers, rows)
			fmt.Fprintf(cmd.OutOrStdout(), "Showing %d of %d %s(s)\n", len(rows), s.TotalItems, v.kind)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "zero-based page number (with --sort)")
	cmd.Flags().IntVar(&size, "size", 0, "page size (default: page_size from config)")
	cmd.Flags().StringVar(&sort, "sort", "", "sort as field or field,asc|desc")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "filter as field.filter=value (repeatable)")
	return cmd
}

func newGetCmd[E types.Entity](a *app, v view[E]) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: fmt.Sprintf("Show one %s", v.kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.connect(cmd)
			if err != nil {
				return err
			}
			e, err := v.kit(c).Gateway.FetchOne(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.printEntity(cmd, e)
		},
	}
}

// editFlags are shared by create and update.
type editFlags struct {
	data  string
	sets  []string
	file  string
	clear []string
}

func (f *editFlags) register(cmd *cobra.Command, binary, update bool) {
	cmd.Flags().StringVar(&f.data, "data", "", "entity fields as a JSON object")
	cmd.Flags().StringArrayVar(&f.sets, "set", nil, "set a field as field=value (repeatable)")
	if binary {
		cmd.Flags().StringVar(&f.file, "file", "", "load a binary field from a file as field=PATH")
		if update {
			cmd.Flags().StringArrayVar(&f.clear, "clear", nil, "clear a binary field; it is sent as absent (repeatable)")
		}
	}
}

// prepare applies the edit flags to the kit's selected entity through the
// store and returns the entity to send.
func prepare[E types.Entity](kit sndeals.Kit[E], f editFlags) (E, error) {
	var zero E
	for _, name := range f.clear {
		field, err := types.ParseBinaryField(name)
		if err != nil {
			return zero, userErr(fmt.Errorf("--clear %s: %w", name, err))
		}
		sndeals.ClearBinary(kit, field)
	}

	defaults := map[string]any{}
	if f.file != "" {
		name, path, ok := strings.Cut(f.file, "=")
		if !ok || path == "" {
			return zero, userErr(fmt.Errorf("--file %q: expected field=PATH", f.file))
		}
		field, err := types.ParseBinaryField(name)
		if err != nil {
			return zero, userErr(fmt.Errorf("--file %s: %w", name, err))
		}
		enc, err := sndeals.SetBinaryFile(kit, field, []string{path})
		if err != nil {
			return zero, userErr(err)
		}
		defaults["fileName"] = enc.FileName
	}

	sets := map[string]string{}
	for _, s := range f.sets {
		k, val, ok := strings.Cut(s, "=")
		if !ok || k == "" {
			return zero, userErr(fmt.Errorf("--set %q: expected field=value", s))
		}
		sets[k] = val
	}

	e, err := applyFields(kit.Store.State().Entity, defaults, f.data, sets)
	if err != nil {
		return zero, userErr(err)
	}
	return e, nil
}

func newCreateCmd[E types.Entity](a *app, v view[E]) *cobra.Command {
	var f editFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: fmt.Sprintf("Create a %s", v.kind),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect(cmd)
			if err != nil {
				return err
			}
			kit := v.kit(c)
			e, err := prepare(kit, f)
			if err != nil {
				return err
			}
			created, err := kit.Gateway.Create(cmd.Context(), e)
			if err != nil {
				return err
			}
			return a.printEntity(cmd, created)
		},
	}
	f.register(cmd, hasBinary[E](), false)
	return cmd
}

func newUpdateCmd[E types.Entity](a *app, v view[E]) *cobra.Command {
	var f editFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: fmt.Sprintf("Update a %s", v.kind),
		Long: fmt.Sprintf(`Update fetches the %s, applies the flags, and sends it back whole.
Empty fields are left out of the request body, so a field cleared with
--clear is sent as absent and the backend decides whether that removes it.`, v.kind),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if f.data == "" && len(f.sets) == 0 && f.file == "" && len(f.clear) == 0 {
				return userErr(errors.New("update: nothing to change"))
			}
			c, err := a.connect(cmd)
			if err != nil {
				return err
			}
			kit := v.kit(c)
			if _, err := kit.Gateway.FetchOne(cmd.Context(), id); err != nil {
				return err
			}
			e, err := prepare(kit, f)
			if err != nil {
				return err
			}
			updated, err := kit.Gateway.Update(cmd.Context(), e)
			if err != nil {
				return err
			}
			return a.printEntity(cmd, updated)
		},
	}
	f.register(cmd, hasBinary[E](), true)
	return cmd
}

func newDeleteCmd[E types.Entity](a *app, v view[E]) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: fmt.Sprintf("Delete a %s", v.kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.connect(cmd)
			if err != nil {
				return err
			}
			if err := v.kit(c).Gateway.Delete(cmd.Context(), id); err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]any{"deleted": id})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %d\n", v.kind, id)
			return nil
		},
	}
}

func newCountCmd[E types.Entity](a *app, v view[E]) *cobra.Command {
	var filters []string
	cmd := &cobra.Command{
		Use:   "count",
		Short: fmt.Sprintf("Count %s", v.kind.Collection()),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := parseCriteria(filters)
			if err != nil {
				return err
			}
			c, err := a.connect(cmd)
			if err != nil {
				return err
			}
			n, err := v.kit(c).Gateway.Count(cmd.Context(), criteria)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]any{"count": n})
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "filter as field.filter=value (repeatable)")
	return cmd
}

func newOpenCmd[E types.Entity](a *app, v view[E]) *cobra.Command {
	var fieldName string
	cmd := &cobra.Command{
		Use:   "open <id>",
		Short: fmt.Sprintf("Open the content of a %s in the default viewer", v.kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			field, err := types.ParseBinaryField(fieldName)
			if err != nil {
				return userErr(err)
			}
			c, err := a.connect(cmd)
			if err != nil {
				return err
			}
			path, err := sndeals.OpenBinary(cmd.Context(), c, v.kit(c), id, field)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&fieldName, "field", types.FieldContent.Name(), "binary field to open")
	return cmd
}

func newExportCmd[E types.Entity](a *app, v view[E]) *cobra.Command {
	var (
		fieldName string
		key       string
		force     bool
	)
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: fmt.Sprintf("Write the content of a %s to the blob store", v.kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			field, err := types.ParseBinaryField(fieldName)
			if err != nil {
				return userErr(err)
			}
			c, err := a.connect(cmd)
			if err != nil {
				return err
			}
			info, err := sndeals.ExportBinary(cmd.Context(), c, v.kit(c), id, field, key, force)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), info)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s %d to %s (%s)\n", v.kind, id, info.Location, info.Key)
			return nil
		},
	}
	cmd.Flags().StringVar(&fieldName, "field", types.FieldContent.Name(), "binary field to export")
	cmd.Flags().StringVar(&key, "key", "", "blob key (default: <collection>/<id>/<fileName>)")
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing blob")
	return cmd
}

func newExportsCmd[E types.Entity](a *app, v view[E]) *cobra.Command {
	return &cobra.Command{
		Use:   "exports [id]",
		Short: fmt.Sprintf("List %s content in the blob store", v.kind),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			if len(args) == 1 {
				var err error
				if id, err = parseID(args[0]); err != nil {
					return err
				}
			}
			c, err := a.connect(cmd)
			if err != nil {
				return err
			}
			infos, err := sndeals.ListExports(cmd.Context(), c, v.kit(c), id)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if a.flags.jsonMode {
				if infos == nil {
					infos = []blob.Info{}
				}
				return printJSON(w, infos)
			}
			if len(infos) == 0 {
				fmt.Fprintln(w, "No exports found.")
				return nil
			}
			rows := make([][]string, len(infos))
			for i, info := range infos {
				rows[i] = []string{
					info.Key,
					info.ContentType,
					humanize.Bytes(uint64(max(info.Size, 0))),
					info.LastModified.Local().Format("2006-01-02 15:04:05"),
				}
			}
			printTable(w, []string{"KEY", "TYPE", "SIZE", "MODIFIED"}, rows)
			return nil
		},
	}
}

func newImportCmd[E types.Entity](a *app, v view[E]) *cobra.Command {
	var (
		fieldName string
		key       string
	)
	cmd := &cobra.Command{
		Use:   "import <id>",
		Short: fmt.Sprintf("Replace the content of a %s with a blob from the store", v.kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			field, err := types.ParseBinaryField(fieldName)
			if err != nil {
				return userErr(err)
			}
			c, err := a.connect(cmd)
			if err != nil {
				return err
			}
			updated, err := sndeals.ImportBinary(cmd.Context(), c, v.kit(c), id, field, key)
			if err != nil {
				return err
			}
			return a.printEntity(cmd, updated)
		},
	}
	cmd.Flags().StringVar(&fieldName, "field", types.FieldContent.Name(), "binary field to replace")
	cmd.Flags().StringVar(&key, "key", "", "blob key (default: <collection>/<id>/<fileName>)")
	return cmd
}

// applyFields layers defaults, the --data object, and --set values over
// base, in increasing precedence. A --set value is parsed as JSON when it
// is valid JSON; when that does not fit the field's type it is retried as
// a plain string.
func applyFields[E types.Entity](base E, defaults map[string]any, data string, sets map[string]string) (E, error) {
	var zero E
	fields, err := toMap(base)
	if err != nil {
		return zero, err
	}
	for k, v := range defaults {
		if cur, ok := fields[k]; !ok || cur == "" {
			fields[k] = v
		}
	}
	if data != "" {
		extra, err := decodeObject([]byte(data))
		if err != nil {
			return zero, fmt.Errorf("--data: %w", err)
		}
		for k, v := range extra {
			fields[k] = v
		}
	}
	parsed := make(map[string]any, len(sets))
	for k, raw := range sets {
		parsed[k] = parseValue(raw)
	}

	for {
		merged := make(map[string]any, len(fields)+len(parsed))
		for k, v := range fields {
			merged[k] = v
		}
		for k, v := range parsed {
			merged[k] = v
		}
		b, err := json.Marshal(merged)
		if err != nil {
			return zero, err
		}
		var out E
		err = json.Unmarshal(b, &out)
		if err == nil {
			return out, nil
		}
		var te *json.UnmarshalTypeError
		if errors.As(err, &te) {
			if raw, ok := sets[te.Field]; ok {
				if _, isString := parsed[te.Field].(string); !isString {
					parsed[te.Field] = raw
					continue
				}
			}
		}
		return zero, fmt.Errorf("field values: %w", err)
	}
}

func toMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return decodeObject(b)
}

func decodeObject(b []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

// parseValue returns raw decoded as JSON, or raw itself when it is not
// valid JSON.
func parseValue(raw string) any {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return raw
	}
	return v
}
