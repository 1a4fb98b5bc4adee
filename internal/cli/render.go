package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/sndeals/internal/codec"
	"github.com/mesh-intelligence/sndeals/pkg/types"
)

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysErr(fmt.Errorf("marshal JSON: %w", err))
	}
	fmt.Fprintln(w, string(out))
	return nil
}

// printTable writes rows under headers with a dashed rule, trimming
// trailing padding from each line.
func printTable(w io.Writer, headers []string, rows [][]string) {
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	rule := make([]string, len(headers))
	for i, h := range headers {
		rule[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	fmt.Fprintln(tw, strings.Join(rule, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	tw.Flush()

	for _, line := range strings.Split(strings.TrimRight(sb.String(), "\n"), "\n") {
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// printEntity renders one record, as JSON or as aligned field: value
// lines. Binary fields show their decoded size instead of the payload.
func (a *app) printEntity(cmd *cobra.Command, e types.Entity) error {
	w := cmd.OutOrStdout()
	if a.flags.jsonMode {
		return printJSON(w, e)
	}
	fields, err := toMap(e)
	if err != nil {
		return sysErr(err)
	}
	for _, name := range binaryNames() {
		if data, ok := fields[name].(string); ok && data != "" {
			fields[name] = codec.FormatByteSize(data)
		}
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	for _, k := range keys {
		val := fields[k]
		if val == nil {
			continue
		}
		fmt.Fprintf(tw, "%s:\t%v\n", k, val)
	}
	tw.Flush()
	for _, line := range strings.Split(strings.TrimRight(sb.String(), "\n"), "\n") {
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
	return nil
}

func binaryNames() []string {
	return []string{types.FieldContent.Name()}
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
