package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/sndeals/internal/journal"
	"github.com/mesh-intelligence/sndeals/pkg/types"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit    int
		kindName string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded request events",
		Long: `History lists the store events recorded in the journal, newest first.
Events are recorded only while journal is enabled in config.yaml or
through SNDEALS_JOURNAL=true.

Example:
  sndeals history
  sndeals history --kind post --limit 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := journal.Query{Limit: limit}
			if kindName != "" {
				k, err := types.ParseKind(kindName)
				if err != nil {
					return userErr(err)
				}
				q.Kind = k
			}

			c, err := a.connect(cmd)
			if err != nil {
				return err
			}
			j := c.Journal()
			if j == nil {
				j = journal.New(journal.WithLogger(a.log.WithName("journal")))
				if err := j.Attach(c.Config().DataDir); err != nil {
					return sysErr(fmt.Errorf("open journal: %w", err))
				}
				defer j.Detach()
			}

			entries, err := j.Recent(cmd.Context(), q)
			if err != nil {
				return sysErr(err)
			}
			w := cmd.OutOrStdout()
			if a.flags.jsonMode {
				if entries == nil {
					entries = []journal.Entry{}
				}
				return printJSON(w, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(w, "No events recorded.")
				return nil
			}
			rows := make([][]string, len(entries))
			for i, e := range entries {
				rows[i] = []string{
					e.RecordedAt.Local().Format("2006-01-02 15:04:05"),
					string(e.Kind),
					e.Type,
					strconv.FormatUint(e.Generation, 10),
					truncate(e.Error, 60),
				}
			}
			printTable(w, []string{"TIME", "KIND", "EVENT", "GEN", "ERROR"}, rows)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of events (0 = all)")
	cmd.Flags().StringVar(&kindName, "kind", "", "only events of this kind")
	return cmd
}
