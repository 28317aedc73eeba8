package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/gridkit/internal/export"
	"github.com/sells-group/gridkit/internal/record"
)

var diffFlags gridFlags

var diffCmd = &cobra.Command{
	Use:   "diff [SOURCE] --compare SOURCE",
	Short: "Show rows that are new, modified or removed against a comparison",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		v, err := diffFlags.resolve(ctx, args)
		if err != nil {
			return err
		}
		if v.Compare == "" {
			return eris.New("--compare is required")
		}
		s, err := openGrid(ctx, v)
		if err != nil {
			return err
		}
		st := s.State()
		out := cmd.OutOrStdout()

		if st.UniqueColumn == "" {
			fmt.Fprintln(out, "no column has a unique value per row; diff skipped")
			return nil
		}

		sum := st.Summary()
		fmt.Fprintf(out, "key: %s  new: %s  modified: %s  removed: %s\n",
			st.UniqueColumn,
			humanize.Comma(int64(sum.New)),
			humanize.Comma(int64(sum.Modified)),
			humanize.Comma(int64(sum.Old)),
		)

		changed := make([]record.Row, 0, len(st.Diffs))
		for _, c := range st.Diffs {
			changed = append(changed, c.Row)
		}
		return export.Table(out, st.Columns, changed, st.Schema, export.TableOptions{Status: true, Footer: true})
	},
}

func init() {
	diffFlags.register(diffCmd)
	rootCmd.AddCommand(diffCmd)
}
