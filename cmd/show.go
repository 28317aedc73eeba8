package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sells-group/gridkit/internal/export"
)

var (
	showFlags gridFlags
	showLimit int
)

var showCmd = &cobra.Command{
	Use:   "show [SOURCE]",
	Short: "Print the filtered and sorted view as a table",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		v, err := showFlags.resolve(ctx, args)
		if err != nil {
			return err
		}
		s, err := openGrid(ctx, v)
		if err != nil {
			return err
		}

		st := s.State()
		rows := st.View
		if showLimit > 0 && len(rows) > showLimit {
			rows = rows[:showLimit]
		}

		out := cmd.OutOrStdout()
		if err := export.Table(out, st.Columns, rows, st.Schema, export.TableOptions{
			Status: st.UniqueColumn != "",
		}); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s of %s rows shown\n",
			humanize.Comma(int64(len(rows))),
			humanize.Comma(int64(len(st.View))),
		)
		return nil
	},
}

func init() {
	showFlags.register(showCmd)
	showCmd.Flags().IntVar(&showLimit, "limit", 50, "maximum rows to print (0 for all)")
	rootCmd.AddCommand(showCmd)
}
