package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var schemaFlags gridFlags

var schemaCmd = &cobra.Command{
	Use:   "schema [SOURCE]",
	Short: "Print the inferred cell type of every column",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		v, err := schemaFlags.resolve(ctx, args)
		if err != nil {
			return err
		}
		s, err := openGrid(ctx, v)
		if err != nil {
			return err
		}
		st := s.State()

		t := table.NewWriter()
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"column", "type", "filter", "sort", "width"})
		t.SetColumnConfigs([]table.ColumnConfig{{Name: "width", Align: text.AlignRight}})
		for i, col := range st.Columns {
			info := st.Schema.Info(col)
			width := ""
			if i < len(st.ColumnWidths) {
				width = fmt.Sprintf("%.0f", st.ColumnWidths[i])
			}
			t.AppendRow(table.Row{col, info.Type, info.Filter, info.SortKind, width})
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		if st.StickyColumn != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "sticky: %s\n", st.StickyColumn)
		}
		return nil
	},
}

func init() {
	schemaFlags.register(schemaCmd)
	rootCmd.AddCommand(schemaCmd)
}
