package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var viewsSaveFlags gridFlags

var viewsCmd = &cobra.Command{
	Use:   "views",
	Short: "Manage saved views",
}

var viewsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved views",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		views, err := openViews(ctx)
		if err != nil {
			return err
		}
		defer views.Close() //nolint:errcheck

		list, err := views.ListViews(ctx)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no saved views")
			return nil
		}

		tw := table.NewWriter()
		tw.SetOutputMirror(cmd.OutOrStdout())
		tw.SetStyle(table.StyleLight)
		tw.AppendHeader(table.Row{"name", "source", "compare", "sort", "filters", "updated"})
		for _, sv := range list {
			tw.AppendRow(table.Row{
				sv.View.Name,
				sv.View.Source,
				sv.View.Compare,
				sv.View.Sort,
				len(sv.View.Filters),
				humanize.Time(sv.UpdatedAt),
			})
		}
		tw.Render()
		return nil
	},
}

var viewsShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Print a saved view as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		views, err := openViews(ctx)
		if err != nil {
			return err
		}
		defer views.Close() //nolint:errcheck

		sv, err := views.GetView(ctx, args[0])
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(sv.View); err != nil {
			return err
		}
		return enc.Close()
	},
}

var viewsSaveCmd = &cobra.Command{
	Use:   "save NAME [SOURCE]",
	Short: "Save a view from flags or a view file",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		v, err := viewsSaveFlags.resolve(ctx, args[1:])
		if err != nil {
			return err
		}
		v.Name = args[0]

		views, err := openViews(ctx)
		if err != nil {
			return err
		}
		defer views.Close() //nolint:errcheck

		sv, err := views.SaveView(ctx, *v)
		if err != nil {
			return err
		}
		zap.L().Info("view saved", zap.String("name", sv.View.Name), zap.String("id", sv.ID))
		fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", sv.View.Name)
		return nil
	},
}

var viewsDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a saved view",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		views, err := openViews(ctx)
		if err != nil {
			return err
		}
		defer views.Close() //nolint:errcheck

		if err := views.DeleteView(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

func init() {
	viewsSaveFlags.register(viewsSaveCmd)
	viewsCmd.AddCommand(viewsListCmd, viewsShowCmd, viewsSaveCmd, viewsDeleteCmd)
	rootCmd.AddCommand(viewsCmd)
}
