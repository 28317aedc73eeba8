package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/gridkit/internal/export"
	"github.com/sells-group/gridkit/internal/grid"
	"github.com/sells-group/gridkit/internal/record"
	"github.com/sells-group/gridkit/internal/schema"
	"github.com/sells-group/gridkit/internal/source"
	"github.com/sells-group/gridkit/internal/tui"
)

var (
	browseFlags    gridFlags
	browseEditable bool
	browseOut      string
)

var browseCmd = &cobra.Command{
	Use:   "browse [SOURCE]",
	Short: "Open a source in the interactive terminal grid",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		v, err := browseFlags.resolve(ctx, args)
		if err != nil {
			return err
		}
		if browseOut != "" && !browseEditable && !v.Editable {
			return eris.New("--out requires --editable")
		}

		var extra []grid.Option
		if browseEditable {
			extra = append(extra, grid.WithEditable(true))
		}
		s, err := openGrid(ctx, v, extra...)
		if err != nil {
			return err
		}

		opts := []tui.Option{
			tui.WithTitle(source.Redact(v.Source)),
			tui.WithCharWidth(float64(cfg.Grid.Width.CharWidth)),
			tui.WithStickyMinWidth(float64(cfg.Grid.StickyMinWidth)),
		}
		if browseOut != "" {
			opts = append(opts, tui.WithSave(saveRecords(browseOut)))
		}
		return tui.Run(ctx, tui.New(s, opts...))
	},
}

// saveRecords writes edited records to path in the format its extension
// names.
func saveRecords(path string) tui.SaveFunc {
	return func(records []record.Record) error {
		rows := make([]record.Row, len(records))
		for i, r := range records {
			rows[i] = record.Row{Raw: r, Values: r.Map(), Index: i}
		}

		f, err := os.Create(path)
		if err != nil {
			return eris.Wrap(err, "browse: create output")
		}
		format := formatFromPath(path)
		if err := export.Write(f, format, record.Columns(records), rows, schema.Infer(records)); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrap(err, "browse: close output")
		}
		zap.L().Info("edits saved", zap.String("out", path), zap.Int("rows", len(records)))
		return nil
	}
}

func init() {
	browseFlags.register(browseCmd)
	browseCmd.Flags().BoolVar(&browseEditable, "editable", false, "allow editing cells")
	browseCmd.Flags().StringVarP(&browseOut, "out", "o", "", "file that ctrl+s writes edited records to")
	rootCmd.AddCommand(browseCmd)
}
