package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/gridkit/internal/export"
	"github.com/sells-group/gridkit/internal/source"
)

var (
	exportFlags    gridFlags
	exportFormat   string
	exportOut      string
	exportPGTable  string
	exportPGKey    string
	exportPGURL    string
	exportPGCreate bool
)

var exportCmd = &cobra.Command{
	Use:   "export [SOURCE]",
	Short: "Write the filtered and sorted view to a file, stdout or Postgres",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		v, err := exportFlags.resolve(ctx, args)
		if err != nil {
			return err
		}
		s, err := openGrid(ctx, v)
		if err != nil {
			return err
		}
		st := s.State()

		if exportPGTable != "" {
			dsn := exportPGURL
			if dsn == "" && cfg.Store.Driver == "postgres" {
				dsn = cfg.Store.DatabaseURL
			}
			if dsn == "" {
				return eris.New("--pg-url is required (or set store.driver=postgres)")
			}
			pool, err := source.ConnectPostgres(ctx, dsn)
			if err != nil {
				return err
			}
			defer pool.Close()

			n, err := export.ToPostgres(ctx, pool, st.Columns, st.View, st.Schema, export.PostgresOptions{
				Table:  exportPGTable,
				Key:    exportPGKey,
				Create: exportPGCreate,
			})
			if err != nil {
				return err
			}
			zap.L().Info("export complete",
				zap.String("table", exportPGTable),
				zap.Int64("rows", n),
			)
			return nil
		}

		format := exportFormat
		if format == "" {
			format = formatFromPath(exportOut)
		}

		var w io.Writer = cmd.OutOrStdout()
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return eris.Wrap(err, "export: create output")
			}
			defer f.Close() //nolint:errcheck
			w = f
		}

		if err := export.Write(w, format, st.Columns, st.View, st.Schema); err != nil {
			return err
		}
		if exportOut != "" {
			zap.L().Info("export complete",
				zap.String("out", exportOut),
				zap.String("format", format),
				zap.Int("rows", len(st.View)),
			)
		}
		return nil
	},
}

// formatFromPath picks the export format from a file extension, defaulting
// to CSV.
func formatFromPath(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "json":
		return export.FormatJSON
	case "xlsx":
		return export.FormatXLSX
	case "md", "markdown":
		return export.FormatMarkdown
	case "txt":
		return export.FormatTable
	default:
		return export.FormatCSV
	}
}

func init() {
	exportFlags.register(exportCmd)
	f := exportCmd.Flags()
	f.StringVar(&exportFormat, "format", "", "csv, json, xlsx, markdown or table (default from --out, else csv)")
	f.StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	f.StringVar(&exportPGTable, "pg-table", "", "write to this Postgres table instead of a file")
	f.StringVar(&exportPGKey, "pg-key", "", "upsert on this column instead of appending")
	f.StringVar(&exportPGURL, "pg-url", "", "Postgres DSN for --pg-table (default store.database_url)")
	f.BoolVar(&exportPGCreate, "pg-create", false, "create the table if it does not exist")
	rootCmd.AddCommand(exportCmd)
}
