package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/gridkit/internal/config"
)

var cfg *config.Config

var (
	jsonPath  string
	sheetName string
)

var rootCmd = &cobra.Command{
	Use:   "gridkit",
	Short: "Inspect, filter, diff and export tabular data",
	Long:  "Loads CSV, JSON, XLSX, shapefile, HTTP, FTP and Postgres sources into a data grid with type inference, fuzzy filters, sorting and diffs against a comparison dataset.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&jsonPath, "json-path", "", "gjson path to the record array inside JSON sources")
	rootCmd.PersistentFlags().StringVar(&sheetName, "sheet", "", "worksheet name for XLSX sources (default first sheet)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
