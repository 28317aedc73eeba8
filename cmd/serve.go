package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/gridkit/internal/server"
	"github.com/sells-group/gridkit/internal/store"
)

var (
	servePort    int
	serveOrigins []string
	serveNoViews bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve grids over an HTTP JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort > 0 {
			cfg.Server.Port = servePort
		}

		var views store.Store
		if serveNoViews {
			if err := cfg.Validate("cli"); err != nil {
				return err
			}
		} else {
			if err := cfg.Validate("serve"); err != nil {
				return err
			}
			s, err := openViews(ctx)
			if err != nil {
				return err
			}
			defer s.Close() //nolint:errcheck
			views = s
		}

		srv := server.New(server.Config{
			Port:           cfg.Server.Port,
			Loader:         newLoader(),
			Views:          views,
			GridOptions:    cfg.Grid.Options(),
			AllowedOrigins: serveOrigins,
		})
		return srv.Serve(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (default server.port)")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "origin", nil, "allowed CORS origins (default any)")
	serveCmd.Flags().BoolVar(&serveNoViews, "no-views", false, "run without a saved view store")
	rootCmd.AddCommand(serveCmd)
}
