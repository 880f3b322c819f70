package main

import (
	"github.com/spf13/cobra"

	"github.com/jeanpaul/dontforget/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes POST /remember and POST /remind, both guarded by the
X-API-Key header, plus GET /health and GET /metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if serveAddr != "" {
			a.cfg.Server.Addr = serveAddr
		}
		if err := a.cfg.ValidateServer(); err != nil {
			return err
		}

		srv := server.New(server.Config{
			Addr:            a.cfg.Server.Addr,
			SecretKey:       a.cfg.Server.SecretKey,
			RequestTimeout:  a.cfg.Server.RequestTimeout,
			ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
			CORSOrigins:     a.cfg.Server.CORSOrigins,
		}, a.memory, a.agent, a.store, a.metrics, a.log)
		return srv.Run(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}
