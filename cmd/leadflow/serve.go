package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/leadflow/internal/api"
	"github.com/Veraticus/leadflow/internal/certs"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the lead intake and queue API over HTTP. Forms post to
POST /api/leads; operators work the approval, follow-up and assignment
queues under /api. GET /health reports database reachability.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				if a.cfg.Logging.Level != "debug" {
					gin.SetMode(gin.ReleaseMode)
				}
				router := api.NewRouter(api.Deps{
					Engine:  a.engine,
					Logger:  slog.Default(),
					Version: version,
					Checks: []api.HealthCheck{
						{Name: "database", Check: a.store.Ping},
					},
				})
				opts := api.ServerOptions{Addr: a.cfg.Server.Addr, ShutdownTimeout: a.cfg.Server.ShutdownTimeout}
				if a.cfg.Server.TLS {
					certStore := certs.NewStore(a.cfg.Server.CertDir, a.cfg.Server.CertHosts...)
					tlsCfg, err := certStore.TLSConfig()
					if err != nil {
						return fmt.Errorf("failed to prepare TLS certificate: %w", err)
					}
					certFile, _ := certStore.Paths()
					slog.Info("Serving with self-signed certificate", "cert", certFile)
					opts.TLS = tlsCfg
				}
				return api.Serve(cmd.Context(), opts, router, slog.Default())
			})
		},
	}
	cmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	cmd.Flags().Bool("tls", false, "Serve HTTPS with a self-signed certificate (overrides server.tls)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.tls", cmd.Flags().Lookup("tls"))
	return cmd
}
