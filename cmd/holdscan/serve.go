package main

import (
	"log/slog"

	"github.com/Veraticus/holdscan/internal/api"
	"github.com/Veraticus/holdscan/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scan and classify operations over HTTP",
		Long: `Start the JSON API:

  GET  /healthz       liveness probe
  POST /v1/scan       OCR pages in, holding records out
  POST /v1/classify   holding names in, taxonomy paths out
  GET  /v1/rules      the active rule table

With --tls a certificate for localhost is generated under server.cert_dir.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	addRulesFlag(cmd)
	cmd.Flags().String("addr", "", "listen address (default: server.addr or :8080)")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed localhost certificate")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.tls", cmd.Flags().Lookup("tls"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	engine, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	cfg := config.LoadServerConfig()
	server := api.NewServer(engine, cfg,
		api.WithLogger(slog.Default()),
		api.WithWorkers(viper.GetInt("scan.workers")))

	return server.ListenAndServe(cmd.Context())
}
