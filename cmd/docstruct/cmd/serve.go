package cmd

import (
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/docstruct/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP processing API",
	Long: `Start an HTTP server exposing the structuring pipeline.

Endpoints:
  POST /process    - process an image, PDF, or JSON token pages
  GET  /health     - health check
  GET  /metrics    - prometheus metrics
  WS   /ws/process - streaming per-page progress

Examples:
  docstruct serve
  docstruct serve --port 8080
  docstruct serve --host 0.0.0.0 --port 3000`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "host to bind to")
	serveCmd.Flags().Int("port", 0, "port to listen on")
	serveCmd.Flags().String("cors-origin", "", "allowed CORS origin")
	serveCmd.Flags().Int("max-upload-size", 0, "maximum upload size in MB")
	serveCmd.Flags().Int("timeout", 0, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 0, "graceful shutdown timeout in seconds")
	serveCmd.Flags().Int("requests-per-minute", 0, "per-client request rate limit (0 disables)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := GetConfig()

	host := cfg.Server.Host
	if cmd.Flags().Changed("host") {
		host, _ = cmd.Flags().GetString("host")
	}
	port := cfg.Server.Port
	if cmd.Flags().Changed("port") {
		port, _ = cmd.Flags().GetInt("port")
	}
	corsOrigin := cfg.Server.CORSOrigin
	if cmd.Flags().Changed("cors-origin") {
		corsOrigin, _ = cmd.Flags().GetString("cors-origin")
	}
	maxUpload := cfg.Server.MaxUploadMB
	if cmd.Flags().Changed("max-upload-size") {
		maxUpload, _ = cmd.Flags().GetInt("max-upload-size")
	}
	timeout := cfg.Server.TimeoutSec
	if cmd.Flags().Changed("timeout") {
		timeout, _ = cmd.Flags().GetInt("timeout")
	}
	shutdownTimeout := cfg.Server.ShutdownTimeout
	if cmd.Flags().Changed("shutdown-timeout") {
		shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
	}
	requestsPerMinute := 0
	if cmd.Flags().Changed("requests-per-minute") {
		requestsPerMinute, _ = cmd.Flags().GetInt("requests-per-minute")
	}

	pl, closeEngines, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer closeEngines()

	srv := server.New(pl, server.Config{
		Host:              host,
		Port:              port,
		CORSOrigin:        corsOrigin,
		MaxUploadMB:       int64(maxUpload),
		TimeoutSec:        timeout,
		RequestsPerMinute: requestsPerMinute,
	}, slog.Default())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx, host, port, time.Duration(shutdownTimeout)*time.Second)
}
