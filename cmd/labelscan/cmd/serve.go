package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/labelscan/internal/pipeline"
	"github.com/MeKo-Tech/labelscan/internal/server"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the scan API",
	Long: `Start an HTTP server exposing the scan pipeline.

The server provides the following endpoints:
  POST /scan     - Scan an uploaded label image
  GET  /ws/scan  - Stream frames over a websocket
  GET  /healthz  - Health check endpoint
  GET  /metrics  - Prometheus metrics

Examples:
  labelscan serve
  labelscan serve --port 8080
  labelscan serve --host 0.0.0.0 --port 3000`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	serverCfg := cfg.Server
	if cmd.Flags().Changed("host") {
		serverCfg.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		serverCfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("max-upload-size") {
		serverCfg.MaxUploadMB, _ = cmd.Flags().GetInt("max-upload-size")
	}
	if cmd.Flags().Changed("timeout") {
		serverCfg.TimeoutSec, _ = cmd.Flags().GetInt("timeout")
	}
	shutdownTimeout, _ := cmd.Flags().GetInt("shutdown-timeout")

	if serverCfg.Port < 1 || serverCfg.Port > 65535 {
		return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", serverCfg.Port)
	}

	detModel, _ := cmd.Flags().GetString("det-model")
	textDetModel, _ := cmd.Flags().GetString("text-det-model")
	textRecModel, _ := cmd.Flags().GetString("text-rec-model")

	orchestrator, err := pipeline.NewBuilder().
		WithConfig(cfg.ToPipelineConfig()).
		WithDetectorModelPath(detModel).
		WithExtractorModelPaths(textDetModel, textRecModel).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer orchestrator.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := server.New(serverCfg, orchestrator)

	go func() {
		if err := srv.ListenAndServe(); err != nil {
			slog.Error("Server error", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		slog.Info("Context cancelled, initiating shutdown")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		time.Duration(shutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
		return err
	}
	slog.Info("Graceful shutdown completed")
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("host", "H", "127.0.0.1", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().Int("max-upload-size", 16, "maximum upload size in MB")
	serveCmd.Flags().Int("timeout", 30, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	serveCmd.Flags().String("det-model", "", "override label localization model path")
	serveCmd.Flags().String("text-det-model", "", "override text proposal model path")
	serveCmd.Flags().String("text-rec-model", "", "override text recognition model path")
}
