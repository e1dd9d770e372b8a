package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/lapse/internal/config"
	"github.com/MeKo-Tech/lapse/internal/server"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server exposing live timing reports",
	Long: `Start an HTTP server that keeps re-running the configured workloads and
exposes the latest timing report.

The server provides the following endpoints:
  GET /report     - Latest report as JSON
  GET /report/tsv - Latest report as tab-separated values
  GET /healthz    - Health check endpoint
  GET /metrics    - Prometheus metrics
  GET /ws         - WebSocket stream of report snapshots

Examples:
  lapse serve
  lapse serve --port 8080 --refresh 5
  lapse serve --workloads hash,alloc --iterations 1000`,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		iterations := cfg.Server.Iterations
		if cmd.Flags().Changed("iterations") {
			iterations, _ = cmd.Flags().GetInt("iterations")
		}

		workloadsCSV := cfg.Server.Workloads
		if cmd.Flags().Changed("workloads") {
			workloadsCSV, _ = cmd.Flags().GetString("workloads")
		}

		refreshSec := cfg.Server.RefreshSec
		if cmd.Flags().Changed("refresh") {
			refreshSec, _ = cmd.Flags().GetInt("refresh")
		}

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if cmd.Flags().Changed("shutdown-timeout") {
			shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
		}

		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", port)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		srv, err := server.New(server.Config{
			Host:            host,
			Port:            port,
			CORSOrigin:      corsOrigin,
			Iterations:      iterations,
			Workloads:       config.WorkloadNames(workloadsCSV),
			RefreshInterval: time.Duration(refreshSec) * time.Second,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize server: %w", err)
		}
		defer func() { _ = srv.Close() }()

		go srv.Feed().Run(ctx)

		mux := http.NewServeMux()
		srv.SetupRoutes(mux)

		httpServer := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			slog.Info("Starting report server", "host", host, "port", port, "refresh_sec", refreshSec)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

		slog.Info("Starting graceful shutdown", "timeout", fmt.Sprintf("%ds", shutdownTimeout))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
			time.Duration(shutdownTimeout)*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		} else {
			slog.Info("HTTP server shutdown completed")
		}

		if err := srv.Close(); err != nil {
			slog.Error("Server cleanup error", "error", err)
		}

		slog.Info("Graceful shutdown completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().IntP("iterations", "n", 100, "samples to record per workload per refresh")
	serveCmd.Flags().StringP("workloads", "w", "", "comma-separated workloads to run (default all)")
	serveCmd.Flags().Int("refresh", 10, "seconds between report refreshes")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
}
