package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hangarhq/aeromesh"
	"github.com/hangarhq/aeromesh/logging"
	"github.com/hangarhq/aeromesh/server"
)

var (
	serveAddr  string
	serveDebug bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the aeromesh HTTP API",
	Long: `Start the HTTP API exposing chat, task, agent and tenant endpoints.
The server drains in-flight requests on SIGINT/SIGTERM before exiting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format, nil)

		mesh, err := aeromesh.New(func(o *aeromesh.Options) {
			o.Config = *cfg
			o.Logger = logger
		})
		if err != nil {
			return err
		}
		defer mesh.Close()

		srv := server.New(mesh.Runner(), mesh.Tenants(), func(o *server.Options) {
			o.Logger = logging.WithComponent(logger, "server")
			o.Debug = serveDebug
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start(cfg.Server.Addr) }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return <-errCh
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable verbose request logging")
}
