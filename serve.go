package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"cosmo_command/internal/graph"
	"cosmo_command/internal/server"
	"cosmo_command/internal/session"
)

func serveCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve snapshots over HTTP and WebSocket",
		Long: `Serve the session graph for browser and remote dashboard clients.

Endpoints:
  GET /api/sessions   full snapshot (also served at /)
  GET /api/commands   command feed only
  GET /health         liveness probe
  GET /ws             snapshot stream`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			gin.SetMode(gin.ReleaseMode)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var changes <-chan session.ChangeEvent
			if w := startWatcher(cfg); w != nil {
				defer w.Stop()
				changes = w.Events
				go logWatchErrors(ctx, w)
			}

			asm := graph.NewAssembler(graph.OptionsFromConfig(cfg))
			log.Printf("serve: sessions dir %s", asm.SessionsDir())
			return server.New(cfg, asm, nil).Run(ctx, changes)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	return cmd
}

func logWatchErrors(ctx context.Context, w *session.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-w.Errors:
			log.Printf("watcher: %v", err)
		}
	}
}
