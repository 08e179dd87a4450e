package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/runbookqa/internal/markdown"
	"github.com/ziadkadry99/runbookqa/internal/server"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP and WebSocket API",
	Long:  `Starts the REST API (/api/ask, chats, runbooks, documents) and the /ws conversation endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context(), cfg, true)
		if err != nil {
			return err
		}
		defer a.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = serverPort
		}

		srv := server.New(server.Config{
			Port:           port,
			AllowAll:       cfg.Server.AllowAllOrigins,
			RequestTimeout: requestTimeout(cfg),
			EnrichBelow:    cfg.Chat.EnrichBelow,
			EnrichLimit:    cfg.Chat.EnrichLimit,
		}, server.Deps{
			Engine:   a.engine,
			History:  a.history,
			Runbooks: a.runbooks,
			Store:    a.store,
			Ingester: a.ingester,
			Catalog:  a.catalog,
			Renderer: markdown.New(),
			Backlog:  a.backlog,
		})

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "runbookqa server v%s starting on port %d\n", Version, port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", a.db.Path())
		fmt.Fprintf(os.Stderr, "  Runbooks: %s\n", a.runbooks.Root())
		fmt.Fprintf(os.Stderr, "  Chunks indexed: %d\n", a.store.Count())

		return srv.Start()
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8000, "Port to listen on (overrides server.port)")
	rootCmd.AddCommand(serverCmd)
}
