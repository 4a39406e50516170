package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Xisisrefliel/VidPull/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the download daemon with the HTTP/WebSocket surface",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runner := server.NewRunner(server.Config{
			Addr:    serveAddr,
			DataDir: dataDir,
		}, newLogger())
		return runner.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8793", "Listen address")
	rootCmd.AddCommand(serveCmd)
}
