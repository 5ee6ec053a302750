package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cadre-oss/brains/internal/server"
)

var (
	servePort int
	serveHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the brains HTTP API",
	Long:  `Start an HTTP server exposing chat, agent listing, user stats and memories, metrics, and a server-sent event stream.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "host to bind to (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	svc, err := openService(ctx, false)
	if err != nil {
		return err
	}
	defer svc.Close()

	host, port := svc.Config().Server.Host, svc.Config().Server.Port
	if serveHost != "" {
		host = serveHost
	}
	if servePort != 0 {
		port = servePort
	}

	srv := server.New(svc)
	return srv.Start(ctx, fmt.Sprintf("%s:%d", host, port))
}
