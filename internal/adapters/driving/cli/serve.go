package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/adapters/driving/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API used by the web client.

Routes:
  POST /api/upload            store a PDF
  POST /api/upload-and-index  store, index and open a chat in one call
  POST /api/create-chat       index a stored PDF and open a chat
  POST /api/chat              stream an answer as NDJSON
  POST /api/get-messages      list a chat's messages
  GET  /api/chats             list chats
  GET  /api/ingest/:key/status
  GET  /healthz
  GET  /metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if conversationService == nil || chatService == nil || ingestionService == nil {
		return errors.New("services not configured")
	}

	addr := serveAddr
	if s := currentSettings(); addr == "" && s != nil {
		addr = s.Server.Addr
	}
	if addr == "" {
		addr = httpapi.DefaultAddr
	}

	server := httpapi.NewServer(httpapi.Ports{
		Conversation: conversationService,
		Ingestion:    ingestionService,
		Chat:         chatService,
	}, metricsCollector)

	cmd.Printf("API listening on %s\n", addr)
	return server.Run(cmd.Context(), addr)
}
