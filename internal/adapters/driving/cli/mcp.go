package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/adapters/driving/mcp"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve retrieval and chat tools to MCP clients",
	Long: `Serve the retrieve_context, ask and list_chats tools and the chat
resources to an MCP client. JSON-RPC runs over stdin and stdout unless
--http gives an address for the streamable HTTP transport.

A client entry for stdio looks like:

  "docchat": {"command": "docchat", "args": ["mcp", "serve"]}`,
	Example: `  docchat mcp serve
  docchat mcp serve --http 127.0.0.1:8090`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "listen address for the HTTP transport")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if retrievalService == nil || conversationService == nil {
		return errors.New("services not configured")
	}

	ports := &mcp.Ports{
		Retrieval:    retrievalService,
		Conversation: conversationService,
		Chat:         chatService,
	}
	if s := currentSettings(); s != nil {
		ports.ContextChars = s.Retrieval.MaxContextChars
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}
	if mcpHTTPAddr == "" {
		return server.ServeStdio(cmd.Context())
	}
	cmd.PrintErrf("MCP server listening on http://%s\n", mcpHTTPAddr)
	return server.ServeHTTP(cmd.Context(), mcpHTTPAddr)
}
