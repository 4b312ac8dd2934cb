package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

const snippetLen = 160

var retrieveJSON bool

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [document-key] [query]",
	Short: "Show the document context retrieved for a query",
	Long: `Embeds the query and looks up the most similar chunks of the document.
Only matches above the configured minimum score are shown; these are the
passages a chat answer would be grounded in.`,
	Args: cobra.ExactArgs(2),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output matches as JSON")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	key, query := args[0], args[1]

	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	matches, err := retrievalService.Retrieve(cmd.Context(), query, key)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if retrieveJSON {
		return outputMatchesJSON(cmd, matches)
	}

	return outputMatchesTable(cmd, matches)
}

func outputMatchesJSON(cmd *cobra.Command, matches []domain.VectorMatch) error {
	if matches == nil {
		matches = []domain.VectorMatch{}
	}
	data, err := json.MarshalIndent(matches, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal matches: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputMatchesTable(cmd *cobra.Command, matches []domain.VectorMatch) error {
	if len(matches) == 0 {
		cmd.Println("No relevant context found.")
		return nil
	}

	cmd.Println("Matches:")
	cmd.Println()
	for i, m := range matches {
		// Format: [N] page P (score)
		cmd.Printf("  [%d] page %d (%.2f)\n", i+1, m.Metadata.PageNumber, m.Score)
		if snippet := snippet(m.Metadata.Text); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}
	return nil
}

func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetLen {
		return text
	}
	return string(runes[:snippetLen]) + "..."
}
