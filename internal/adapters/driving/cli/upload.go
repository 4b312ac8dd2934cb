package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var uploadChat bool

var uploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Upload a PDF document",
	Long: `Stores a PDF in the configured object store and prints its document key.

With --chat the document is also indexed and a chat is opened on it, the
same as running 'docchat chat new' with the printed key.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadChat, "chat", false, "index the document and open a chat on it")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	path := args[0]

	if conversationService == nil {
		return errors.New("conversation service not configured")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	name := filepath.Base(path)
	key, err := conversationService.Upload(cmd.Context(), name, f)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	cmd.Printf("Uploaded: %s\n", name)
	cmd.Printf("Key:      %s\n", key)

	if !uploadChat {
		return nil
	}

	conv, err := conversationService.CreateConversation(cmd.Context(), key, name)
	if err != nil {
		return ingestFailure(err)
	}
	cmd.Printf("Chat:     %d\n", conv.ID)
	return nil
}
