package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

var askCmd = &cobra.Command{
	Use:   "ask [chat-id] [question]",
	Short: "Ask a question in a chat",
	Long: `Streams an answer grounded in the chat's document. The question and the
answer are saved to the chat once the answer is complete.`,
	Args: cobra.ExactArgs(2),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if conversationService == nil || chatService == nil {
		return errors.New("chat service not configured")
	}

	id, err := parseChatID(args[0])
	if err != nil {
		return err
	}
	question := args[1]

	ctx := cmd.Context()
	conv, err := conversationService.GetConversation(ctx, id)
	if err != nil {
		return fmt.Errorf("chat %d: %w", id, err)
	}
	prior, err := conversationService.ListMessages(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	chunks, errs := chatService.StreamAnswer(ctx, id, prior, question, conv.DocumentKey)
	for c := range chunks {
		cmd.Print(c.Content)
	}
	cmd.Println()

	for err := range errs {
		if !domain.IsFatal(err) {
			cmd.PrintErrf("Warning: answer not saved: %v\n", err)
			continue
		}
		return fmt.Errorf("answer failed (%s): %w", domain.ErrorKind(err), err)
	}
	return nil
}
