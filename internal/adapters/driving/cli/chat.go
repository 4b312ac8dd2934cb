package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

var (
	chatName string
	chatJSON bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Manage chats",
	Long:  `Open chats on uploaded documents and review their history.`,
}

var chatNewCmd = &cobra.Command{
	Use:   "new [document-key]",
	Short: "Index a document and open a chat on it",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatNew,
}

var chatListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all chats",
	Args:  cobra.NoArgs,
	RunE:  runChatList,
}

var chatMessagesCmd = &cobra.Command{
	Use:   "messages [chat-id]",
	Short: "Show a chat's messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatMessages,
}

func init() {
	chatNewCmd.Flags().StringVar(&chatName, "name", "", "display name for the document")
	chatListCmd.Flags().BoolVar(&chatJSON, "json", false, "output as JSON")
	chatMessagesCmd.Flags().BoolVar(&chatJSON, "json", false, "output as JSON")
	chatCmd.AddCommand(chatNewCmd)
	chatCmd.AddCommand(chatListCmd)
	chatCmd.AddCommand(chatMessagesCmd)
	rootCmd.AddCommand(chatCmd)
}

func runChatNew(cmd *cobra.Command, args []string) error {
	key := args[0]

	if conversationService == nil {
		return errors.New("conversation service not configured")
	}

	conv, err := conversationService.CreateConversation(cmd.Context(), key, chatName)
	if err != nil {
		return ingestFailure(err)
	}

	cmd.Printf("Created chat %d on %s\n", conv.ID, conv.DocumentName)
	cmd.Printf("Ask with: docchat ask %d \"your question\"\n", conv.ID)
	return nil
}

func runChatList(cmd *cobra.Command, _ []string) error {
	if conversationService == nil {
		return errors.New("conversation service not configured")
	}

	convs, err := conversationService.ListConversations(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list chats: %w", err)
	}

	if chatJSON {
		return outputJSON(cmd, convs)
	}

	if len(convs) == 0 {
		cmd.Println("No chats yet. Create one with 'docchat chat new'.")
		return nil
	}

	cmd.Println("Chats:")
	for _, c := range convs {
		cmd.Printf("  [%d] %s  (%s)\n", c.ID, c.DocumentName, c.CreatedAt.Format("2006-01-02 15:04"))
		cmd.Printf("      Key: %s\n", c.DocumentKey)
	}
	return nil
}

func runChatMessages(cmd *cobra.Command, args []string) error {
	if conversationService == nil {
		return errors.New("conversation service not configured")
	}

	id, err := parseChatID(args[0])
	if err != nil {
		return err
	}

	if _, err := conversationService.GetConversation(cmd.Context(), id); err != nil {
		return fmt.Errorf("chat %d: %w", id, err)
	}

	msgs, err := conversationService.ListMessages(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to list messages: %w", err)
	}

	if chatJSON {
		return outputJSON(cmd, msgs)
	}

	if len(msgs) == 0 {
		cmd.Println("No messages yet.")
		return nil
	}

	for _, m := range msgs {
		cmd.Printf("%s: %s\n\n", roleLabel(m.Role), m.Content)
	}
	return nil
}

func parseChatID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid chat id %q", s)
	}
	return id, nil
}

func roleLabel(r domain.Role) string {
	switch r {
	case domain.RoleUser:
		return "You"
	case domain.RoleAssistant:
		return "Assistant"
	default:
		return "System"
	}
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
