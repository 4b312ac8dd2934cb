package cli

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docchat/internal/logger"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [chat-id]",
	Short: "Chat with your documents in the terminal",
	Long: `Open the interactive terminal UI. Without a chat id it starts on the
list of chats; with one it opens that chat directly.

Answers stream in as they are generated and the conversation history is
loaded from the chat.

Controls:
  Enter      - Open chat / send question
  PgUp/PgDn  - Scroll history
  Esc        - Cancel the answer in progress, or back to the chat list
  Ctrl+C     - Quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().String("theme", "auto", fmt.Sprintf("colour theme (%s)", strings.Join(styles.Names(), ", ")))
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) (err error) {
	app, err := newTUIApp(cmd, args)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error(nil, "tui panic: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("TUI crashed: %v", r)
		}
	}()

	if _, err := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// newTUIApp validates arguments and builds the app without starting it.
func newTUIApp(cmd *cobra.Command, args []string) (*tui.App, error) {
	if conversationService == nil || chatService == nil {
		return nil, errors.New("chat service not configured")
	}

	var id int64
	if len(args) == 1 {
		var err error
		if id, err = parseChatID(args[0]); err != nil {
			return nil, err
		}
	}

	theme, err := cmd.Flags().GetString("theme")
	if err != nil {
		return nil, fmt.Errorf("getting theme flag: %w", err)
	}
	s, err := styles.ByName(theme)
	if err != nil {
		return nil, err
	}

	app, err := tui.NewApp(&tui.Ports{
		Conversation: conversationService,
		Chat:         chatService,
	}, id, tui.WithStyles(s))
	if err != nil {
		return nil, fmt.Errorf("failed to create TUI: %w", err)
	}
	return app.WithContext(cmd.Context()), nil
}
