package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/adapters/driving/watcher"
)

var watchSettle time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Index every PDF dropped into a directory",
	Long: `Watches a directory and, for every new or rewritten PDF, uploads it,
indexes it and opens a chat on it. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchSettle, "settle", watcher.DefaultSettle,
		"quiet period after the last write before a file is picked up")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]

	if conversationService == nil {
		return errors.New("conversation service not configured")
	}

	w, err := watcher.New(conversationService, watcher.Options{Settle: watchSettle})
	if err != nil {
		return err
	}
	defer w.Close()

	cmd.Printf("Watching %s for PDFs (Ctrl+C to stop)\n", dir)
	return w.Run(cmd.Context(), dir, func(r watcher.Result) {
		if r.Err != nil {
			cmd.PrintErrf("%s: %v\n", r.Path, r.Err)
			return
		}
		cmd.Printf("%s -> chat %d (%s)\n", r.Path, r.Conversation.ID, r.Conversation.DocumentKey)
	})
}
