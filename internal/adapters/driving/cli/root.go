// Package cli provides the docchat command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
	"github.com/custodia-labs/docchat/internal/metrics"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

var (
	configDir string
	verbose   bool
)

// Services driven by the commands. They are nil until SetServices or the
// bootstrap hook runs.
var (
	conversationService driving.ConversationService
	ingestionService    driving.IngestionService
	retrievalService    driving.RetrievalService
	chatService         driving.ChatService
	settingsService     driving.SettingsService
	metricsCollector    *metrics.Metrics
)

// Services bundles everything the commands drive.
type Services struct {
	Conversation driving.ConversationService
	Ingestion    driving.IngestionService
	Retrieval    driving.RetrievalService
	Chat         driving.ChatService
	Settings     driving.SettingsService
	Metrics      *metrics.Metrics
}

// BootstrapFunc builds the services from the config directory. The returned
// cleanup function releases stores and clients.
type BootstrapFunc func(ctx context.Context, configDir string) (Services, func(), error)

var (
	bootstrap BootstrapFunc
	cleanup   func()
)

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "Chat with your PDF documents",
	Long: `docchat indexes PDF documents into a vector store and answers questions
about them with a language model, grounded in the document's own text.

Upload a PDF, open a chat on it, and ask away:
  docchat upload report.pdf
  docchat chat new uploads/1700000000000report.pdf
  docchat ask 1 "What were the main findings?"`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: runBootstrap,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.docchat)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetServices injects the services used by all commands.
func SetServices(s Services) {
	conversationService = s.Conversation
	ingestionService = s.Ingestion
	retrievalService = s.Retrieval
	chatService = s.Chat
	settingsService = s.Settings
	metricsCollector = s.Metrics
}

// SetBootstrap registers the function that builds services once flags are
// parsed. Commands annotated with skipBootstrap never trigger it.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// skipBootstrap marks commands that need no services.
const skipBootstrap = "docchat/skip-bootstrap"

func runBootstrap(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if bootstrap == nil || cmd.Annotations[skipBootstrap] == "true" {
		return nil
	}

	svcs, done, err := bootstrap(cmd.Context(), configDir)
	if err != nil {
		return fmt.Errorf("initialising services: %w", err)
	}
	SetServices(svcs)
	cleanup = done
	return nil
}

// currentSettings is nil when no settings service is wired or the settings
// cannot be read; callers fall back to their flag defaults.
func currentSettings() *domain.AppSettings {
	if settingsService == nil {
		return nil
	}
	s, err := settingsService.Get()
	if err != nil {
		logger.Debug("reading settings: %v", err)
		return nil
	}
	return s
}

// Execute runs the root command until it completes or the process receives
// an interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Root returns the root command, for documentation generators and tests.
func Root() *cobra.Command {
	return rootCmd
}
