package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/core/services"
)

// stdin is swapped by tests.
var stdin io.Reader = os.Stdin

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change docchat configuration.

Settings live in config.toml inside the config directory and can be
overridden with DOCCHAT_* environment variables.`,
	RunE: withSettings(runConfigShow),
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  withSettings(runConfigShow),
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a single configuration value by its dotted key.

Pass "-" as the value to type a secret without echoing it.

Examples:
  docchat config set retrieval.top_k 3
  docchat config set llm.api_key -
  docchat config set vector_store.backend pinecone`,
	Args: cobra.ExactArgs(2),
	RunE: withSettings(runConfigSet),
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List accepted configuration keys",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, k := range services.SettingKeys() {
			cmd.Println(k)
		}
	},
	Annotations: map[string]string{skipBootstrap: "true"},
}

var configEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Choose the embedding provider",
	Long:  `Choose the provider and model used to embed document chunks and questions.`,
	RunE: withSettings(func(cmd *cobra.Command, _ []string, svc driving.SettingsService) error {
		return configureProvider(cmd, bufio.NewReader(stdin), embeddingRole(svc))
	}),
}

var configLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Choose the chat model",
	Long:  `Choose the provider and model that writes chat answers.`,
	RunE: withSettings(func(cmd *cobra.Command, _ []string, svc driving.SettingsService) error {
		return configureProvider(cmd, bufio.NewReader(stdin), llmRole(svc))
	}),
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configEmbeddingCmd)
	configCmd.AddCommand(configLLMCmd)
	rootCmd.AddCommand(configCmd)
}

// withSettings fails fast when the settings service was never wired.
func withSettings(run func(*cobra.Command, []string, driving.SettingsService) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if settingsService == nil {
			return errors.New("settings service not configured")
		}
		return run(cmd, args, settingsService)
	}
}

// field is one "Label: value" line of config show.
type field struct{ label, value string }

func printSection(cmd *cobra.Command, title string, fields ...field) {
	cmd.Printf("[%s]\n", title)
	for _, f := range fields {
		if f.value != "" {
			cmd.Printf("  %s: %s\n", f.label, f.value)
		}
	}
	cmd.Println()
}

func runConfigShow(cmd *cobra.Command, _ []string, svc driving.SettingsService) error {
	s, err := svc.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	printSection(cmd, "Embedding", providerFields(s.Embedding.Provider, s.Embedding.Model,
		s.Embedding.BaseURL, s.Embedding.APIKey, s.Embedding.IsConfigured())...)
	printSection(cmd, "LLM", providerFields(s.LLM.Provider, s.LLM.Model,
		s.LLM.BaseURL, s.LLM.APIKey, s.LLM.IsConfigured())...)

	vs := s.VectorStore
	vectorFields := []field{{"Backend", string(vs.Backend)}, {"Batch Size", strconv.Itoa(vs.BatchSize)}}
	if vs.Backend == domain.VectorBackendPinecone {
		vectorFields = append(vectorFields, field{"Host", vs.Pinecone.Host}, field{"API Key", maskOrUnset(vs.Pinecone.APIKey)})
	}
	printSection(cmd, "Vector Store", vectorFields...)

	obj := s.ObjectStore
	if obj.Backend == domain.ObjectBackendS3 {
		printSection(cmd, "Object Store", field{"Backend", string(obj.Backend)},
			field{"Bucket", obj.Bucket}, field{"Region", obj.Region}, field{"Endpoint", obj.Endpoint})
	} else {
		printSection(cmd, "Object Store", field{"Backend", string(obj.Backend)}, field{"Root", obj.Root})
	}

	var redisAddr string
	if s.Status.Backend == domain.StatusBackendRedis {
		redisAddr = fmt.Sprintf("%s (db %d)", s.Status.Redis.Addr, s.Status.Redis.DB)
	}
	printSection(cmd, "Storage",
		field{"Backend", string(s.Storage.Backend)},
		field{"Data Dir", s.Storage.DataDir},
		field{"Status Backend", string(s.Status.Backend)},
		field{"Redis", redisAddr})

	var rate string
	if s.Ingest.RateLimit > 0 {
		rate = fmt.Sprintf("%.1f/s", s.Ingest.RateLimit)
	}
	printSection(cmd, "Ingest",
		field{"Chunk Size", strconv.Itoa(s.Ingest.ChunkSize)},
		field{"Chunk Overlap", strconv.Itoa(s.Ingest.ChunkOverlap)},
		field{"Concurrency", strconv.Itoa(s.Ingest.Concurrency)},
		field{"Rate Limit", rate})

	printSection(cmd, "Retrieval",
		field{"Top K", strconv.Itoa(s.Retrieval.TopK)},
		field{"Min Score", fmt.Sprintf("%.2f", s.Retrieval.MinScore)},
		field{"Max Context", fmt.Sprintf("%d chars", s.Retrieval.MaxContextChars)})

	if err := svc.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Fix it with 'docchat config set <key> <value>'.")
		return nil
	}
	cmd.Println("No problems found.")
	return nil
}

func providerFields(p domain.AIProvider, model, baseURL, apiKey string, configured bool) []field {
	fields := []field{{"Provider", p.Description()}, {"Model", model}}
	if p.IsLocal() {
		fields = append(fields, field{"Base URL", baseURL})
	}
	if p.RequiresAPIKey() {
		fields = append(fields, field{"API Key", maskOrUnset(apiKey)})
	}
	if !configured {
		fields = append(fields, field{"Status", "incomplete"})
	}
	return fields
}

func runConfigSet(cmd *cobra.Command, args []string, svc driving.SettingsService) error {
	key, value := args[0], args[1]
	secret := services.IsSecretKey(key)

	if value == "-" {
		cmd.Printf("%s: ", key)
		reader := bufio.NewReader(stdin)
		if secret {
			value = readSecret(reader)
		} else {
			value = readLine(reader)
		}
		cmd.Println()
	}

	if err := svc.Set(key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	if secret {
		value = maskAPIKey(value)
	}
	cmd.Printf("%s = %s\n", key, value)
	return nil
}

// providerRole is what differs between the embedding and LLM prompts.
type providerRole struct {
	name      string
	providers []domain.AIProvider
	models    map[domain.AIProvider]string
	apply     func(domain.AIProvider, string, string) error
	check     func() error
	note      string
}

func embeddingRole(svc driving.SettingsService) providerRole {
	return providerRole{
		name:      "embedding",
		providers: domain.AllEmbeddingProviders(),
		models:    domain.DefaultEmbeddingModels(),
		apply:     svc.SetEmbeddingProvider,
		check:     svc.ValidateEmbeddingConfig,
		note:      "Documents indexed with another model must be ingested again.",
	}
}

func llmRole(svc driving.SettingsService) providerRole {
	return providerRole{
		name:      "chat",
		providers: domain.AllLLMProviders(),
		models:    domain.DefaultLLMModels(),
		apply:     svc.SetLLMProvider,
		check:     svc.ValidateLLMConfig,
	}
}

// configureProvider asks for provider, model and key, saves them, then
// checks the provider. Nothing is saved when a required key is blank.
func configureProvider(cmd *cobra.Command, reader *bufio.Reader, role providerRole) error {
	cmd.Printf("Providers for %s:\n", role.name)
	for i, p := range role.providers {
		cmd.Printf("  %d) %s\n", i+1, p.Description())
	}
	cmd.Print("Provider [1]: ")
	selected := role.providers[parseChoice(readLine(reader), len(role.providers), 1)-1]

	model := role.models[selected]
	cmd.Printf("Model [%s]: ", model)
	if custom := readLine(reader); custom != "" {
		model = custom
	}

	var apiKey string
	if selected.RequiresAPIKey() {
		cmd.Printf("%s API key: ", selected)
		apiKey = readSecret(reader)
		cmd.Println()
		if apiKey == "" {
			return fmt.Errorf("%s needs an API key", selected)
		}
	}

	if err := role.apply(selected, model, apiKey); err != nil {
		return fmt.Errorf("save %s provider: %w", role.name, err)
	}

	cmd.Printf("Checking %s... ", selected)
	if err := role.check(); err != nil {
		cmd.Println("failed")
		return fmt.Errorf("%s provider unreachable: %w", role.name, err)
	}
	cmd.Println("ok")

	cmd.Printf("Using %s with %s for %s.\n", model, selected.Description(), role.name)
	if role.note != "" {
		cmd.Println(role.note)
	}
	return nil
}

func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

// parseChoice returns the 1-based menu entry typed in input, or def when
// input is blank or out of range.
func parseChoice(input string, n, def int) int {
	choice, err := strconv.Atoi(input)
	if err != nil || choice < 1 || choice > n {
		return def
	}
	return choice
}

// readSecret reads without echo from a terminal and falls back to reader.
func readSecret(reader *bufio.Reader) string {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if secret, err := term.ReadPassword(int(f.Fd())); err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	return readLine(reader)
}

// maskAPIKey keeps the first and last four characters of keys long enough
// that doing so hides most of them.
func maskAPIKey(key string) string {
	const keep = 4
	if len(key) <= 2*keep {
		return "****"
	}
	return key[:keep] + "..." + key[len(key)-keep:]
}

func maskOrUnset(key string) string {
	if key == "" {
		return "(not set)"
	}
	return maskAPIKey(key)
}
