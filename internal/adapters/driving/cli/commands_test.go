package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "docchat", rootCmd.Use)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "upload", "ingest", "status", "retrieve", "chat", "ask", "tui", "watch", "mcp", "config", "version"} {
		assert.True(t, names[want], "missing command %q", want)
	}
}

func TestRootCmd_SkipsBootstrapForVersion(t *testing.T) {
	called := false
	SetBootstrap(func(_ context.Context, _ string) (Services, func(), error) {
		called = true
		return Services{}, func() {}, nil
	})
	defer SetBootstrap(nil)

	_, _, err := execute(t, "version")

	require.NoError(t, err)
	assert.False(t, called)
}

func TestVersionCmd(t *testing.T) {
	old := version
	defer func() { version = old }()

	for _, v := range []string{"dev", "1.4.2"} {
		version = v
		out, _, err := execute(t, "version")
		require.NoError(t, err)
		assert.Equal(t, "docchat version "+v+"\n", out)
	}
}

func TestRootCmd_BootstrapInstallsServices(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	installed := mocks

	released := false
	SetBootstrap(func(_ context.Context, dir string) (Services, func(), error) {
		assert.Equal(t, "/tmp/docchat-test", dir)
		return Services{Conversation: installed.conversation}, func() { released = true }, nil
	})
	defer func() {
		SetBootstrap(nil)
		configDir = ""
	}()

	out, _, err := execute(t, "--config", "/tmp/docchat-test", "chat", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "report.pdf")
	assert.True(t, released)
}

func TestRootCmd_BootstrapError(t *testing.T) {
	SetBootstrap(func(_ context.Context, _ string) (Services, func(), error) {
		return Services{}, nil, errors.New("redis unreachable")
	})
	defer SetBootstrap(nil)

	_, _, err := execute(t, "chat", "list")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "initialising services")
	assert.Contains(t, err.Error(), "redis unreachable")
}

func TestUploadCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 test"), 0600))

	out, _, err := execute(t, "upload", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Uploaded: report.pdf")
	assert.Contains(t, out, "uploads/1714564800000report.pdf")
	assert.Equal(t, []byte("%PDF-1.4 test"), mocks.conversation.uploaded["uploads/1714564800000report.pdf"])
	assert.Empty(t, mocks.conversation.created)
}

func TestUploadCmd_WithChat(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	path := filepath.Join(t.TempDir(), "notes.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0600))
	defer func() { uploadChat = false }()

	out, _, err := execute(t, "upload", "--chat", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Chat:     2")
	assert.Equal(t, []string{"uploads/1714564800000notes.pdf"}, mocks.conversation.created)
}

func TestUploadCmd_MissingFile(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, _, err := execute(t, "upload", filepath.Join(t.TempDir(), "missing.pdf"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open file")
}

func TestIngestCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, _, err := execute(t, "ingest", "uploads/1714564800000report.pdf")

	require.NoError(t, err)
	assert.Contains(t, out, "Ingested uploads/1714564800000report.pdf")
	assert.Contains(t, out, "Chunks:      12")
	assert.Contains(t, out, "page 1")
}

func TestIngestCmd_Reindex(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { ingestReindex = false }()

	_, _, err := execute(t, "ingest", "--reindex", "uploads/1714564800000report.pdf")

	require.NoError(t, err)
	require.Len(t, mocks.ingestion.calls, 1)
	assert.True(t, mocks.ingestion.calls[0].Reindex)
}

func TestIngestCmd_NonRetryableFailure(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.ingestion.errs = []error{&domain.FetchError{Key: "k", Err: domain.ErrNotFound}}

	_, _, err := execute(t, "ingest", "k")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingestion failed (fetch)")
	assert.Len(t, mocks.ingestion.calls, 1)
}

func TestIngestCmd_NegativeRetries(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { ingestRetries = 3 }()

	_, _, err := execute(t, "ingest", "--retries", "-1", "k")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be negative")
}

func TestStatusCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, _, err := execute(t, "status", "uploads/1714564800000report.pdf")
	require.NoError(t, err)
	assert.Contains(t, out, "State:     done")
	assert.Contains(t, out, "Batches:   2")
	assert.Contains(t, out, "Vectors:   12")

	out, _, err = execute(t, "status", "uploads/other.pdf")
	require.NoError(t, err)
	assert.Contains(t, out, "has not been ingested")
}

func TestRetrieveCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, _, err := execute(t, "retrieve", "key", "revenue")

	require.NoError(t, err)
	assert.Contains(t, out, "Matches:")
	assert.Contains(t, out, "[1] page 3 (0.91)")
	assert.Contains(t, out, "Revenue grew 12%.")
}

func TestRetrieveCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { retrieveJSON = false }()

	out, _, err := execute(t, "retrieve", "--json", "key", "revenue")

	require.NoError(t, err)
	assert.Contains(t, out, `"pageNumber": 3`)
	assert.Contains(t, out, `"score": 0.91`)
}

func TestRetrieveCmd_NoMatches(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.retrieval.matches = nil

	out, _, err := execute(t, "retrieve", "key", "weather")

	require.NoError(t, err)
	assert.Contains(t, out, "No relevant context found.")
}

func TestRetrieveCmd_ServiceNotConfigured(t *testing.T) {
	old := retrievalService
	retrievalService = nil
	defer func() { retrievalService = old }()

	_, _, err := execute(t, "retrieve", "key", "q")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieval service not configured")
}

func TestRetrieveCmd_RequiresTwoArgs(t *testing.T) {
	_, _, err := execute(t, "retrieve", "key")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg(s)")
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", snippet("short"))
	long := strings.Repeat("é", snippetLen+5)
	got := snippet(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, snippetLen+3, len([]rune(got)))
}

func TestChatNewCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { chatName = "" }()

	out, _, err := execute(t, "chat", "new", "uploads/x.pdf", "--name", "Annual report")

	require.NoError(t, err)
	assert.Contains(t, out, "Created chat 2 on Annual report")
	assert.Contains(t, out, "docchat ask 2")
}

func TestChatNewCmd_IngestionFailure(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.conversation.createErr = &domain.IndexWriteError{Namespace: "ns", BatchIndex: 1, Err: errors.New("quota")}

	_, _, err := execute(t, "chat", "new", "uploads/x.pdf")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "(index_write)")
}

func TestChatListCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, _, err := execute(t, "chat", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "[1] report.pdf")
	assert.Contains(t, out, "Key: uploads/1714564800000report.pdf")
}

func TestChatListCmd_Empty(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.conversation.conversations = map[int64]domain.Conversation{}

	out, _, err := execute(t, "chat", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No chats yet")
}

func TestChatMessagesCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, _, err := execute(t, "chat", "messages", "1")

	require.NoError(t, err)
	assert.Contains(t, out, "You: What is this?")
	assert.Contains(t, out, "Assistant: A quarterly report.")
}

func TestChatMessagesCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { chatJSON = false }()

	out, _, err := execute(t, "chat", "messages", "--json", "1")

	require.NoError(t, err)
	assert.Contains(t, out, `"role": "assistant"`)
	assert.Contains(t, out, `"conversationId": 1`)
}

func TestChatMessagesCmd_UnknownChat(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, _, err := execute(t, "chat", "messages", "42")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestParseChatID(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{input: "1", want: 1},
		{input: "9001", want: 9001},
		{input: "0", wantErr: true},
		{input: "-3", wantErr: true},
		{input: "abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseChatID(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAskCmd_StreamsAnswer(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, _, err := execute(t, "ask", "1", "How did revenue change?")

	require.NoError(t, err)
	assert.Contains(t, out, "Revenue grew 12%.")
	assert.Equal(t, []string{"How did revenue change?"}, mocks.chat.asked)
}

func TestAskCmd_PersistenceWarning(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.chat.err = &domain.PersistenceError{ConversationID: 1, Err: errors.New("disk full")}

	out, errOut, err := execute(t, "ask", "1", "q")

	require.NoError(t, err)
	assert.Contains(t, out, "Revenue grew 12%.")
	assert.Contains(t, errOut, "answer not saved")
}

func TestAskCmd_StreamFailure(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.chat.deltas = []string{"Rev"}
	mocks.chat.err = &domain.CompletionStreamError{Emitted: 1, Err: errors.New("connection reset")}

	_, _, err := execute(t, "ask", "1", "q")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "completion_stream")
}

func TestAskCmd_UnknownChat(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, _, err := execute(t, "ask", "7", "q")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, mocks.chat.asked)
}

func TestConfigShowCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, _, err := execute(t, "config", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "[Embedding]")
	assert.Contains(t, out, "Ollama (local)")
	assert.Contains(t, out, "Top K: 5")
	assert.Contains(t, out, "No problems found.")
	assert.NotContains(t, out, "Status: incomplete")
}

func TestConfigShowCmd_MasksPineconeKey(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.settings.settings.VectorStore.Backend = domain.VectorBackendPinecone
	mocks.settings.settings.VectorStore.Pinecone.APIKey = "pcsk_1234567890abcd"
	mocks.settings.validateErr = errors.New("pinecone host is required")

	out, _, err := execute(t, "config", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "pcsk...abcd")
	assert.NotContains(t, out, "pcsk_1234567890abcd")
	assert.Contains(t, out, "Warning: pinecone host is required")
}

func TestConfigSetCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, _, err := execute(t, "config", "set", "retrieval.top_k", "3")

	require.NoError(t, err)
	assert.Contains(t, out, "retrieval.top_k = 3")
	assert.Equal(t, "3", mocks.settings.set["retrieval.top_k"])
}

func TestConfigSetCmd_SecretFromStdin(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	oldStdin := stdin
	stdin = strings.NewReader("sk-abcdefghijklmnop\n")
	defer func() { stdin = oldStdin }()

	out, _, err := execute(t, "config", "set", "llm.api_key", "-")

	require.NoError(t, err)
	assert.Equal(t, "sk-abcdefghijklmnop", mocks.settings.set["llm.api_key"])
	assert.Contains(t, out, "sk-a...mnop")
	assert.NotContains(t, out, "sk-abcdefghijklmnop")
}

func TestConfigSetCmd_UnknownKey(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, _, err := execute(t, "config", "set", "unknown.key", "x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "set unknown.key")
}

func TestConfigKeysCmd(t *testing.T) {
	out, _, err := execute(t, "config", "keys")

	require.NoError(t, err)
	assert.Contains(t, out, "retrieval.top_k")
	assert.Contains(t, out, "vector_store.pinecone.host")
}

func TestConfigLLMCmd_Interactive(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	oldStdin := stdin
	// anthropic, default model, api key
	stdin = strings.NewReader("3\n\nsk-ant-1234567890\n")
	defer func() { stdin = oldStdin }()

	out, _, err := execute(t, "config", "llm")

	require.NoError(t, err)
	assert.Contains(t, out, "with Anthropic (cloud) for chat.")
	assert.Equal(t, domain.AIProviderAnthropic, mocks.settings.settings.LLM.Provider)
	assert.Equal(t, "sk-ant-1234567890", mocks.settings.settings.LLM.APIKey)
}
