package services

import (
	"context"
	"errors"
	"hash/fnv"
	"io"
	"sync"

	vsmemory "github.com/custodia-labs/docchat/internal/adapters/driven/vectorstore/memory"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// --- Shared mock implementations for pipeline tests ---

// mockEmbedder returns fixed vectors for known texts and a hash-derived
// vector otherwise.
type mockEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	failOn  string
	err     error
	calls   int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil && (m.failOn == "" || m.failOn == text) {
		return nil, m.err
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	sum := h.Sum32()
	return []float32{float32(sum%97) + 1, float32(sum%89) + 1, float32(sum%83) + 1}, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return 3 }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockObjectStore is an in-memory object store.
type mockObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	getErr  error
}

func newMockObjectStore() *mockObjectStore {
	return &mockObjectStore{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *mockObjectStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	b, ok := m.objects[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

func (m *mockObjectStore) Put(_ context.Context, key string, r io.Reader, contentType string) error {
	buf, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = buf
	m.types[key] = contentType
	return nil
}

func (m *mockObjectStore) URL(key string) string { return "file:///objects/" + key }

// mockExtractor returns fixed pages.
type mockExtractor struct {
	pages []domain.Page
	err   error
}

func (m *mockExtractor) Extract(_ context.Context, _ []byte) ([]domain.Page, error) {
	return m.pages, m.err
}

// flakyVectorStore wraps the memory store and fails selected upsert calls.
type flakyVectorStore struct {
	*vsmemory.Store

	mu          sync.Mutex
	upsertCalls int
	failCalls   map[int]bool
	queryErr    error
}

func newFlakyVectorStore(failCalls ...int) *flakyVectorStore {
	f := &flakyVectorStore{Store: vsmemory.NewStore(), failCalls: make(map[int]bool)}
	for _, c := range failCalls {
		f.failCalls[c] = true
	}
	return f
}

var errBackend = errors.New("backend unavailable")

func (f *flakyVectorStore) Upsert(ctx context.Context, namespace string, entries []domain.VectorEntry) error {
	f.mu.Lock()
	f.upsertCalls++
	fail := f.failCalls[f.upsertCalls]
	f.mu.Unlock()
	if fail {
		return errBackend
	}
	return f.Store.Upsert(ctx, namespace, entries)
}

func (f *flakyVectorStore) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]domain.VectorMatch, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.Store.Query(ctx, namespace, vector, topK)
}

func (f *flakyVectorStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upsertCalls
}

// mockLLM streams a fixed list of deltas, optionally failing after failAfter.
type mockLLM struct {
	mu        sync.Mutex
	deltas    []string
	failAfter int
	err       error
	received  [][]driven.ChatMessage
	block     chan struct{}
}

func (m *mockLLM) Chat(ctx context.Context, msgs []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	chunks, errs := m.StreamChat(ctx, msgs, opts)
	var s string
	for c := range chunks {
		s += c
	}
	return s, <-errs
}

func (m *mockLLM) StreamChat(ctx context.Context, msgs []driven.ChatMessage, _ driven.ChatOptions) (<-chan string, <-chan error) {
	m.mu.Lock()
	m.received = append(m.received, msgs)
	m.mu.Unlock()

	out := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		for i, d := range m.deltas {
			if m.err != nil && i == m.failAfter {
				errs <- m.err
				return
			}
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			case out <- d:
			}
		}
		if m.block != nil {
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
			case <-m.block:
			}
			return
		}
		if m.err != nil && m.failAfter >= len(m.deltas) {
			errs <- m.err
		}
	}()

	return out, errs
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

func (m *mockLLM) lastPrompt() []driven.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.received) == 0 {
		return nil
	}
	return m.received[len(m.received)-1]
}

// failingConversationStore rejects every append.
type failingConversationStore struct {
	driven.ConversationStore
	err error
}

func (f *failingConversationStore) AppendMessages(_ context.Context, _ int64, _ ...domain.Message) error {
	return f.err
}
