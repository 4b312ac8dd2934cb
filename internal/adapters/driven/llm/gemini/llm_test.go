package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// chunk writes one streamGenerateContent event. A non-empty reason marks
// the last chunk of the answer.
func chunk(w http.ResponseWriter, text, reason string) {
	_, _ = fmt.Fprintf(w, "data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[{\"text\":%q}]},\"finishReason\":%q}]}\r\n\r\n", text, reason)
}

func TestService_StreamChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-1.5-pro:streamGenerateContent", r.URL.Path)
		assert.Equal(t, "sse", r.URL.Query().Get("alt"))
		assert.Equal(t, "gk", r.Header.Get("x-goog-api-key"))

		var req generateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if assert.NotNil(t, req.SystemInstruction) {
			assert.Equal(t, "ctx", req.SystemInstruction.Parts[0].Text)
		}
		if assert.Len(t, req.Contents, 3) {
			assert.Equal(t, "user", req.Contents[0].Role)
			assert.Equal(t, "model", req.Contents[1].Role)
		}

		chunk(w, "Paris", "")
		chunk(w, " is the capital", "")
		chunk(w, " of France.", "STOP")
	}))
	defer server.Close()

	svc, err := New(Config{APIKey: "gk", BaseURL: server.URL})
	require.NoError(t, err)

	chunks, errs := svc.StreamChat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "ctx"},
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "user", Content: "capital?"},
	}, driven.ChatOptions{})

	var got []string
	for c := range chunks {
		got = append(got, c)
	}
	require.NoError(t, <-errs)
	assert.Equal(t, []string{"Paris", " is the capital", " of France."}, got)
}

func TestService_StreamChat_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"API key not valid"}}`, http.StatusBadRequest)
	}))
	defer server.Close()

	svc, err := New(Config{APIKey: "bad", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = svc.Chat(context.Background(), []driven.ChatMessage{{Role: "user", Content: "q"}}, driven.ChatOptions{})
	assert.ErrorContains(t, err, "API key not valid")
}

func TestService_StreamChat_CutOff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		chunk(w, "Paris", "")
		chunk(w, " is the", "")
	}))
	defer server.Close()

	svc, err := New(Config{APIKey: "gk", BaseURL: server.URL})
	require.NoError(t, err)

	reply, err := svc.Chat(context.Background(), []driven.ChatMessage{{Role: "user", Content: "q"}}, driven.ChatOptions{})

	assert.Equal(t, "Paris is the", reply)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestNew(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	svc, err := New(Config{APIKey: "k", Model: "models/gemini-1.5-flash"})
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-flash", svc.ModelName())
}
