package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastClient() *Client {
	return New(Config{Backoff: time.Millisecond, MaxRetries: 2, Headers: map[string]string{"X-Client": "docchat"}})
}

func TestClient_DoJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "docchat", r.Header.Get("X-Client"))
		assert.Equal(t, "secret", r.Header.Get("Api-Key"))

		var in map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["msg"]})
	}))
	defer server.Close()

	var out map[string]string
	err := fastClient().DoJSON(context.Background(), http.MethodPost, server.URL,
		map[string]string{"Api-Key": "secret"}, map[string]string{"msg": "hi"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "hi", out["echo"])
}

func TestClient_DoJSON_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	var out struct{ OK bool }
	err := fastClient().DoJSON(context.Background(), http.MethodPost, server.URL, nil, struct{}{}, &out)

	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoJSON_PermanentStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	err := fastClient().DoJSON(context.Background(), http.MethodGet, server.URL, nil, nil, nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Equal(t, "bad key", statusErr.Body)
	assert.False(t, statusErr.Temporary())
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_DoJSON_GivesUp(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := fastClient().DoJSON(context.Background(), http.MethodGet, server.URL, nil, nil, nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, int32(3), calls.Load(), "one attempt plus two retries")
}

func TestClient_NoRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := New(Config{MaxRetries: -1})
	err := c.DoJSON(context.Background(), http.MethodGet, server.URL, nil, nil, nil)

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Stream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("line one\nline two\n"))
	}))
	defer server.Close()

	body, err := fastClient().Stream(context.Background(), http.MethodPost, server.URL, nil, map[string]bool{"stream": true})
	require.NoError(t, err)
	defer body.Close()

	b, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", string(b))
}

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := fastClient()
	assert.NoError(t, c.Get(context.Background(), server.URL+"/ok", nil))

	var statusErr *StatusError
	assert.ErrorAs(t, c.Get(context.Background(), server.URL+"/missing", nil), &statusErr)
}

func TestReadSSE(t *testing.T) {
	body := strings.Join([]string{
		": keep-alive",
		"event: message_start",
		"data: {\"a\":1}",
		"",
		"data: first",
		"data: second",
		"",
		"data: [DONE]",
	}, "\n")

	var events []Event
	err := ReadSSE(strings.NewReader(body), func(e Event) error {
		events = append(events, e)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []Event{
		{Name: "message_start", Data: `{"a":1}`},
		{Data: "first\nsecond"},
		{Data: "[DONE]"},
	}, events)
}

func TestReadSSE_StopsOnCallbackError(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	err := ReadSSE(strings.NewReader("data: a\n\ndata: b\n\n"), func(Event) error {
		calls++
		return stop
	})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestReadLines(t *testing.T) {
	var lines []string
	err := ReadLines(strings.NewReader("{\"a\":1}\n\n  \n{\"b\":2}"), func(b []byte) error {
		lines = append(lines, string(b))
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{`{"a":1}`, `{"b":2}`}, lines)
}

func TestSend(t *testing.T) {
	out := make(chan string, 1)
	require.NoError(t, Send(context.Background(), out, "x"))
	require.NoError(t, Send(context.Background(), out, ""), "empty deltas are dropped")
	assert.Equal(t, "x", <-out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Send(ctx, make(chan string), "y"), context.Canceled)
}
