// internal/garden/genai/client_test.go
package genai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garden-planner/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestClient(t *testing.T, provider, url string) *Client {
	return NewClient(Config{
		Provider:        provider,
		BaseURL:         url,
		Model:           "llama3",
		APIKey:          "secret",
		Temperature:     0.3,
		MaxTokens:       500,
		BreakerFailures: 3,
		BreakerTimeout:  time.Minute,
	}, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestClient_Complete_Ollama(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "llama3", body["model"])
		assert.Equal(t, "describe basil", body["prompt"])
		assert.Equal(t, false, body["stream"])
		options := body["options"].(map[string]interface{})
		assert.Equal(t, 500.0, options["num_predict"])

		json.NewEncoder(w).Encode(map[string]interface{}{"response": `{"name":"Basil"}`, "done": true})
	}))
	defer server.Close()

	c := createTestClient(t, ProviderOllama, server.URL+"/")
	text, err := c.Complete(context.Background(), "describe basil")

	require.NoError(t, err)
	assert.Equal(t, `{"name":"Basil"}`, text)
	assert.Equal(t, "llama3", c.Model())
}

func TestClient_Complete_OpenAI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			MaxTokens int `json:"max_tokens"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "user", body.Messages[0].Role)
		assert.Equal(t, 500, body.MaxTokens)

		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"[1,2]"}}]}`))
	}))
	defer server.Close()

	c := createTestClient(t, ProviderOpenAI, server.URL)
	text, err := c.Complete(context.Background(), "numbers")

	require.NoError(t, err)
	assert.Equal(t, "[1,2]", text)
}

// ==========================
// Error Handling Tests
// ==========================

func TestClient_Complete_EmptyIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"   "}`))
	}))
	defer server.Close()

	c := createTestClient(t, ProviderOllama, server.URL)
	_, err := c.Complete(context.Background(), "x")

	assert.ErrorIs(t, err, ErrEmptyCompletion)
	assert.Equal(t, "empty", Outcome(err))
}

func TestClient_Complete_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c := createTestClient(t, ProviderOllama, server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Complete(ctx, "slow")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "timeout", Outcome(err))
}

func TestClient_Complete_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"response":"ok"}`))
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, Model: "m", MaxRetries: 1}, logger.NewTestLogger(t))
	text, err := c.Complete(context.Background(), "x")

	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_Complete_BreakerOpens(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := createTestClient(t, ProviderOllama, server.URL)
	for i := 0; i < 3; i++ {
		_, err := c.Complete(context.Background(), "x")
		assert.ErrorIs(t, err, ErrCompletionFailed)
	}

	_, err := c.Complete(context.Background(), "x")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Equal(t, "breaker_open", Outcome(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, "open", c.BreakerState())
}

func TestClient_Complete_UnsupportedProvider(t *testing.T) {
	c := createTestClient(t, "bard", "http://127.0.0.1:1")
	_, err := c.Complete(context.Background(), "x")
	assert.ErrorIs(t, err, ErrCompletionFailed)
}

func TestInstrument_PassesThrough(t *testing.T) {
	inner := &stubCompleter{text: "hello"}
	c := Instrument(inner, "tips")

	text, err := c.Complete(context.Background(), "p")
	assert.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, "stub", c.Model())

	inner.err = errors.New("boom")
	_, err = c.Complete(context.Background(), "p")
	assert.EqualError(t, err, "boom")
	assert.Equal(t, "error", Outcome(err))
}

type stubCompleter struct {
	text string
	err  error
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return s.text, s.err
}

func (s *stubCompleter) Model() string { return "stub" }
