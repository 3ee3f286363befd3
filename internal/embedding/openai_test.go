package embedding

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledge_sync/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func embeddingServer(t *testing.T, calls *atomic.Int32, inputs chan<- string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body struct {
			Input string `json:"input"`
			Model string `json:"model"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "text-embedding-3-small", body.Model)
		if inputs != nil {
			inputs <- body.Input
		}

		if body.Input == "fail" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"bad input","type":"invalid_request_error"}}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"data": [{"object": "embedding", "index": 0, "embedding": [0.25, -0.5, 1]}],
			"model": "text-embedding-3-small",
			"usage": {"prompt_tokens": 3, "total_tokens": 3}
		}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestOpenAI(url string, maxChars int) *OpenAI {
	return NewOpenAI(config.EmbeddingConfig{
		APIKey:   "sk-test",
		BaseURL:  url + "/",
		Model:    "text-embedding-3-small",
		MaxChars: maxChars,
	}, discardLogger())
}

func TestOpenAI_Embed(t *testing.T) {
	var calls atomic.Int32
	srv := embeddingServer(t, &calls, nil)

	got, err := newTestOpenAI(srv.URL, 100).Embed(context.Background(), "pricing deck")

	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, -0.5, 1}, got)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAI_BlankTextSkipsCall(t *testing.T) {
	var calls atomic.Int32
	srv := embeddingServer(t, &calls, nil)

	got, err := newTestOpenAI(srv.URL, 100).Embed(context.Background(), " \n\t ")

	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, calls.Load())
}

func TestOpenAI_TruncatesInput(t *testing.T) {
	var calls atomic.Int32
	inputs := make(chan string, 1)
	srv := embeddingServer(t, &calls, inputs)

	_, err := newTestOpenAI(srv.URL, 5).Embed(context.Background(), "héllo world")

	require.NoError(t, err)
	assert.Equal(t, "héllo", <-inputs)
}

func TestOpenAI_APIError(t *testing.T) {
	var calls atomic.Int32
	srv := embeddingServer(t, &calls, nil)

	_, err := newTestOpenAI(srv.URL, 100).Embed(context.Background(), "fail")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create embedding")
}
