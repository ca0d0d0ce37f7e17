package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiSearcher_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"role": "model", "parts": [{"text": "Go has generics since 1.18."}]},
				"groundingMetadata": {
					"groundingChunks": [
						{"web": {"uri": "https://go.dev/blog/intro-generics", "title": "An Introduction To Generics", "domain": "go.dev"}},
						{"web": {"uri": "https://example.com/generics", "title": "", "domain": "example.com"}},
						{"web": {"uri": "https://go.dev/blog/intro-generics", "title": "dup", "domain": "go.dev"}}
					],
					"groundingSupports": [
						{"segment": {"text": "Go has generics since 1.18."}, "groundingChunkIndices": [0]},
						{"segment": {"text": "Type parameters are constrained by interfaces."}, "groundingChunkIndices": [0, 1]}
					]
				}
			}]
		}`))
	}))
	defer server.Close()

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      "g-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: server.URL},
	})
	require.NoError(t, err)

	s, err := NewGeminiSearcher(client, "gemini-2.5-flash", time.Second)
	require.NoError(t, err)

	results, err := s.Search(context.Background(), "go generics", 5)
	require.NoError(t, err)

	want := []Result{
		{
			Title:  "An Introduction To Generics",
			Text:   "Go has generics since 1.18. Type parameters are constrained by interfaces.",
			Source: "https://go.dev/blog/intro-generics",
		},
		{
			Title:  "example.com",
			Text:   "Type parameters are constrained by interfaces.",
			Source: "https://example.com/generics",
		},
	}
	assert.Equal(t, want, results)
}

func TestNewGeminiSearcher_Validation(t *testing.T) {
	_, err := NewGeminiSearcher(nil, "m", 0)
	assert.Error(t, err)
}
