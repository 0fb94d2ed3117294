package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lunabot/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(&config.Config{
		GeminiAPIKey:      "test-key",
		GeminiModel:       "gemini-pro",
		AIResponseTimeout: 5,
		MaxResponseLength: 200,
	})
	require.NoError(t, err)
	c.baseURL = srv.URL
	return c
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(&config.Config{GeminiModel: "gemini-pro"})
	require.Error(t, err)
}

func TestGenerateContentSendsSystemInstruction(t *testing.T) {
	var got geminiRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-pro")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": "hello fr fr"}}}},
			},
		})
	})

	out, err := c.GenerateContent(context.Background(), "hi", "You are Luna.")
	require.NoError(t, err)
	assert.Equal(t, "hello fr fr", out)

	require.Len(t, got.Contents, 1)
	assert.Equal(t, "hi", got.Contents[0].Parts[0].Text)
	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "You are Luna.", got.SystemInstruction.Parts[0].Text)
}

func TestGenerateContentClampsLongResponses(t *testing.T) {
	long := strings.Repeat("a", 500)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": long}}}},
			},
		})
	})

	out, err := c.GenerateContent(context.Background(), "hi", "")
	require.NoError(t, err)
	assert.Len(t, []rune(out), 200)
	assert.True(t, strings.HasSuffix(out, "..."))
}

func TestGenerateContentSurfacesAPIErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "quota exceeded"},
		})
	})

	_, err := c.GenerateContent(context.Background(), "hi", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGenerateContentHonorsTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	c.timeout = 50 * time.Millisecond

	_, err := c.GenerateContent(context.Background(), "hi", "")
	require.Error(t, err)
}
