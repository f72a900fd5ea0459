package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feyti/medreport/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&config.OpenAIConfig{APIKey: "sk-test", BaseURL: server.URL, RateLimitRPM: -1})
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(&config.OpenAIConfig{})
	assert.Error(t, err)
}

func TestTranslate(t *testing.T) {
	var payload map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/responses", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"output":[{"content":[{"type":"output_text","text":"Le patient s'est rétabli"}]}]}`))
	})

	out, err := client.Translate(context.Background(), "The patient recovered", "fr")

	require.NoError(t, err)
	assert.Equal(t, "Le patient s'est rétabli", out)
	assert.Equal(t, "gpt-4o-mini", payload["model"])
	input := payload["input"].([]interface{})
	assert.Contains(t, input[1].(map[string]interface{})["content"], "Target language: French")
}

func TestTranslate_Unauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Translate(context.Background(), "text", "sw")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTranslate_EmptyOutput(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output":[]}`))
	})

	_, err := client.Translate(context.Background(), "text", "sw")
	assert.Error(t, err)
}

func TestCleanOutput(t *testing.T) {
	assert.Equal(t, "Bonjour", cleanOutput("```text\nBonjour\n```"))
	assert.Equal(t, "Bonjour", cleanOutput("```Bonjour```"))
	assert.Equal(t, "Habari", cleanOutput("  Habari \n"))
}
