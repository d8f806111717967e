package llmclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
)

// -- Test Setup Helpers --

// setupOpenAIClient points an OpenAIClient at a mock HTTP server with a fast retry policy.
func setupOpenAIClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger, _ := setupTestLogger(t)
	cfg := getValidLLMConfig()
	cfg.Endpoint = server.URL

	client, err := NewOpenAIClient(cfg, logger)
	require.NoError(t, err)
	client.backoffFactory = func() backoff.BackOff {
		return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 3)
	}
	return client
}

func writeCompletion(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	body := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	}
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func createTestRequest() schemas.GenerationRequest {
	return schemas.GenerationRequest{
		SystemPrompt: "You are a helpful assistant designed to output JSON.",
		UserPrompt:   "Full name: Jane Mary Doe",
		Options: schemas.GenerationOptions{
			ForceJSONFormat: true,
		},
	}
}

// -- Test Cases: Initialization --

func TestNewOpenAIClient_MissingAPIKey(t *testing.T) {
	logger, _ := setupTestLogger(t)
	cfg := getValidLLMConfig()
	cfg.APIKey = ""

	client, err := NewOpenAIClient(cfg, logger)
	assert.Nil(t, client)
	assert.ErrorContains(t, err, "OpenAI API Key is required")
}

// -- Test Cases: Generate --

func TestOpenAIClient_Generate_Success(t *testing.T) {
	var captured openAIRequestPayload
	client := setupOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))
		writeCompletion(t, w, `{"first_name":"Jane","middle_name":"Mary","last_name":"Doe"}`)
	})

	out, err := client.Generate(context.Background(), createTestRequest())
	require.NoError(t, err)
	assert.JSONEq(t, `{"first_name":"Jane","middle_name":"Mary","last_name":"Doe"}`, out)

	assert.Equal(t, "test-model", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, "Full name: Jane Mary Doe", captured.Messages[1].Content)
	require.NotNil(t, captured.ResponseFormat)
	assert.Equal(t, "json_object", captured.ResponseFormat.Type)
	assert.Equal(t, 128, captured.MaxTokens)
	assert.InDelta(t, 0.1, captured.Temperature, 0.0001)
}

func TestOpenAIClient_Generate_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	client := setupOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeCompletion(t, w, `{"ok":true}`)
	})

	out, err := client.Generate(context.Background(), createTestRequest())
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOpenAIClient_Generate_PermanentError(t *testing.T) {
	var calls atomic.Int32
	client := setupOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	})

	_, err := client.Generate(context.Background(), createTestRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Equal(t, int32(1), calls.Load(), "permanent errors must not be retried")
}

func TestOpenAIClient_Generate_NoChoices(t *testing.T) {
	client := setupOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := client.Generate(context.Background(), createTestRequest())
	assert.ErrorContains(t, err, "no choices")
}

func TestOpenAIClient_BuildRequestPayload_NoSystemPrompt(t *testing.T) {
	client := setupOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {})
	payload := client.buildRequestPayload(schemas.GenerationRequest{
		UserPrompt: "hello",
		Options:    schemas.GenerationOptions{Temperature: 0.5, MaxTokens: 10},
	})

	require.Len(t, payload.Messages, 1)
	assert.Equal(t, "user", payload.Messages[0].Role)
	assert.Nil(t, payload.ResponseFormat)
	assert.Equal(t, 10, payload.MaxTokens)
	assert.Equal(t, 0.5, payload.Temperature)
}
