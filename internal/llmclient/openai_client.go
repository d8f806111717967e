// internal/llmclient/openai_client.go
package llmclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/config"
)

const defaultOpenAIEndpoint = "https://api.openai.com/v1"

// OpenAIClient implements schemas.LLMClient for OpenAI compatible chat completion APIs.
type OpenAIClient struct {
	client *resty.Client
	logger *zap.Logger
	config config.LLMModelConfig

	// backoffFactory builds the retry policy for one Generate call.
	backoffFactory func() backoff.BackOff
}

// -- Chat Completions Request/Response Structures (Internal to this file) --
type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIRequestPayload struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	Temperature    float64               `json:"temperature"`
	TopP           float64               `json:"top_p,omitempty"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIResponsePayload struct {
	Choices []struct {
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// NewOpenAIClient initializes the client.
func NewOpenAIClient(cfg config.LLMModelConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API Key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultOpenAIEndpoint
	}

	client := resty.New().
		SetBaseURL(endpoint).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.APITimeout)

	maxElapsed := cfg.MaxRetryElapsed
	if maxElapsed <= 0 {
		maxElapsed = time.Minute
	}

	return &OpenAIClient{
		client: client,
		logger: logger.Named("llm_client.openai"),
		config: cfg,
		backoffFactory: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = maxElapsed
			b.MaxInterval = 10 * time.Second
			return b
		},
	}, nil
}

// Generate sends the prompts to the chat completions endpoint with retries on
// transient failures.
func (c *OpenAIClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	payload := c.buildRequestPayload(req)
	var content string

	operation := func() error {
		var out openAIResponsePayload
		startTime := time.Now()
		resp, err := c.client.R().
			SetContext(ctx).
			SetBody(payload).
			SetResult(&out).
			Post("/chat/completions")
		duration := time.Since(startTime)

		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			c.logger.Warn("Network error during LLM request, retrying...", zap.Error(err))
			return fmt.Errorf("failed to execute HTTP request: %w", err)
		}

		if resp.StatusCode() != http.StatusOK {
			return c.handleAPIError(resp.StatusCode(), resp.Body())
		}

		if len(out.Choices) == 0 {
			return backoff.Permanent(fmt.Errorf("openai API returned no choices"))
		}

		c.logger.Debug("LLM generation complete (OpenAI)",
			zap.Duration("duration", duration),
			zap.String("finish_reason", out.Choices[0].FinishReason),
			zap.Int("prompt_tokens", out.Usage.PromptTokens),
			zap.Int("completion_tokens", out.Usage.CompletionTokens),
			zap.Int("total_tokens", out.Usage.TotalTokens),
		)

		content = out.Choices[0].Message.Content
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(c.backoffFactory(), ctx)); err != nil {
		return "", err
	}
	return content, nil
}

func (c *OpenAIClient) buildRequestPayload(req schemas.GenerationRequest) openAIRequestPayload {
	temperature := req.Options.Temperature
	if temperature == 0 {
		temperature = float64(c.config.Temperature)
	}
	maxTokens := req.Options.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.MaxTokens
	}

	messages := make([]openAIMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, openAIMessage{Role: "user", Content: req.UserPrompt})

	payload := openAIRequestPayload{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: temperature,
		TopP:        req.Options.TopP,
		MaxTokens:   maxTokens,
	}
	if req.Options.ForceJSONFormat {
		payload.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
	}
	return payload
}

func (c *OpenAIClient) handleAPIError(statusCode int, body []byte) error {
	c.logger.Error("OpenAI API returned error status", zap.Int("status", statusCode), zap.String("response", string(body)))
	err := fmt.Errorf("openai API error: status %d, body: %s", statusCode, string(body))

	switch statusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusInternalServerError, http.StatusBadGateway:
		return err // Transient errors, retry.
	default:
		return backoff.Permanent(err)
	}
}

// Close is a no-op; resty holds no resources that need releasing.
func (c *OpenAIClient) Close() error {
	return nil
}
