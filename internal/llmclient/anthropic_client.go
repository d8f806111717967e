// internal/llmclient/anthropic_client.go
package llmclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/config"
)

const defaultAnthropicMaxTokens = 256

// AnthropicClient implements schemas.LLMClient on top of the Anthropic SDK.
type AnthropicClient struct {
	client sdk.Client
	logger *zap.Logger
	config config.LLMModelConfig
}

// NewAnthropicClient initializes the client.
func NewAnthropicClient(cfg config.LLMModelConfig, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API Key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}
	if cfg.APITimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.APITimeout))
	}

	return &AnthropicClient{
		client: sdk.NewClient(opts...),
		logger: logger.Named("llm_client.anthropic"),
		config: cfg,
	}, nil
}

// Generate sends the prompts to the Messages API and concatenates the text blocks.
func (c *AnthropicClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	maxTokens := int64(req.Options.MaxTokens)
	if maxTokens == 0 {
		maxTokens = int64(c.config.MaxTokens)
	}
	if maxTokens == 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.config.Model),
		MaxTokens: maxTokens,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(req.UserPrompt))},
	}
	if req.SystemPrompt != "" {
		params.System = []sdk.TextBlockParam{{Text: req.SystemPrompt}}
	}
	temperature := req.Options.Temperature
	if temperature == 0 {
		temperature = float64(c.config.Temperature)
	}
	params.Temperature = sdk.Float(temperature)

	startTime := time.Now()
	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic: create message: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("anthropic API returned no text content (stop reason: %s)", msg.StopReason)
	}

	c.logger.Debug("LLM generation complete (Anthropic)",
		zap.Duration("duration", time.Since(startTime)),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
	)
	return sb.String(), nil
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (c *AnthropicClient) Close() error {
	return nil
}
