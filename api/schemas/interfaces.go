package schemas

import (
	"context"
	"time"
)

// -- LLM Client Schemas & Interface --

// ModelTier allows for selecting a large language model based on a preference
// for speed versus advanced capabilities.
type ModelTier string

const (
	TierFast ModelTier = "fast" // Prefers a faster, potentially less capable model.
)

// GenerationOptions provides detailed parameters to control the text generation
// process of the LLM, such as creativity (temperature) and output format.
type GenerationOptions struct {
	Temperature     float64 `json:"temperature"`       // Controls randomness. Lower is more deterministic.
	ForceJSONFormat bool    `json:"force_json_format"` // If true, forces the model to output valid JSON.
	TopP            float64 `json:"top_p"`             // Nucleus sampling parameter.
	TopK            int     `json:"top_k"`             // Top-k sampling parameter.
	MaxTokens       int     `json:"max_tokens"`        // Upper bound on completion length. Zero uses the model default.
}

// GenerationRequest encapsulates a complete request to the LLM, including the
// system and user prompts, the desired model tier, and generation options.
type GenerationRequest struct {
	SystemPrompt string            `json:"system_prompt"` // Instructions for the model's persona and task.
	UserPrompt   string            `json:"user_prompt"`   // The specific query or input from the user.
	Tier         ModelTier         `json:"tier"`          // The desired model tier (only fast today).
	Options      GenerationOptions `json:"options"`       // Advanced generation parameters.
}

// LLMClient defines a standard interface for interacting with a Large Language
// Model, abstracting the specifics of the underlying provider.
type LLMClient interface {
	// Generate produces a text completion based on the provided request.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	// Close cleans up any resources held by the client.
	Close() error
}

// -- Page Automation Interface --

// Page is the page automation capability the command flows are written against.
// Every method blocks until the browser has performed the step or the step
// timeout of the implementation expires. Selectors are CSS selectors unless
// stated otherwise.
type Page interface {
	// Navigate loads the given URL and waits for the document body.
	Navigate(ctx context.Context, url string) error
	// Click clicks the first element matching the selector.
	Click(ctx context.Context, selector string) error
	// ClickText clicks the first element matching the selector whose text
	// content contains text. Text matching in ClickText, WaitText and WaitAny
	// ignores case and collapses whitespace.
	ClickText(ctx context.Context, selector, text string) error
	// WaitVisible blocks until an element matching the selector is visible.
	WaitVisible(ctx context.Context, selector string) error
	// WaitText blocks until an element matching the selector contains text.
	WaitText(ctx context.Context, selector, text string) error
	// WaitAny blocks until one of the given texts appears in an element
	// matching selector, and returns the index of the text that matched.
	WaitAny(ctx context.Context, selector string, texts ...string) (int, error)
	// Text returns the trimmed text content of the first matching element.
	Text(ctx context.Context, selector string) (string, error)
	// Attribute returns the named attribute of the first matching element,
	// and false when the attribute is not set.
	Attribute(ctx context.Context, selector, name string) (string, bool, error)
	// OuterHTML returns the outer HTML of the first matching element.
	OuterHTML(ctx context.Context, selector string) (string, error)
	// Clear empties the value of an input element.
	Clear(ctx context.Context, selector string) error
	// TypeText types text into the element one key at a time with the given delay.
	TypeText(ctx context.Context, selector, text string, delay time.Duration) error
	// TableRows returns the trimmed th and td texts of every row matching
	// rowSelector without waiting. No match yields an empty slice.
	TableRows(ctx context.Context, rowSelector string) ([][]string, error)
	// FillByLabel types value into the input that follows the label whose
	// text contains label, one key at a time with the given delay. path is an
	// XPath relative to the label; an empty path selects the following
	// sibling input.
	FillByLabel(ctx context.Context, label, path, value string, delay time.Duration) error
	// SelectByLabel chooses the option with the given visible text in the
	// select element that follows the label whose text contains label.
	SelectByLabel(ctx context.Context, label, option string) error
	// SelectIndex chooses the option at index in the matching select element.
	SelectIndex(ctx context.Context, selector string, index int) error
	// Sleep pauses for d, honouring ctx.
	Sleep(ctx context.Context, d time.Duration) error
	// Close releases the browser tab.
	Close(ctx context.Context) error
}
