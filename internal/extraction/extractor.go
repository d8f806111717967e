// Package extraction turns short free-text answers into fixed field sets
// with the help of a language model.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/llmutil"
)

// ErrMalformed is returned when the model's answer is not a JSON object of the
// expected shape.
var ErrMalformed = errors.New("malformed extraction payload")

const systemPreamble = "You are a helpful assistant designed to output JSON."

// Fields is the decoded field set. Absent fields read as "".
type Fields map[string]string

// Missing returns the required keys whose value is empty, in the given order.
func (f Fields) Missing(required ...string) []string {
	var missing []string
	for _, key := range required {
		if strings.TrimSpace(f[key]) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

// Extractor decomposes free text into a named field set given an instruction.
type Extractor interface {
	Extract(ctx context.Context, in Instruction, text string) (Fields, error)
}

// LLMExtractor implements Extractor over a language model client.
type LLMExtractor struct {
	client schemas.LLMClient
	logger *zap.Logger

	mu      sync.Mutex
	schemas map[string]*gojsonschema.Schema
}

var _ Extractor = (*LLMExtractor)(nil)

// NewLLMExtractor creates an extractor backed by client.
func NewLLMExtractor(client schemas.LLMClient, logger *zap.Logger) *LLMExtractor {
	return &LLMExtractor{
		client:  client,
		logger:  logger.Named("extractor"),
		schemas: make(map[string]*gojsonschema.Schema),
	}
}

// Extract asks the model to decompose text and validates the returned shape.
// Transport failures are returned as is; shape failures wrap ErrMalformed.
func (e *LLMExtractor) Extract(ctx context.Context, in Instruction, text string) (Fields, error) {
	req := schemas.GenerationRequest{
		SystemPrompt: systemPreamble + "\n\n" + in.Prompt,
		UserPrompt:   in.Query(text),
		Tier:         schemas.TierFast,
		Options: schemas.GenerationOptions{
			ForceJSONFormat: true,
		},
	}

	raw, err := e.client.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s extraction failed: %w", in.Name, err)
	}
	e.logger.Debug("Extraction response received", zap.String("instruction", in.Name), zap.String("raw", raw))

	return e.Decode(in, raw)
}

// Decode parses a raw model answer for the given instruction. Leading and
// trailing code fences are tolerated. Numbers are rendered without a
// fractional part when integral, nulls become "".
func (e *LLMExtractor) Decode(in Instruction, raw string) (Fields, error) {
	payload, err := llmutil.ParseJSONResponse[map[string]any](llmutil.StripFences(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	schema, err := e.schemaFor(in)
	if err != nil {
		return nil, err
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(*payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("%w: %s", ErrMalformed, strings.Join(errs, "; "))
	}

	fields := make(Fields, len(in.Fields))
	for _, key := range in.Fields {
		fields[key] = scalarString((*payload)[key])
	}
	return fields, nil
}

// schemaFor compiles (once) the JSON schema describing the instruction's field set.
func (e *LLMExtractor) schemaFor(in Instruction) (*gojsonschema.Schema, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s, ok := e.schemas[in.Name]; ok {
		return s, nil
	}

	properties := make(map[string]any, len(in.Fields))
	for _, key := range in.Fields {
		properties[key] = map[string]any{
			"type": []string{"string", "number", "null"},
		}
	}
	schemaMap := map[string]any{
		"type":       "object",
		"properties": properties,
	}

	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
	if err != nil {
		return nil, fmt.Errorf("could not compile schema for %s: %w", in.Name, err)
	}
	e.schemas[in.Name] = s
	return s, nil
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
