package schemas_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
)

func TestGenerationRequest_JSONTags(t *testing.T) {
	req := schemas.GenerationRequest{
		SystemPrompt: "You are a helpful assistant designed to output JSON.",
		UserPrompt:   "Full name: Jane Doe",
		Tier:         schemas.TierFast,
		Options:      schemas.GenerationOptions{ForceJSONFormat: true, MaxTokens: 256},
	}

	raw, err := json.Marshal(req)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "fast", fields["tier"])
	assert.Equal(t, "Full name: Jane Doe", fields["user_prompt"])

	opts, ok := fields["options"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, opts["force_json_format"])
	assert.EqualValues(t, 256, opts["max_tokens"])
	assert.Contains(t, opts, "top_p")
}
