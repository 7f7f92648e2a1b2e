package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/outreach-reply-engine/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRuntime struct {
	lastInput *bedrockruntime.InvokeModelInput
	body      string
	err       error
}

func (f *fakeRuntime) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.lastInput = params
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

func (f *fakeRuntime) payload(t *testing.T) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(f.lastInput.Body, &payload))
	return payload
}

func newClient(runtime InvokeModelAPI, modelID string) *BedrockClient {
	return NewBedrockClient(runtime, config.BedrockConfig{
		ModelID:     modelID,
		MaxTokens:   800,
		Temperature: 0.2,
		TopP:        0.9,
	}, zap.NewNop())
}

func TestGenerateClaudeMessages(t *testing.T) {
	runtime := &fakeRuntime{body: `{"content":[{"type":"text","text":"{\"type\":\"interested\"}"}],"stop_reason":"end_turn"}`}
	client := newClient(runtime, "us.anthropic.claude-3-haiku-20240307-v1:0")

	text, err := client.Generate(context.Background(), "system rules", "the reply")
	require.NoError(t, err)
	assert.Equal(t, `{"type":"interested"}`, text)

	payload := runtime.payload(t)
	assert.Equal(t, anthropicVersion, payload["anthropic_version"])
	assert.Equal(t, "system rules", payload["system"])
	assert.EqualValues(t, 800, payload["max_tokens"])
	assert.Equal(t, "us.anthropic.claude-3-haiku-20240307-v1:0", *runtime.lastInput.ModelId)
}

func TestGenerateLegacyClaude(t *testing.T) {
	runtime := &fakeRuntime{body: `{"completion":" Dear Jane, thank you."}`}
	client := newClient(runtime, "anthropic.claude-v2:1")

	text, err := client.Generate(context.Background(), "system rules", "the reply")
	require.NoError(t, err)
	assert.Equal(t, "Dear Jane, thank you.", text)

	prompt, _ := runtime.payload(t)["prompt"].(string)
	assert.Contains(t, prompt, "\n\nHuman: system rules")
	assert.True(t, len(prompt) > 0 && prompt[len(prompt)-len("Assistant:"):] == "Assistant:")
}

func TestGenerateTitan(t *testing.T) {
	runtime := &fakeRuntime{body: `{"results":[{"outputText":"hello"}]}`}
	text, err := newClient(runtime, "amazon.titan-text-express-v1").Generate(context.Background(), "s", "p")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, "s\n\np", runtime.payload(t)["inputText"])

	runtime.body = `{"results":[]}`
	_, err = newClient(runtime, "amazon.titan-text-express-v1").Generate(context.Background(), "s", "p")
	assert.Error(t, err)
}

func TestGenerateGenericModel(t *testing.T) {
	runtime := &fakeRuntime{body: `{"text":"generic answer"}`}
	text, err := newClient(runtime, "meta.llama3-8b-instruct-v1:0").Generate(context.Background(), "s", "p")
	require.NoError(t, err)
	assert.Equal(t, "generic answer", text)
}

func TestGenerateInvokeError(t *testing.T) {
	runtime := &fakeRuntime{err: errors.New("ThrottlingException")}
	_, err := newClient(runtime, "anthropic.claude-3-haiku-20240307-v1:0").Generate(context.Background(), "s", "p")
	assert.ErrorIs(t, err, runtime.err)
}

func TestGenerateEmptyText(t *testing.T) {
	runtime := &fakeRuntime{body: `{"content":[]}`}
	_, err := newClient(runtime, "anthropic.claude-3-haiku-20240307-v1:0").Generate(context.Background(), "s", "p")
	assert.Error(t, err)
}
