package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-writer/internal/core"
)

type fakeInvoker struct {
	body    []byte
	err     error
	lastIn  *bedrockruntime.InvokeModelInput
	payload map[string]interface{}
}

func (f *fakeInvoker) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.lastIn = params
	f.payload = map[string]interface{}{}
	if err := json.Unmarshal(params.Body, &f.payload); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: f.body}, nil
}

func TestCompleteAnthropic(t *testing.T) {
	fake := &fakeInvoker{body: []byte(`{"content":[{"type":"text","text":"Sounds good, "},{"type":"text","text":"thanks!"}],"stop_reason":"end_turn"}`)}
	client := newBedrockClient(fake, "anthropic.claude-3-haiku-20240307-v1:0", 500, 0.5, 0.9, zap.NewNop())

	completion, err := client.Complete(context.Background(), "reply please")
	require.NoError(t, err)
	assert.Equal(t, "Sounds good, thanks!", completion.Text)
	assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", completion.ModelUsed)

	assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", aws.ToString(fake.lastIn.ModelId))
	assert.Equal(t, anthropicVersion, fake.payload["anthropic_version"])
	assert.EqualValues(t, 500, fake.payload["max_tokens"])
	messages, ok := fake.payload["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 1)
	assert.Equal(t, "reply please", messages[0].(map[string]interface{})["content"])
}

func TestCompleteCrossRegionAnthropicProfile(t *testing.T) {
	fake := &fakeInvoker{body: []byte(`{"content":[{"type":"text","text":"ok"}]}`)}
	client := newBedrockClient(fake, "us.anthropic.claude-3-5-sonnet-20240620-v1:0", 100, 0.5, 0.9, zap.NewNop())

	_, err := client.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, anthropicVersion, fake.payload["anthropic_version"])
}

func TestCompleteTitan(t *testing.T) {
	fake := &fakeInvoker{body: []byte(`{"results":[{"outputText":"Hi there"}]}`)}
	client := newBedrockClient(fake, "amazon.titan-text-express-v1", 300, 0.7, 0.9, zap.NewNop())

	completion, err := client.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Hi there", completion.Text)

	cfg, ok := fake.payload["textGenerationConfig"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 300, cfg["maxTokenCount"])
}

func TestCompleteTitanNoResults(t *testing.T) {
	fake := &fakeInvoker{body: []byte(`{"results":[]}`)}
	client := newBedrockClient(fake, "amazon.titan-text-express-v1", 300, 0.7, 0.9, zap.NewNop())

	_, err := client.Complete(context.Background(), "prompt")
	assert.ErrorIs(t, err, core.ErrEmptyCompletion)
}

func TestCompleteGeneric(t *testing.T) {
	fake := &fakeInvoker{body: []byte(`{"generation":"Generic reply"}`)}
	client := newBedrockClient(fake, "meta.llama3-8b-instruct-v1:0", 200, 0.7, 0.9, zap.NewNop())

	completion, err := client.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Generic reply", completion.Text)
	assert.Contains(t, fake.payload["prompt"], "prompt")
}

func TestCompleteEmptyAnthropic(t *testing.T) {
	fake := &fakeInvoker{body: []byte(`{"content":[]}`)}
	client := newBedrockClient(fake, "anthropic.claude-3-haiku-20240307-v1:0", 100, 0.5, 0.9, zap.NewNop())

	_, err := client.Complete(context.Background(), "prompt")
	assert.ErrorIs(t, err, core.ErrEmptyCompletion)
}

func TestCompleteInvokeError(t *testing.T) {
	invokeErr := errors.New("throttled")
	fake := &fakeInvoker{err: invokeErr}
	client := newBedrockClient(fake, "anthropic.claude-3-haiku-20240307-v1:0", 100, 0.5, 0.9, zap.NewNop())

	_, err := client.Complete(context.Background(), "prompt")
	assert.ErrorIs(t, err, invokeErr)
}
