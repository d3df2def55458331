package ollama

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-writer/internal/core"
)

// OllamaClient is an implementation of the LLMClient interface backed by a
// local Ollama server through langchaingo
type OllamaClient struct {
	model       llms.Model
	modelName   string
	maxTokens   int
	temperature float64
	topP        float64
	logger      *zap.Logger
}

var _ core.LLMClient = (*OllamaClient)(nil)

// NewOllamaClient creates a new Ollama client
func NewOllamaClient(
	serverURL string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) (*OllamaClient, error) {
	opts := []ollama.Option{ollama.WithModel(modelName)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}

	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}

	return newOllamaClient(llm, modelName, maxTokens, temperature, topP, logger), nil
}

func newOllamaClient(model llms.Model, modelName string, maxTokens int, temperature, topP float32, logger *zap.Logger) *OllamaClient {
	return &OllamaClient{
		model:       model,
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: float64(temperature),
		topP:        float64(topP),
		logger:      logger,
	}
}

// Complete generates a reply from a single prompt
func (c *OllamaClient) Complete(ctx context.Context, prompt string) (*core.Completion, error) {
	text, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt,
		llms.WithMaxTokens(c.maxTokens),
		llms.WithTemperature(c.temperature),
		llms.WithTopP(c.topP),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with Ollama: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty response from Ollama: %w", core.ErrEmptyCompletion)
	}

	c.logger.Debug("Ollama completion",
		zap.String("model", c.modelName),
		zap.Int("length", len(text)))

	return &core.Completion{
		Text:      text,
		ModelUsed: c.modelName,
	}, nil
}
