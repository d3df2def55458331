package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/llm-email-writer/internal/adapters/openai"
	"github.com/mikey/llm-email-writer/internal/config"
	"github.com/mikey/llm-email-writer/internal/core"
)

// OpenAIFactory creates OpenAI LLM clients
type OpenAIFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewOpenAIFactory creates a new OpenAI factory
func NewOpenAIFactory(cfg *config.Config, logger *zap.Logger) *OpenAIFactory {
	return &OpenAIFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLLMClient creates an OpenAI LLM client
func (f *OpenAIFactory) CreateLLMClient() (core.LLMClient, error) {
	openaiCfg := f.cfg.GetOpenAI()

	return openai.NewOpenAIClient(openai.Options{
		APIKey:      openaiCfg.APIKey,
		BaseURL:     openaiCfg.BaseURL,
		ModelName:   openaiCfg.ModelName,
		MaxTokens:   openaiCfg.MaxTokens,
		Temperature: openaiCfg.Temperature,
		TopP:        openaiCfg.TopP,
	}, f.logger)
}
