package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/llm-email-writer/internal/adapters/ollama"
	"github.com/mikey/llm-email-writer/internal/config"
	"github.com/mikey/llm-email-writer/internal/core"
)

// OllamaFactory creates Ollama LLM clients
type OllamaFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewOllamaFactory creates a new Ollama factory
func NewOllamaFactory(cfg *config.Config, logger *zap.Logger) *OllamaFactory {
	return &OllamaFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLLMClient creates an Ollama LLM client
func (f *OllamaFactory) CreateLLMClient() (core.LLMClient, error) {
	ollamaCfg := f.cfg.GetOllama()

	return ollama.NewOllamaClient(
		ollamaCfg.ServerURL,
		ollamaCfg.ModelName,
		ollamaCfg.MaxTokens,
		ollamaCfg.Temperature,
		ollamaCfg.TopP,
		f.logger,
	)
}
