package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-writer/internal/api"
	"github.com/mikey/llm-email-writer/internal/config"
	"github.com/mikey/llm-email-writer/internal/core"
	"github.com/mikey/llm-email-writer/internal/factory"
	"github.com/mikey/llm-email-writer/internal/logging"
	"github.com/mikey/llm-email-writer/internal/ports"
	"github.com/mikey/llm-email-writer/internal/tone"
	"github.com/mikey/llm-email-writer/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	return buildContainer(config.New)
}

func buildContainer(newConfig func() (*config.Config, error)) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(newConfig); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	for _, constructor := range []interface{}{
		factory.NewLLMFactory,
		factory.NewCacheFactory,
		factory.NewMetricsFactory,
		factory.NewServerFactory,
	} {
		if err := container.Provide(constructor); err != nil {
			return nil, err
		}
	}

	// Register LLM client
	if err := container.Provide(func(f *factory.LLMFactory) (core.LLMClient, error) {
		return f.CreateLLMClient()
	}); err != nil {
		return nil, err
	}

	// Register cache repository, nil when caching is disabled
	if err := container.Provide(func(f *factory.CacheFactory) (core.CacheRepository, error) {
		return f.CreateCacheRepository()
	}); err != nil {
		return nil, err
	}

	// Register generator options
	if err := container.Provide(func(f *factory.CacheFactory) (core.GeneratorOptions, error) {
		return f.GeneratorOptions()
	}); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register reply generator
	if err := container.Provide(func(
		llmClient core.LLMClient,
		cache core.CacheRepository,
		textProcessor *utils.TextProcessor,
		logger *zap.Logger,
		opts core.GeneratorOptions,
	) *core.EmailGeneratorService {
		return core.NewEmailGeneratorService(llmClient, cache, textProcessor, logger, opts)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(s *core.EmailGeneratorService) ports.EmailGenerator {
		return s
	}); err != nil {
		return nil, err
	}

	// Register HTTP surface
	if err := container.Provide(func(f *factory.ServerFactory) *tone.Checker {
		return f.CreateToneChecker()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.MetricsFactory) (api.MetricsClient, error) {
		return f.CreateMetricsClient()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(
		f *factory.ServerFactory,
		generator ports.EmailGenerator,
		tones *tone.Checker,
		metrics api.MetricsClient,
	) (*api.Server, error) {
		return f.CreateServer(generator, tones, metrics)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(s *api.Server) ports.Server {
		return s
	}); err != nil {
		return nil, err
	}

	return container, nil
}
