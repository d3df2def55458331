package di

import (
	"flag"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-writer/internal/config"
	"github.com/mikey/llm-email-writer/internal/core"
	"github.com/mikey/llm-email-writer/internal/factory"
	"github.com/mikey/llm-email-writer/internal/logging"
	"github.com/mikey/llm-email-writer/internal/ports"
	"github.com/mikey/llm-email-writer/internal/tone"
	"github.com/mikey/llm-email-writer/internal/utils"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// LLM provider flags
	Provider       string
	MaxTokens      int
	Temperature    float64
	TopP           float64
	MaxContentSize int
	Timeout        time.Duration

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIModelName string
	OpenAIBaseURL   string

	// Ollama flags
	OllamaServerURL string
	OllamaModelName string

	// Reply flags
	Tone string

	// Input flags
	InputFile  string
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line arguments and returns a CLIFlags struct
func ParseFlags(name string, args []string) (*CLIFlags, error) {
	flags := &CLIFlags{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	// LLM provider flags
	fs.StringVar(&flags.Provider, "provider", "openai", "LLM provider (openai, gemini, bedrock, ollama)")
	fs.IntVar(&flags.MaxTokens, "max-tokens", 1000, "Maximum tokens for LLM response")
	fs.Float64Var(&flags.Temperature, "temperature", 0.7, "Temperature for LLM generation")
	fs.Float64Var(&flags.TopP, "top-p", 0.9, "Top-p for LLM generation")
	fs.IntVar(&flags.MaxContentSize, "max-content-size", 8192, "Maximum email content size to send to LLM")
	fs.DurationVar(&flags.Timeout, "timeout", 60*time.Second, "Timeout for reply generation")

	// Bedrock flags
	fs.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	fs.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-3-haiku-20240307-v1:0", "Bedrock model ID")

	// Gemini flags
	fs.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	fs.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-1.5-flash", "Gemini model name")

	// OpenAI flags
	fs.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	fs.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4o-mini", "OpenAI model name")
	fs.StringVar(&flags.OpenAIBaseURL, "openai-base-url", "", "Base URL for an OpenAI-compatible API")

	// Ollama flags
	fs.StringVar(&flags.OllamaServerURL, "ollama-url", "http://localhost:11434", "Ollama server URL")
	fs.StringVar(&flags.OllamaModelName, "ollama-model", "llama3", "Ollama model name")

	// Reply flags
	fs.StringVar(&flags.Tone, "tone", "", "Tone of the reply (e.g. formal, friendly)")

	// Input flags
	fs.StringVar(&flags.InputFile, "file", "", "Input email file (use stdin if not specified)")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.NewFromFile(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}

	// Register LLM client
	if err := container.Provide(func(f *factory.LLMFactory) (core.LLMClient, error) {
		return f.CreateLLMClient()
	}); err != nil {
		return nil, err
	}

	// Register tone checker without an allow-list
	if err := container.Provide(func(logger *zap.Logger) *tone.Checker {
		return tone.NewChecker(nil, logger)
	}); err != nil {
		return nil, err
	}

	// Register reply generator with no cache
	if err := container.Provide(func(
		llmClient core.LLMClient,
		cfg *config.Config,
		logger *zap.Logger,
	) ports.EmailGenerator {
		genCfg := cfg.GetGeneration()
		return core.NewEmailGeneratorService(
			llmClient,
			nil,
			utils.NewTextProcessor(logger),
			logger,
			core.GeneratorOptions{
				MaxContentSize: genCfg.MaxContentSize,
				MaxConcurrent:  1,
			},
		)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	v.Set("llm.provider", flags.Provider)
	v.Set("generation.max_content_size", flags.MaxContentSize)
	v.Set("server.generate_timeout", flags.Timeout.String())

	// Set provider-specific configuration
	switch flags.Provider {
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.model_name", flags.GeminiModelName)
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.model_name", flags.OpenAIModelName)
		v.Set("openai.base_url", flags.OpenAIBaseURL)
	case "ollama":
		v.Set("ollama.server_url", flags.OllamaServerURL)
		v.Set("ollama.model_name", flags.OllamaModelName)
	}

	v.Set(flags.Provider+".max_tokens", flags.MaxTokens)
	v.Set(flags.Provider+".temperature", flags.Temperature)
	v.Set(flags.Provider+".top_p", flags.TopP)

	return config.NewFromViper(v)
}
