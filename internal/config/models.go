package config

import "time"

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	ListenAddress   string
	BasePath        string
	GenerateTimeout time.Duration
	ShutdownTimeout time.Duration
	BodyLimit       string
	CORSOrigins     []string
}

// GenerationConfig represents reply generation limits
type GenerationConfig struct {
	MaxContentSize int
	MaxConcurrent  int
	AllowedTones   []string
}

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// ModelConfig holds the sampling settings shared by all providers
type ModelConfig struct {
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	ModelConfig
	APIKey  string
	BaseURL string
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	ModelConfig
	APIKey string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	ModelConfig
	Region string
}

// OllamaConfig represents the configuration for a local Ollama server
type OllamaConfig struct {
	ModelConfig
	ServerURL string
}

// CacheConfig represents the reply cache configuration
type CacheConfig struct {
	Enabled          bool
	Type             string
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
}

// MetricsConfig represents the statsd metrics configuration
type MetricsConfig struct {
	StatsdAddress string
	Namespace     string
}

// GetServer returns the server configuration
func (c *Config) GetServer() (ServerConfig, error) {
	generateTimeout, err := c.GetDuration("server.generate_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	shutdownTimeout, err := c.GetDuration("server.shutdown_timeout")
	if err != nil {
		return ServerConfig{}, err
	}

	return ServerConfig{
		ListenAddress:   c.GetString("server.listen_address"),
		BasePath:        c.GetString("server.base_path"),
		GenerateTimeout: generateTimeout,
		ShutdownTimeout: shutdownTimeout,
		BodyLimit:       c.GetString("server.body_limit"),
		CORSOrigins:     c.GetStringSlice("server.cors_origins"),
	}, nil
}

// GetGeneration returns the generation configuration
func (c *Config) GetGeneration() GenerationConfig {
	return GenerationConfig{
		MaxContentSize: c.GetInt("generation.max_content_size"),
		MaxConcurrent:  c.GetInt("generation.max_concurrent"),
		AllowedTones:   c.GetStringSlice("generation.allowed_tones"),
	}
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

func (c *Config) modelConfig(prefix, nameKey string) ModelConfig {
	return ModelConfig{
		ModelName:   c.GetString(prefix + "." + nameKey),
		MaxTokens:   c.GetInt(prefix + ".max_tokens"),
		Temperature: float32(c.GetFloat64(prefix + ".temperature")),
		TopP:        float32(c.GetFloat64(prefix + ".top_p")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		ModelConfig: c.modelConfig("openai", "model_name"),
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		ModelConfig: c.modelConfig("gemini", "model_name"),
		APIKey:      c.GetString("gemini.api_key"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		ModelConfig: c.modelConfig("bedrock", "model_id"),
		Region:      c.GetString("bedrock.region"),
	}
}

// GetOllama returns the Ollama configuration
func (c *Config) GetOllama() OllamaConfig {
	return OllamaConfig{
		ModelConfig: c.modelConfig("ollama", "model_name"),
		ServerURL:   c.GetString("ollama.server_url"),
	}
}

// GetCache returns the cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, err
	}
	cleanup, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return CacheConfig{}, err
	}

	return CacheConfig{
		Enabled:          c.GetBool("cache.enabled"),
		Type:             c.GetString("cache.type"),
		TTL:              ttl,
		CleanupFrequency: cleanup,
		SQLitePath:       c.GetString("cache.sqlite_path"),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
		RedisAddr:        c.GetString("cache.redis_addr"),
		RedisPassword:    c.GetString("cache.redis_password"),
		RedisDB:          c.GetInt("cache.redis_db"),
	}, nil
}

// GetMetrics returns the metrics configuration
func (c *Config) GetMetrics() MetricsConfig {
	return MetricsConfig{
		StatsdAddress: c.GetString("metrics.statsd_address"),
		Namespace:     c.GetString("metrics.namespace"),
	}
}
