package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/llm-email-writer/internal/api"
	"github.com/mikey/llm-email-writer/internal/config"
	"github.com/mikey/llm-email-writer/internal/ports"
	"github.com/mikey/llm-email-writer/internal/tone"
)

// ServerFactory creates the HTTP server
type ServerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewServerFactory creates a new server factory
func NewServerFactory(cfg *config.Config, logger *zap.Logger) *ServerFactory {
	return &ServerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateToneChecker builds the tone policy from the configured allow-list
func (f *ServerFactory) CreateToneChecker() *tone.Checker {
	return tone.NewChecker(f.cfg.GetGeneration().AllowedTones, f.logger)
}

// CreateServer creates the HTTP server around the given generator
func (f *ServerFactory) CreateServer(generator ports.EmailGenerator, tones *tone.Checker, metrics api.MetricsClient) (*api.Server, error) {
	serverCfg, err := f.cfg.GetServer()
	if err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	return api.NewServer(serverCfg, generator, tones, metrics, f.logger), nil
}
