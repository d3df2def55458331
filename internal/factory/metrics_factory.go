package factory

import (
	"fmt"
	"strings"

	"github.com/DataDog/datadog-go/statsd"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-writer/internal/api"
	"github.com/mikey/llm-email-writer/internal/config"
)

// MetricsFactory creates the request metrics client
type MetricsFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewMetricsFactory creates a new metrics factory
func NewMetricsFactory(cfg *config.Config, logger *zap.Logger) *MetricsFactory {
	return &MetricsFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateMetricsClient returns a statsd client, or a no-op client when no
// statsd address is configured
func (f *MetricsFactory) CreateMetricsClient() (api.MetricsClient, error) {
	metricsCfg := f.cfg.GetMetrics()
	if metricsCfg.StatsdAddress == "" {
		return api.NoopMetrics{}, nil
	}

	var opts []statsd.Option
	if metricsCfg.Namespace != "" {
		opts = append(opts, statsd.WithNamespace(strings.TrimSuffix(metricsCfg.Namespace, ".")+"."))
	}

	client, err := statsd.New(metricsCfg.StatsdAddress, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create statsd client: %w", err)
	}

	f.logger.Info("Sending metrics to statsd", zap.String("address", metricsCfg.StatsdAddress))
	return client, nil
}
