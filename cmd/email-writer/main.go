package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-writer/internal/api"
	"github.com/mikey/llm-email-writer/internal/core"
	"github.com/mikey/llm-email-writer/internal/di"
	"github.com/mikey/llm-email-writer/internal/ports"
)

func main() {
	// Environment overrides may come from a local .env file
	_ = godotenv.Load()

	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	server ports.Server,
	llmClient core.LLMClient,
	cacheRepo core.CacheRepository,
	metrics api.MetricsClient,
) error {
	defer logger.Sync()

	if err := server.Start(); err != nil {
		logger.Error("Failed to start server", zap.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("Shutting down...", zap.String("signal", sig.String()))

	if err := server.Stop(); err != nil {
		logger.Error("Failed to stop server", zap.Error(err))
	}

	if closer, ok := llmClient.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}

	if stopper, ok := cacheRepo.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	if closer, ok := metrics.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close metrics client", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
