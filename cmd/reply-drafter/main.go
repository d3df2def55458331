package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-writer/internal/config"
	"github.com/mikey/llm-email-writer/internal/core"
	"github.com/mikey/llm-email-writer/internal/di"
	"github.com/mikey/llm-email-writer/internal/mailparse"
	"github.com/mikey/llm-email-writer/internal/ports"
	"github.com/mikey/llm-email-writer/internal/tone"
)

func main() {
	_ = godotenv.Load()

	flags, err := di.ParseFlags(os.Args[0], os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(
	flags *di.CLIFlags,
	cfg *config.Config,
	logger *zap.Logger,
	generator ports.EmailGenerator,
	llmClient core.LLMClient,
	tones *tone.Checker,
) error {
	defer logger.Sync()
	defer func() {
		if closer, ok := llmClient.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close LLM client", zap.Error(err))
			}
		}
	}()

	var emailReader io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return fmt.Errorf("failed to open input file %s: %w", flags.InputFile, err)
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", flags.InputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	msg, err := mailparse.Parse(emailReader)
	if err != nil {
		return err
	}

	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", msg.From)
	fmt.Printf("Subject: %s\n", msg.Subject)
	fmt.Printf("Body length: %d bytes\n", len(msg.Body))

	serverCfg, err := cfg.GetServer()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := generationContext(ctx, serverCfg.GenerateTimeout)
	defer cancel()

	req := &core.EmailRequest{
		EmailContent: msg.PromptContent(),
		Tone:         tones.Normalize(flags.Tone),
	}

	startTime := time.Now()
	reply, err := generator.GenerateEmailReply(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("reply generation timed out after %v", serverCfg.GenerateTimeout)
		}
		return fmt.Errorf("failed to generate reply: %w", err)
	}

	fmt.Printf("\n=== Reply ===\n")
	fmt.Printf("Provider: %s\n", cfg.GetLLM().Provider)
	if req.Tone != "" {
		fmt.Printf("Tone: %s\n", req.Tone)
	}
	fmt.Printf("Processing time: %v\n\n", time.Since(startTime))
	fmt.Println(reply)

	return nil
}

// generationContext bounds ctx by timeout; a non-positive timeout leaves it unbounded
func generationContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
