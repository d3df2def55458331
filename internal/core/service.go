package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TextProcessor prepares email content before it is sent to a model
type TextProcessor interface {
	ProcessText(text string, maxSize int) string
}

// GeneratorOptions holds the tunables of EmailGeneratorService
type GeneratorOptions struct {
	MaxContentSize int
	MaxConcurrent  int
	CacheEnabled   bool
	// CacheTTL <= 0 stores replies without expiry
	CacheTTL time.Duration
}

// EmailGeneratorService generates email replies with an LLM
type EmailGeneratorService struct {
	llmClient     LLMClient
	cache         CacheRepository
	textProcessor TextProcessor
	prompts       *PromptBuilder
	logger        *zap.Logger
	opts          GeneratorOptions
	semaphore     chan struct{}
	now           func() time.Time
}

// NewEmailGeneratorService creates a new reply generator
func NewEmailGeneratorService(
	llmClient LLMClient,
	cache CacheRepository,
	textProcessor TextProcessor,
	logger *zap.Logger,
	opts GeneratorOptions,
) *EmailGeneratorService {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	if cache == nil {
		opts.CacheEnabled = false
	}
	return &EmailGeneratorService{
		llmClient:     llmClient,
		cache:         cache,
		textProcessor: textProcessor,
		prompts:       NewPromptBuilder(),
		logger:        logger,
		opts:          opts,
		semaphore:     make(chan struct{}, opts.MaxConcurrent),
		now:           time.Now,
	}
}

// GenerateEmailReply produces a reply for the given request
func (s *EmailGeneratorService) GenerateEmailReply(ctx context.Context, req *EmailRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	content := req.EmailContent
	if s.textProcessor != nil {
		content = s.textProcessor.ProcessText(content, s.opts.MaxContentSize)
	}

	key := CacheKey(content, req.Tone)
	if s.opts.CacheEnabled {
		entry, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			s.logger.Debug("Cache hit for reply", zap.String("key", key), zap.String("model", entry.ModelUsed))
			return entry.Reply, nil
		case !errors.Is(err, ErrCacheMiss):
			s.logger.Warn("Failed to read reply cache, evicting entry", zap.String("key", key), zap.Error(err))
			if err := s.cache.Delete(ctx, key); err != nil {
				s.logger.Error("Failed to evict unreadable cache entry", zap.String("key", key), zap.Error(err))
			}
		}
	}

	prompt, err := s.prompts.Build(content, req.Tone)
	if err != nil {
		return "", err
	}

	select {
	case s.semaphore <- struct{}{}:
		defer func() { <-s.semaphore }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	start := s.now()
	completion, err := s.llmClient.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("llm completion failed: %w", err)
	}
	reply := strings.TrimSpace(completion.Text)
	if reply == "" {
		return "", ErrEmptyCompletion
	}

	s.logger.Info("Generated email reply",
		zap.String("model", completion.ModelUsed),
		zap.String("processing_id", completion.ProcessingID),
		zap.String("tone", req.Tone),
		zap.Int("content_size", len(content)),
		zap.Int("reply_size", len(reply)),
		zap.Duration("duration", s.now().Sub(start)))

	if s.opts.CacheEnabled {
		now := s.now()
		entry := &CacheEntry{
			Key:       key,
			Reply:     reply,
			ModelUsed: completion.ModelUsed,
			CreatedAt: now,
		}
		// A zero ExpiresAt never expires.
		if s.opts.CacheTTL > 0 {
			entry.ExpiresAt = now.Add(s.opts.CacheTTL)
		}
		if err := s.cache.Set(ctx, entry); err != nil {
			s.logger.Error("Failed to update reply cache", zap.Error(err))
		}
	}

	return reply, nil
}

// CacheKey derives the cache key for a piece of content and tone
func CacheKey(content, tone string) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(tone))))
	h.Write([]byte{0})
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}
