package core_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-writer/internal/core"
)

type llmClientMock struct {
	CompleteFunc func(ctx context.Context, prompt string) (*core.Completion, error)
	calls        atomic.Int32
	lastPrompt   atomic.Value
}

func (m *llmClientMock) Complete(ctx context.Context, prompt string) (*core.Completion, error) {
	m.calls.Add(1)
	m.lastPrompt.Store(prompt)
	return m.CompleteFunc(ctx, prompt)
}

type cacheMock struct {
	mu      sync.Mutex
	entries map[string]*core.CacheEntry
	getErr  error
	setErr  error
	deleted []string
}

func newCacheMock() *cacheMock {
	return &cacheMock{entries: make(map[string]*core.CacheEntry)}
}

func (c *cacheMock) Get(_ context.Context, key string) (*core.CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	entry, ok := c.entries[key]
	if !ok {
		return nil, core.ErrCacheMiss
	}
	return entry, nil
}

func (c *cacheMock) Set(_ context.Context, entry *core.CacheEntry) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.Key] = entry
	return nil
}

func (c *cacheMock) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, key)
	delete(c.entries, key)
	return nil
}

func (c *cacheMock) Cleanup(context.Context) error { return nil }

type passthroughProcessor struct{}

func (passthroughProcessor) ProcessText(text string, _ int) string { return text }

func staticCompletion(text string) func(context.Context, string) (*core.Completion, error) {
	return func(context.Context, string) (*core.Completion, error) {
		return &core.Completion{Text: text, ModelUsed: "test-model", ProcessingID: "p-1"}, nil
	}
}

func TestGenerateEmailReply(t *testing.T) {
	cases := []struct {
		name        string
		req         *core.EmailRequest
		completion  func(context.Context, string) (*core.Completion, error)
		expected    string
		expectedErr string
		llmCalls    int32
	}{
		{
			name:       "formal tone",
			req:        &core.EmailRequest{EmailContent: "Can we reschedule the meeting?", Tone: "formal"},
			completion: staticCompletion("  Certainly, let's reschedule.\n"),
			expected:   "Certainly, let's reschedule.",
			llmCalls:   1,
		},
		{
			name:       "no tone",
			req:        &core.EmailRequest{EmailContent: "Lunch tomorrow?"},
			completion: staticCompletion("Sounds good."),
			expected:   "Sounds good.",
			llmCalls:   1,
		},
		{
			name:        "missing content",
			req:         &core.EmailRequest{Tone: "formal"},
			completion:  staticCompletion("unused"),
			expectedErr: "emailContent is required",
		},
		{
			name: "model failure",
			req:  &core.EmailRequest{EmailContent: "Hello"},
			completion: func(context.Context, string) (*core.Completion, error) {
				return nil, errors.New("rate limited")
			},
			expectedErr: "rate limited",
			llmCalls:    1,
		},
		{
			name:        "blank completion",
			req:         &core.EmailRequest{EmailContent: "Hello"},
			completion:  staticCompletion("   "),
			expectedErr: core.ErrEmptyCompletion.Error(),
			llmCalls:    1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			llm := &llmClientMock{CompleteFunc: tc.completion}
			svc := core.NewEmailGeneratorService(llm, nil, passthroughProcessor{}, zap.NewNop(), core.GeneratorOptions{MaxConcurrent: 2})

			reply, err := svc.GenerateEmailReply(context.Background(), tc.req)
			if tc.expectedErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expected, reply)
			}
			assert.Equal(t, tc.llmCalls, llm.calls.Load())
		})
	}
}

func TestGenerateEmailReplyPrompt(t *testing.T) {
	llm := &llmClientMock{CompleteFunc: staticCompletion("ok")}
	svc := core.NewEmailGeneratorService(llm, nil, nil, zap.NewNop(), core.GeneratorOptions{})

	_, err := svc.GenerateEmailReply(context.Background(), &core.EmailRequest{EmailContent: "Are you free Friday?", Tone: "casual"})
	require.NoError(t, err)
	prompt := llm.lastPrompt.Load().(string)
	assert.Contains(t, prompt, "Use a casual tone.")
	assert.Contains(t, prompt, "Are you free Friday?")
	assert.NotContains(t, prompt, "{{")

	_, err = svc.GenerateEmailReply(context.Background(), &core.EmailRequest{EmailContent: "Are you free Friday?"})
	require.NoError(t, err)
	prompt = llm.lastPrompt.Load().(string)
	assert.NotContains(t, prompt, "tone")
}

func TestGenerateEmailReplyCache(t *testing.T) {
	llm := &llmClientMock{CompleteFunc: staticCompletion("Thanks for reaching out.")}
	cache := newCacheMock()
	svc := core.NewEmailGeneratorService(llm, cache, passthroughProcessor{}, zap.NewNop(), core.GeneratorOptions{
		CacheEnabled: true,
		CacheTTL:     time.Hour,
	})
	req := &core.EmailRequest{EmailContent: "Hi there", Tone: "Friendly"}

	first, err := svc.GenerateEmailReply(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.GenerateEmailReply(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), llm.calls.Load())

	entry, err := cache.Get(context.Background(), core.CacheKey("Hi there", "friendly"))
	require.NoError(t, err)
	assert.Equal(t, "test-model", entry.ModelUsed)
	assert.True(t, entry.ExpiresAt.After(entry.CreatedAt))
}

func TestGenerateEmailReplyCacheWriteFailure(t *testing.T) {
	llm := &llmClientMock{CompleteFunc: staticCompletion("Noted.")}
	cache := newCacheMock()
	cache.setErr = errors.New("disk full")
	svc := core.NewEmailGeneratorService(llm, cache, nil, zap.NewNop(), core.GeneratorOptions{CacheEnabled: true, CacheTTL: time.Minute})

	reply, err := svc.GenerateEmailReply(context.Background(), &core.EmailRequest{EmailContent: "FYI"})
	require.NoError(t, err)
	assert.Equal(t, "Noted.", reply)
}

func TestGenerateEmailReplyCacheWithoutTTL(t *testing.T) {
	llm := &llmClientMock{CompleteFunc: staticCompletion("Sounds good.")}
	cache := newCacheMock()
	svc := core.NewEmailGeneratorService(llm, cache, nil, zap.NewNop(), core.GeneratorOptions{CacheEnabled: true})
	req := &core.EmailRequest{EmailContent: "Lunch on Friday?"}

	_, err := svc.GenerateEmailReply(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.GenerateEmailReply(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int32(1), llm.calls.Load())
	entry, err := cache.Get(context.Background(), core.CacheKey("Lunch on Friday?", ""))
	require.NoError(t, err)
	assert.True(t, entry.ExpiresAt.IsZero())
	assert.False(t, entry.Expired(time.Now().Add(365*24*time.Hour)))
}

func TestGenerateEmailReplyEvictsUnreadableEntry(t *testing.T) {
	llm := &llmClientMock{CompleteFunc: staticCompletion("Will do.")}
	cache := newCacheMock()
	cache.getErr = errors.New("invalid character 'x' looking for beginning of value")
	svc := core.NewEmailGeneratorService(llm, cache, nil, zap.NewNop(), core.GeneratorOptions{CacheEnabled: true, CacheTTL: time.Hour})

	reply, err := svc.GenerateEmailReply(context.Background(), &core.EmailRequest{EmailContent: "Please review"})
	require.NoError(t, err)

	assert.Equal(t, "Will do.", reply)
	assert.Equal(t, []string{core.CacheKey("Please review", "")}, cache.deleted)
	assert.Equal(t, int32(1), llm.calls.Load())
}

func TestGenerateEmailReplyCacheMissDoesNotEvict(t *testing.T) {
	llm := &llmClientMock{CompleteFunc: staticCompletion("Will do.")}
	cache := newCacheMock()
	svc := core.NewEmailGeneratorService(llm, cache, nil, zap.NewNop(), core.GeneratorOptions{CacheEnabled: true, CacheTTL: time.Hour})

	_, err := svc.GenerateEmailReply(context.Background(), &core.EmailRequest{EmailContent: "Please review"})
	require.NoError(t, err)

	assert.Empty(t, cache.deleted)
}

func TestGenerateEmailReplyWaitsForSlot(t *testing.T) {
	release := make(chan struct{})
	llm := &llmClientMock{CompleteFunc: func(ctx context.Context, _ string) (*core.Completion, error) {
		<-release
		return &core.Completion{Text: "done"}, nil
	}}
	svc := core.NewEmailGeneratorService(llm, nil, nil, zap.NewNop(), core.GeneratorOptions{MaxConcurrent: 1})

	go func() {
		_, _ = svc.GenerateEmailReply(context.Background(), &core.EmailRequest{EmailContent: "first"})
	}()
	require.Eventually(t, func() bool { return llm.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := svc.GenerateEmailReply(ctx, &core.EmailRequest{EmailContent: "second"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), llm.calls.Load())

	close(release)
}

func TestEmailRequestValidate(t *testing.T) {
	var nilReq *core.EmailRequest
	var verr *core.ValidationError

	require.ErrorAs(t, nilReq.Validate(), &verr)
	assert.Equal(t, "body", verr.Field)

	require.ErrorAs(t, (&core.EmailRequest{EmailContent: " \n\t"}).Validate(), &verr)
	assert.Equal(t, "emailContent", verr.Field)

	assert.NoError(t, (&core.EmailRequest{EmailContent: "hi"}).Validate())
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, core.CacheKey("body", "Formal"), core.CacheKey("body", " formal "))
	assert.NotEqual(t, core.CacheKey("body", "formal"), core.CacheKey("body", "casual"))
	assert.NotEqual(t, core.CacheKey("body", ""), core.CacheKey("body2", ""))
	assert.Len(t, core.CacheKey("x", ""), 64)
	assert.False(t, strings.ContainsAny(core.CacheKey("x", ""), "ABCDEF"))
}

func TestUpstreamGenerationErrorUnwrap(t *testing.T) {
	err := &core.UpstreamGenerationError{Timeout: true, Err: context.DeadlineExceeded}
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "timed out")
}
