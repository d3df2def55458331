package core

import (
	"errors"
	"fmt"
)

// ErrCacheMiss is returned by cache repositories when no live entry exists
var ErrCacheMiss = errors.New("cache entry not found")

// ErrEmptyCompletion is returned when a model answers with no text
var ErrEmptyCompletion = errors.New("empty completion from model")

// ValidationError reports a request that cannot be dispatched
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// UpstreamGenerationError reports a failed or timed out generation call
type UpstreamGenerationError struct {
	Timeout bool
	Err     error
}

func (e *UpstreamGenerationError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("reply generation timed out: %v", e.Err)
	}
	return fmt.Sprintf("reply generation failed: %v", e.Err)
}

func (e *UpstreamGenerationError) Unwrap() error {
	return e.Err
}
