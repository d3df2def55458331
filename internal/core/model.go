package core

import (
	"strings"
	"time"
)

// EmailRequest is the payload for a reply generation request
type EmailRequest struct {
	EmailContent string `json:"emailContent"`
	Tone         string `json:"tone,omitempty"`
}

// Validate checks that the request can be dispatched to a generator
func (r *EmailRequest) Validate() error {
	if r == nil {
		return &ValidationError{Field: "body", Message: "request body is required"}
	}
	if strings.TrimSpace(r.EmailContent) == "" {
		return &ValidationError{Field: "emailContent", Message: "emailContent is required"}
	}
	return nil
}

// Completion is the raw output of an LLM call
type Completion struct {
	Text         string
	ModelUsed    string
	ProcessingID string
}

// CacheEntry is a previously generated reply
type CacheEntry struct {
	Key       string    `json:"key"`
	Reply     string    `json:"reply"`
	ModelUsed string    `json:"model_used"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the entry is past its expiry at the given time
func (e *CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}
