package tone

import (
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

// Checker normalizes requested reply tones and enforces an optional allow-list
type Checker struct {
	allowed map[string]struct{}
	logger  *zap.Logger
}

// NewChecker creates a tone checker. An empty list allows any tone.
func NewChecker(allowed []string, logger *zap.Logger) *Checker {
	c := &Checker{
		allowed: make(map[string]struct{}, len(allowed)),
		logger:  logger,
	}
	for _, t := range allowed {
		if n := c.Normalize(t); n != "" {
			c.allowed[n] = struct{}{}
		}
	}

	if len(c.allowed) > 0 && logger != nil {
		logger.Info("Initialized tone allow-list", zap.Strings("tones", c.Allowed()))
	}

	return c
}

// Normalize trims and case-folds a tone
func (c *Checker) Normalize(t string) string {
	// Casers carry state and must not be shared between goroutines.
	return cases.Fold().String(strings.TrimSpace(t))
}

// IsAllowed reports whether a tone may be used for generation
func (c *Checker) IsAllowed(t string) bool {
	n := c.Normalize(t)
	if n == "" || len(c.allowed) == 0 {
		return true
	}

	_, ok := c.allowed[n]
	if !ok && c.logger != nil {
		c.logger.Debug("Tone rejected", zap.String("tone", t))
	}
	return ok
}

// Allowed returns the configured tones
func (c *Checker) Allowed() []string {
	out := make([]string, 0, len(c.allowed))
	for t := range c.allowed {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
