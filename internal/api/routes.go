package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-writer/internal/core"
)

const (
	// HomeMessage is the liveness response of the base route
	HomeMessage = "The Application is running"

	// GenerateInfoMessage is returned when the generate route is opened in a browser
	GenerateInfoMessage = "Application's backend is running,run the frontend!"
)

// Route binds a method and path, relative to the base path, to a handler
type Route struct {
	Method  string
	Path    string
	Handler echo.HandlerFunc
}

// Routes lists every endpoint served under the base path
func (s *Server) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/", Handler: s.Home},
		{Method: http.MethodGet, Path: "/generate", Handler: s.GenerateInfo},
		{Method: http.MethodPost, Path: "/generate", Handler: s.GenerateEmail},
	}
}

// Home reports that the application is up
func (s *Server) Home(c echo.Context) error {
	return c.String(http.StatusOK, HomeMessage)
}

// GenerateInfo answers GET on the generate route
func (s *Server) GenerateInfo(c echo.Context) error {
	return c.String(http.StatusOK, GenerateInfoMessage)
}

// GenerateEmail validates the request and returns the generated reply as plain text
func (s *Server) GenerateEmail(c echo.Context) error {
	var req core.EmailRequest
	if err := c.Bind(&req); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge {
			return he
		}
		return &core.ValidationError{Field: "body", Message: "request body must be a JSON object", Err: err}
	}
	if err := req.Validate(); err != nil {
		return err
	}
	if !s.tones.IsAllowed(req.Tone) {
		return &core.ValidationError{Field: "tone", Message: fmt.Sprintf("tone %q is not supported", req.Tone)}
	}
	req.Tone = s.tones.Normalize(req.Tone)

	reply, err := s.generate(c.Request().Context(), &req)
	if err != nil {
		return err
	}

	return c.String(http.StatusOK, reply)
}

type generateResult struct {
	reply string
	err   error
}

// generate makes exactly one collaborator call, bounded by the configured timeout.
// A collaborator that ignores ctx is abandoned once the deadline passes.
func (s *Server) generate(parent context.Context, req *core.EmailRequest) (string, error) {
	ctx := parent
	if s.cfg.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, s.cfg.GenerateTimeout)
		defer cancel()
	}

	done := make(chan generateResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- generateResult{err: fmt.Errorf("generator panicked: %v", r)}
			}
		}()
		reply, err := s.generator.GenerateEmailReply(ctx, req)
		done <- generateResult{reply: reply, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", s.upstreamError(ctx, res.err)
		}
		return res.reply, nil
	case <-ctx.Done():
		return "", s.upstreamError(ctx, ctx.Err())
	}
}

func (s *Server) upstreamError(ctx context.Context, err error) *core.UpstreamGenerationError {
	timeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
	s.logger.Warn("Reply generation failed",
		zap.Bool("timeout", timeout),
		zap.Bool("canceled", errors.Is(ctx.Err(), context.Canceled)),
		zap.Error(err))
	return &core.UpstreamGenerationError{Timeout: timeout, Err: err}
}
