package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-writer/internal/core"
)

// Error kinds returned in ErrorResponse.Kind
const (
	KindValidation          = "validation_error"
	KindUpstream            = "upstream_error"
	KindUpstreamTimeout     = "upstream_timeout"
	KindUpstreamUnavailable = "upstream_unavailable"
	KindNotFound            = "not_found"
	KindMethodNotAllowed    = "method_not_allowed"
	KindPayloadTooLarge     = "payload_too_large"
	KindHTTP                = "http_error"
	KindInternal            = "internal_error"
)

// ErrorResponse is the JSON body of every error response
type ErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// classify maps an error to a status code and a caller-safe body.
// Upstream failures are matched first so nothing the generator returns
// reaches the response body.
func classify(err error) (int, ErrorResponse) {
	var verr *core.ValidationError
	var uerr *core.UpstreamGenerationError
	var herr *echo.HTTPError

	switch {
	case errors.As(err, &uerr):
		switch {
		case uerr.Timeout:
			return http.StatusServiceUnavailable, ErrorResponse{Kind: KindUpstreamTimeout, Message: "reply generation timed out"}
		case errors.Is(uerr.Err, context.Canceled):
			return http.StatusServiceUnavailable, ErrorResponse{Kind: KindUpstreamUnavailable, Message: "reply generation was canceled"}
		default:
			return http.StatusBadGateway, ErrorResponse{Kind: KindUpstream, Message: "reply generation failed"}
		}
	case errors.As(err, &verr):
		return http.StatusBadRequest, ErrorResponse{Kind: KindValidation, Message: verr.Message}
	case errors.As(err, &herr):
		return herr.Code, ErrorResponse{Kind: httpKind(herr.Code), Message: httpMessage(herr)}
	default:
		return http.StatusInternalServerError, ErrorResponse{Kind: KindInternal, Message: "internal server error"}
	}
}

func httpKind(code int) string {
	switch code {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusMethodNotAllowed:
		return KindMethodNotAllowed
	case http.StatusRequestEntityTooLarge:
		return KindPayloadTooLarge
	case http.StatusInternalServerError:
		return KindInternal
	default:
		return KindHTTP
	}
}

func httpMessage(herr *echo.HTTPError) string {
	if msg, ok := herr.Message.(string); ok && msg != "" && herr.Code < http.StatusInternalServerError {
		return msg
	}
	return http.StatusText(herr.Code)
}

// handleError is the echo HTTPErrorHandler
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := classify(err)
	fields := []zap.Field{
		zap.Int("status", status),
		zap.String("kind", body.Kind),
		zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		zap.Error(err),
	}
	switch {
	case status >= http.StatusInternalServerError:
		s.logger.Error("Request failed", fields...)
	default:
		s.logger.Debug("Request rejected", fields...)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		s.logger.Error("Failed to write error response", zap.Error(err))
	}
}
