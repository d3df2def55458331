package ports

import (
	"context"

	"github.com/mikey/llm-email-writer/internal/core"
)

// EmailGenerator produces a reply for an email. Implementations must honour ctx cancellation.
type EmailGenerator interface {
	GenerateEmailReply(ctx context.Context, req *core.EmailRequest) (string, error)
}
