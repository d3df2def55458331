package core

import (
	"fmt"

	"github.com/tmc/langchaingo/prompts"
)

const replyTemplate = `Generate a professional email reply for the following email content. Do not include a subject line.
{{- if .tone}}
Use a {{.tone}} tone.
{{- end}}

Original email:
{{.content}}`

// PromptBuilder renders the reply generation prompt
type PromptBuilder struct {
	template prompts.PromptTemplate
}

// NewPromptBuilder creates a prompt builder with the default reply template
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{
		template: prompts.NewPromptTemplate(replyTemplate, []string{"content", "tone"}),
	}
}

// Build renders the prompt for the given email content and tone
func (b *PromptBuilder) Build(content, tone string) (string, error) {
	prompt, err := b.template.Format(map[string]any{
		"content": content,
		"tone":    tone,
	})
	if err != nil {
		return "", fmt.Errorf("failed to format prompt: %w", err)
	}
	return prompt, nil
}
