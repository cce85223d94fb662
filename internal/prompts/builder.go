package prompts

import (
	"fmt"

	lcprompts "github.com/tmc/langchaingo/prompts"

	"github.com/recommender/pkg/models"
)

// PromptBuilder renders recommendation prompts from a Go-template prompt template.
// Request values are substituted verbatim: no escaping or sanitization is applied,
// so free-text fields such as the language reach the model as the caller sent them.
type PromptBuilder struct {
	template lcprompts.PromptTemplate
}

// NewPromptBuilder creates a builder for the given template, or for
// DefaultRecommendationTemplate when tmpl is empty. The template is checked once here
// so that Build only fails on values it cannot render.
func NewPromptBuilder(tmpl string) (*PromptBuilder, error) {
	if tmpl == "" {
		tmpl = DefaultRecommendationTemplate
	}

	pt := lcprompts.NewPromptTemplate(tmpl, InputVariables)
	if err := lcprompts.CheckValidTemplate(pt.Template, pt.TemplateFormat, pt.InputVariables); err != nil {
		return nil, fmt.Errorf("invalid recommendation template: %w", err)
	}

	return &PromptBuilder{template: pt}, nil
}

// Build generates the prompt for a validated request
func (pb *PromptBuilder) Build(req models.RecommendationRequest) (string, error) {
	prompt, err := pb.template.Format(map[string]any{
		VarCount:       req.Count,
		VarContentType: req.ContentType,
		VarAgeBracket:  req.AgeBracket,
		VarGenre:       req.Genre,
		VarLanguage:    req.Language,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render recommendation prompt: %w", err)
	}
	return prompt, nil
}
