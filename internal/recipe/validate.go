package recipe

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/fdecunta/screenie/internal/domain"
)

// TemplateKeys are the placeholder names a prompt template may reference.
var TemplateKeys = []string{"title", "authors", "year", "abstract", "journal", "url", "doi", "criteria"}

// Validate checks the recipe's settings. Errors name the offending field.
func Validate(r *Recipe) error {
	m := r.Model

	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: model.model", domain.ErrMissingRequiredField)
	}
	if strings.HasSuffix(m.Name, "/") {
		return fmt.Errorf("%w: model.model %q has no model after the provider", domain.ErrInvalidField, m.Name)
	}
	if m.Temperature != nil && (*m.Temperature < 0 || *m.Temperature >= MaxTemperature) {
		return fmt.Errorf("%w: model.temperature must be in [0, 2), got %v", domain.ErrInvalidField, *m.Temperature)
	}
	if m.MaxTokens <= 0 {
		return fmt.Errorf("%w: model.max_tokens must be a positive integer, got %d", domain.ErrInvalidField, m.MaxTokens)
	}
	if m.TopP != nil && (*m.TopP < 0 || *m.TopP > 1) {
		return fmt.Errorf("%w: model.top_p must be in [0, 1], got %v", domain.ErrInvalidField, *m.TopP)
	}
	if m.N != nil && *m.N < 1 {
		return fmt.Errorf("%w: model.n must be at least 1, got %d", domain.ErrInvalidField, *m.N)
	}
	if m.Timeout != nil && *m.Timeout <= 0 {
		return fmt.Errorf("%w: model.timeout must be positive, got %v", domain.ErrInvalidField, *m.Timeout)
	}

	for _, name := range Placeholders(r.Prompt.Text) {
		if !slices.Contains(TemplateKeys, name) {
			return fmt.Errorf("%w: prompt.text references $%s (allowed: %s)",
				domain.ErrUnresolvedPlaceholder, name, strings.Join(TemplateKeys, ", "))
		}
	}

	return nil
}

// Placeholders returns the distinct placeholder names used in a template, in
// order of first appearance. The escape "$$" is not a placeholder.
func Placeholders(text string) []string {
	var names []string
	os.Expand(text, func(name string) string {
		if name != "$" && !slices.Contains(names, name) {
			names = append(names, name)
		}
		return ""
	})
	return names
}
