// Package prompt renders a recipe's prompt template for a single study.
package prompt

import (
	"fmt"
	"os"
	"strings"

	"github.com/fdecunta/screenie/internal/domain"
	"github.com/fdecunta/screenie/internal/recipe"
)

// OutputInstructions is appended to every compiled prompt. The response
// parser relies on this shape, so recipes cannot change it.
const OutputInstructions = `

Respond with a single JSON object and nothing else. The object must have exactly two keys:
- "verdict": the integer 1 if the study should be included, or 0 if it should be excluded
- "reason": a short string explaining the decision

Example:
{"verdict": 1, "reason": "Field study measuring pollinator abundance."}`

// Compile substitutes the study's fields and the recipe's criteria into the
// prompt template and appends OutputInstructions. Placeholders use the
// $name or ${name} forms; "$$" yields a literal dollar sign.
func Compile(r *recipe.Recipe, s *domain.Study) (string, error) {
	values := s.Fields()
	values["criteria"] = r.Criteria.Text

	var unresolved []string
	text := os.Expand(r.Prompt.Text, func(name string) string {
		if name == "$" {
			return "$"
		}
		v, ok := values[name]
		if !ok {
			unresolved = append(unresolved, name)
			return ""
		}
		return v
	})

	if len(unresolved) > 0 {
		return "", fmt.Errorf("%w: %s", domain.ErrUnresolvedPlaceholder, strings.Join(unresolved, ", "))
	}

	return text + OutputInstructions, nil
}
