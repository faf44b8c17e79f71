// Package recipe loads and validates screening recipes: the model settings,
// prompt template and inclusion criteria used for a screening run.
package recipe

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fdecunta/screenie/internal/domain"
)

const (
	// DefaultMaxTokens is applied when a recipe does not set max_tokens.
	DefaultMaxTokens = 4096
	// MaxTemperature is the exclusive upper bound for model.temperature.
	MaxTemperature = 2.0
	// DefaultProvider is assumed for model names without a provider prefix.
	DefaultProvider = "openai"
)

// Model holds the model settings of a recipe. Fields other than Name and
// MaxTokens are optional and passed through to the provider as given.
type Model struct {
	Name         string   `json:"model"`
	Temperature  *float64 `json:"temperature,omitempty"`
	MaxTokens    int      `json:"max_tokens"`
	TopP         *float64 `json:"top_p,omitempty"`
	N            *int     `json:"n,omitempty"`
	Seed         *int     `json:"seed,omitempty"`
	Timeout      *float64 `json:"timeout,omitempty"`
	DeploymentID string   `json:"deployment_id,omitempty"`
	BaseURL      string   `json:"base_url,omitempty"`
	APIVersion   string   `json:"api_version,omitempty"`
}

// Provider returns the lowercased provider prefix of the model name.
func (m Model) Provider() string {
	if i := strings.Index(m.Name, "/"); i > 0 {
		return strings.ToLower(m.Name[:i])
	}
	return DefaultProvider
}

// ModelID returns the model name without its provider prefix.
func (m Model) ModelID() string {
	if i := strings.Index(m.Name, "/"); i > 0 {
		return m.Name[i+1:]
	}
	return m.Name
}

// Section is a text block of a recipe.
type Section struct {
	Text string `json:"text"`
}

// Recipe is a validated recipe.
type Recipe struct {
	Model    Model   `json:"model"`
	Prompt   Section `json:"prompt"`
	Criteria Section `json:"criteria"`
}

// Content returns the canonical serialization of the recipe. Two recipes
// with equal settings always produce the same content.
func (r *Recipe) Content() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to serialize recipe: %w", err)
	}
	return string(data), nil
}

// Load reads and validates the recipe file at path.
func Load(path string) (*Recipe, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe: %w", err)
	}

	return Parse(data, format)
}

// FormatFromPath picks the recipe format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q (expected .toml, .yaml or .yml)", domain.ErrUnsupportedFormat, filepath.Ext(path))
}
