package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fdecunta/screenie/internal/domain"
	"github.com/fdecunta/screenie/internal/llm"
	"github.com/fdecunta/screenie/internal/recipe"
	"github.com/pelletier/go-toml/v2"
)

// Credentials holds per-model secrets, keyed by full model name:
//
//	["openai/gpt-4o"]
//	OPENAI_API_KEY = "sk-..."
//	base_url = "https://proxy.example.com/v1"
type Credentials struct {
	models map[string]map[string]string
	lookup func(string) (string, bool)
}

// LoadCredentials reads the credentials file at path. A missing file yields
// an empty set that still falls back to the environment.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewCredentials(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	return ParseCredentials(data)
}

// ParseCredentials decodes a credentials document.
func ParseCredentials(data []byte) (*Credentials, error) {
	models := map[string]map[string]string{}
	if err := toml.Unmarshal(data, &models); err != nil {
		return nil, fmt.Errorf("%w: credentials file: %v", domain.ErrInvalidField, err)
	}
	return NewCredentials(models), nil
}

// NewCredentials builds a credential set from decoded sections. Keys missing
// from a section are looked up in the process environment.
func NewCredentials(models map[string]map[string]string) *Credentials {
	if models == nil {
		models = map[string]map[string]string{}
	}
	return &Credentials{models: models, lookup: os.LookupEnv}
}

// For returns the credentials of a model. The environment is read, never
// written.
func (c *Credentials) For(model recipe.Model) (llm.Credentials, error) {
	keyName := llm.APIKeyName(model.Provider())
	section := c.models[model.Name]

	creds := llm.Credentials{
		APIKey:  section[keyName],
		BaseURL: section["base_url"],
	}
	if creds.APIKey == "" && c.lookup != nil {
		creds.APIKey, _ = c.lookup(keyName)
	}
	if creds.APIKey == "" {
		return llm.Credentials{}, fmt.Errorf("%w: set %s under [%q] in the credentials file or in the environment",
			domain.ErrMissingCredentials, keyName, model.Name)
	}

	return creds, nil
}

// Models lists the model names with a credentials section.
func (c *Credentials) Models() []string {
	names := make([]string, 0, len(c.models))
	for name := range c.models {
		names = append(names, name)
	}
	return names
}

const credentialsTemplate = `# Screenie model credentials. One section per model, named as in the
# recipe's model.model field. Keys not set here are read from the
# environment.
#
# ["openai/gpt-4o-mini"]
# OPENAI_API_KEY = "sk-..."
#
# ["gemini/gemini-2.0-flash"]
# GEMINI_API_KEY = "..."
#
# ["openrouter/meta-llama/llama-3.1-70b-instruct"]
# OPENROUTER_API_KEY = "..."
# base_url = "https://openrouter.ai/api/v1"
`

// WriteCredentialsTemplate creates a commented credentials file at path,
// readable only by the owner. An existing file is left untouched and
// created is false.
func WriteCredentialsTemplate(path string) (created bool, err error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to stat credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return false, fmt.Errorf("failed to create credentials dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(credentialsTemplate), 0o600); err != nil {
		return false, fmt.Errorf("failed to write credentials: %w", err)
	}
	return true, nil
}
