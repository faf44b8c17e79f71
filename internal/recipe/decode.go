package recipe

import (
	"bytes"
	"fmt"

	"github.com/fdecunta/screenie/internal/domain"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a recipe file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// file mirrors the on-disk layout. Pointers distinguish absent keys from
// zero values.
type file struct {
	Model    *fileModel   `toml:"model" yaml:"model"`
	Prompt   *fileSection `toml:"prompt" yaml:"prompt"`
	Criteria *fileSection `toml:"criteria" yaml:"criteria"`
}

type fileModel struct {
	Model        *string  `toml:"model" yaml:"model"`
	Temperature  *float64 `toml:"temperature" yaml:"temperature"`
	MaxTokens    *int     `toml:"max_tokens" yaml:"max_tokens"`
	TopP         *float64 `toml:"top_p" yaml:"top_p"`
	N            *int     `toml:"n" yaml:"n"`
	Seed         *int     `toml:"seed" yaml:"seed"`
	Timeout      *float64 `toml:"timeout" yaml:"timeout"`
	DeploymentID string   `toml:"deployment_id" yaml:"deployment_id"`
	BaseURL      string   `toml:"base_url" yaml:"base_url"`
	APIVersion   string   `toml:"api_version" yaml:"api_version"`
}

type fileSection struct {
	Text *string `toml:"text" yaml:"text"`
}

// Parse decodes data in the given format and validates the result.
func Parse(data []byte, format Format) (*Recipe, error) {
	var f file
	switch format {
	case FormatTOML:
		if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&f); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRecipe, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRecipe, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}

	r, err := f.recipe()
	if err != nil {
		return nil, err
	}
	if err := Validate(r); err != nil {
		return nil, err
	}
	return r, nil
}

func (f *file) recipe() (*Recipe, error) {
	if f.Model == nil {
		return nil, fmt.Errorf("%w: model", domain.ErrMissingRequiredField)
	}
	if f.Model.Model == nil {
		return nil, fmt.Errorf("%w: model.model", domain.ErrMissingRequiredField)
	}
	if f.Prompt == nil {
		return nil, fmt.Errorf("%w: prompt", domain.ErrMissingRequiredField)
	}
	if f.Prompt.Text == nil {
		return nil, fmt.Errorf("%w: prompt.text", domain.ErrMissingRequiredField)
	}
	if f.Criteria == nil {
		return nil, fmt.Errorf("%w: criteria", domain.ErrMissingRequiredField)
	}
	if f.Criteria.Text == nil {
		return nil, fmt.Errorf("%w: criteria.text", domain.ErrMissingRequiredField)
	}

	maxTokens := DefaultMaxTokens
	if f.Model.MaxTokens != nil {
		maxTokens = *f.Model.MaxTokens
	}

	return &Recipe{
		Model: Model{
			Name:         *f.Model.Model,
			Temperature:  f.Model.Temperature,
			MaxTokens:    maxTokens,
			TopP:         f.Model.TopP,
			N:            f.Model.N,
			Seed:         f.Model.Seed,
			Timeout:      f.Model.Timeout,
			DeploymentID: f.Model.DeploymentID,
			BaseURL:      f.Model.BaseURL,
			APIVersion:   f.Model.APIVersion,
		},
		Prompt:   Section{Text: *f.Prompt.Text},
		Criteria: Section{Text: *f.Criteria.Text},
	}, nil
}
