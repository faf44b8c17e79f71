package recipe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fdecunta/screenie/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validTOML = `
[model]
model = "openai/gpt-4o-mini"
temperature = 0.0
seed = 42

[prompt]
text = """
Title: ${title}
Abstract: $abstract

Criteria:
${criteria}
"""

[criteria]
text = "Include field studies on pollinators."
`

const validYAML = `
model:
  model: gemini/gemini-2.0-flash
  temperature: 0.2
  max_tokens: 512
  timeout: 30
prompt:
  text: "Title: ${title} (${year})"
criteria:
  text: ""
`

func TestParse_TOML(t *testing.T) {
	r, err := Parse([]byte(validTOML), FormatTOML)
	require.NoError(t, err)

	assert.Equal(t, "openai/gpt-4o-mini", r.Model.Name)
	require.NotNil(t, r.Model.Temperature)
	assert.Equal(t, 0.0, *r.Model.Temperature)
	assert.Equal(t, DefaultMaxTokens, r.Model.MaxTokens)
	require.NotNil(t, r.Model.Seed)
	assert.Equal(t, 42, *r.Model.Seed)
	assert.Nil(t, r.Model.TopP)
	assert.Contains(t, r.Prompt.Text, "${criteria}")
	assert.Equal(t, "Include field studies on pollinators.", r.Criteria.Text)
}

func TestParse_YAML(t *testing.T) {
	r, err := Parse([]byte(validYAML), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "gemini", r.Model.Provider())
	assert.Equal(t, "gemini-2.0-flash", r.Model.ModelID())
	assert.Equal(t, 512, r.Model.MaxTokens)
	require.NotNil(t, r.Model.Timeout)
	assert.Equal(t, 30.0, *r.Model.Timeout)
	assert.Equal(t, "", r.Criteria.Text)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		errMsg  string
	}{
		{
			name:    "missing model section",
			input:   "[prompt]\ntext = \"x\"\n[criteria]\ntext = \"y\"\n",
			wantErr: domain.ErrMissingRequiredField,
			errMsg:  "model",
		},
		{
			name:    "missing model name",
			input:   "[model]\ntemperature = 0.5\n[prompt]\ntext = \"x\"\n[criteria]\ntext = \"y\"\n",
			wantErr: domain.ErrMissingRequiredField,
			errMsg:  "model.model",
		},
		{
			name:    "missing criteria",
			input:   "[model]\nmodel = \"gpt-4o\"\n[prompt]\ntext = \"x\"\n",
			wantErr: domain.ErrMissingRequiredField,
			errMsg:  "criteria",
		},
		{
			name:    "missing prompt text",
			input:   "[model]\nmodel = \"gpt-4o\"\n[prompt]\n[criteria]\ntext = \"y\"\n",
			wantErr: domain.ErrMissingRequiredField,
			errMsg:  "prompt",
		},
		{
			name:    "temperature at upper bound",
			input:   "[model]\nmodel = \"gpt-4o\"\ntemperature = 2.0\n[prompt]\ntext = \"x\"\n[criteria]\ntext = \"y\"\n",
			wantErr: domain.ErrInvalidField,
			errMsg:  "model.temperature",
		},
		{
			name:    "negative temperature",
			input:   "[model]\nmodel = \"gpt-4o\"\ntemperature = -0.1\n[prompt]\ntext = \"x\"\n[criteria]\ntext = \"y\"\n",
			wantErr: domain.ErrInvalidField,
			errMsg:  "model.temperature",
		},
		{
			name:    "zero max tokens",
			input:   "[model]\nmodel = \"gpt-4o\"\nmax_tokens = 0\n[prompt]\ntext = \"x\"\n[criteria]\ntext = \"y\"\n",
			wantErr: domain.ErrInvalidField,
			errMsg:  "model.max_tokens",
		},
		{
			name:    "unknown placeholder",
			input:   "[model]\nmodel = \"gpt-4o\"\n[prompt]\ntext = \"${keywords}\"\n[criteria]\ntext = \"y\"\n",
			wantErr: domain.ErrUnresolvedPlaceholder,
			errMsg:  "keywords",
		},
		{
			name:    "syntax error",
			input:   "[model\nmodel = ",
			wantErr: domain.ErrInvalidRecipe,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse([]byte(tt.input), FormatTOML)
			require.Error(t, err)
			assert.Nil(t, r)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestParse_UnsupportedFormat(t *testing.T) {
	_, err := Parse([]byte(validTOML), Format("ini"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestRecipe_Content(t *testing.T) {
	t.Run("equal recipes from different formats share content", func(t *testing.T) {
		fromTOML, err := Parse([]byte("[model]\nmodel = \"openai/gpt-4o\"\n[prompt]\ntext = \"$title\"\n[criteria]\ntext = \"c\"\n"), FormatTOML)
		require.NoError(t, err)
		fromYAML, err := Parse([]byte("model:\n  model: openai/gpt-4o\nprompt:\n  text: $title\ncriteria:\n  text: c\n"), FormatYAML)
		require.NoError(t, err)

		a, err := fromTOML.Content()
		require.NoError(t, err)
		b, err := fromYAML.Content()
		require.NoError(t, err)
		assert.Equal(t, a, b)
		assert.JSONEq(t, `{"model":{"model":"openai/gpt-4o","max_tokens":4096},"prompt":{"text":"$title"},"criteria":{"text":"c"}}`, a)
	})

	t.Run("different criteria change content", func(t *testing.T) {
		a := &Recipe{Model: Model{Name: "gpt-4o", MaxTokens: 10}, Criteria: Section{Text: "a"}}
		b := &Recipe{Model: Model{Name: "gpt-4o", MaxTokens: 10}, Criteria: Section{Text: "b"}}
		ca, _ := a.Content()
		cb, _ := b.Content()
		assert.NotEqual(t, ca, cb)
	})
}

func TestModel_Provider(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		modelID  string
	}{
		{"gpt-4o", "openai", "gpt-4o"},
		{"openai/gpt-4o", "openai", "gpt-4o"},
		{"Azure/my-deployment", "azure", "my-deployment"},
		{"openrouter/anthropic/claude-3.5-sonnet", "openrouter", "anthropic/claude-3.5-sonnet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Model{Name: tt.name}
			assert.Equal(t, tt.provider, m.Provider())
			assert.Equal(t, tt.modelID, m.ModelID())
		})
	}
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, []string{"title", "abstract"}, Placeholders("${title} $abstract ${title}"))
	assert.Empty(t, Placeholders("costs $$5 and nothing else"))
	assert.Equal(t, []string{"doi"}, Placeholders("price: $$ doi: $doi"))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("loads by extension", func(t *testing.T) {
		path := filepath.Join(dir, "recipe.yml")
		require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o644))

		r, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "gemini/gemini-2.0-flash", r.Model.Name)
	})

	t.Run("rejects unknown extension", func(t *testing.T) {
		path := filepath.Join(dir, "recipe.json")
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

		_, err := Load(path)
		assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "absent.toml"))
		assert.Error(t, err)
	})
}
