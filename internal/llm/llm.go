// Package llm sends screening prompts to language model providers.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fdecunta/screenie/internal/domain"
	"github.com/fdecunta/screenie/internal/recipe"
)

// Message roles
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is a role-tagged chat message.
type Message struct {
	Role    string
	Content string
}

// UserMessage wraps text as a single user message.
func UserMessage(text string) []Message {
	return []Message{{Role: RoleUser, Content: text}}
}

// Request is a single completion request.
type Request struct {
	Model    recipe.Model
	Messages []Message
}

// Response exposes the assistant text and token usage of a completion.
// Text is empty when the provider returned no completion. Raw is the
// provider's response body, kept for the audit log.
type Response struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	Raw              json.RawMessage
}

// Gateway performs one synchronous completion. Implementations never retry.
type Gateway interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Credentials are the secrets for one model. They are passed explicitly to
// the provider and never written to the process environment.
type Credentials struct {
	APIKey  string
	BaseURL string
}

type providerKind int

const (
	kindOpenAICompatible providerKind = iota
	kindAzure
	kindGemini
)

type providerSpec struct {
	kind    providerKind
	baseURL string
}

var providers = map[string]providerSpec{
	"openai":      {kind: kindOpenAICompatible},
	"azure":       {kind: kindAzure},
	"anthropic":   {kind: kindOpenAICompatible, baseURL: "https://api.anthropic.com/v1/"},
	"xai":         {kind: kindOpenAICompatible, baseURL: "https://api.x.ai/v1"},
	"openrouter":  {kind: kindOpenAICompatible, baseURL: "https://openrouter.ai/api/v1"},
	"deepseek":    {kind: kindOpenAICompatible, baseURL: "https://api.deepseek.com/v1"},
	"gradient_ai": {kind: kindOpenAICompatible, baseURL: "https://inference.do-ai.run/v1"},
	"gemini":      {kind: kindGemini},
}

// Providers returns the supported provider names.
func Providers() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	return names
}

// APIKeyName is the credentials key holding the provider's API key,
// e.g. OPENAI_API_KEY.
func APIKeyName(provider string) string {
	return strings.ToUpper(provider) + "_API_KEY"
}

// New builds the gateway for the model's provider. Configuration problems
// are reported here, before any network call.
func New(ctx context.Context, model recipe.Model, creds Credentials) (Gateway, error) {
	provider := model.Provider()
	spec, ok := providers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, provider)
	}
	if creds.APIKey == "" {
		return nil, fmt.Errorf("%w: %s for %s", domain.ErrMissingCredentials, APIKeyName(provider), model.Name)
	}

	baseURL := spec.baseURL
	if creds.BaseURL != "" {
		baseURL = creds.BaseURL
	}
	if model.BaseURL != "" {
		baseURL = model.BaseURL
	}

	switch spec.kind {
	case kindAzure:
		if baseURL == "" {
			return nil, fmt.Errorf("%w: azure models need base_url", domain.ErrMissingCredentials)
		}
		return NewAzureProvider(creds.APIKey, baseURL, model), nil
	case kindGemini:
		return NewGeminiProvider(ctx, creds.APIKey, baseURL, model)
	default:
		return NewOpenAIProvider(creds.APIKey, baseURL, model), nil
	}
}

// httpClient records provider response bodies and applies the recipe's
// provider timeout, if any.
func httpClient(model recipe.Model) *http.Client {
	client := &http.Client{Transport: &recordingTransport{base: http.DefaultTransport}}
	if model.Timeout != nil {
		client.Timeout = time.Duration(*model.Timeout * float64(time.Second))
	}
	return client
}

func gatewayError(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrGatewayCall, err)
}
