package llm

import (
	"context"
	"fmt"

	"github.com/fdecunta/screenie/internal/recipe"
	"google.golang.org/genai"
)

// GenerateAPI is the subset of the genai models service used for completions.
type GenerateAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiProvider talks to the Gemini API.
type GeminiProvider struct {
	api GenerateAPI
}

// NewGeminiProvider creates a Gemini client for the model.
func NewGeminiProvider(ctx context.Context, apiKey, baseURL string, model recipe.Model) (*GeminiProvider, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient(model),
	}
	if baseURL != "" {
		cfg.HTTPOptions.BaseURL = baseURL
	}
	if model.APIVersion != "" {
		cfg.HTTPOptions.APIVersion = model.APIVersion
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiProvider{api: client.Models}, nil
}

// Complete sends the messages with GenerateContent. System messages become
// the system instruction.
func (p *GeminiProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	m := req.Model
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(m.MaxTokens),
	}
	if m.Temperature != nil {
		config.Temperature = ptr(float32(*m.Temperature))
	}
	if m.TopP != nil {
		config.TopP = ptr(float32(*m.TopP))
	}
	if m.N != nil {
		config.CandidateCount = int32(*m.N)
	}
	if m.Seed != nil {
		config.Seed = ptr(int32(*m.Seed))
	}

	var contents []*genai.Content
	for _, msg := range req.Messages {
		if msg.Role == RoleSystem {
			config.SystemInstruction = genai.NewContentFromText(msg.Content, genai.RoleUser)
			continue
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
	}

	ex := &exchange{}
	resp, err := p.api.GenerateContent(withExchange(ctx, ex), m.ModelID(), contents, config)
	if err != nil {
		return nil, gatewayError(err)
	}

	raw, err := ex.rawBody(resp)
	if err != nil {
		return nil, err
	}

	// a blocked prompt has no candidates and is returned with empty Text
	out := &Response{
		Model: resp.ModelVersion,
		Raw:   raw,
	}
	if len(resp.Candidates) > 0 {
		out.Text = resp.Text()
	}
	if out.Model == "" {
		out.Model = m.ModelID()
	}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

func ptr[T any](v T) *T {
	return &v
}
