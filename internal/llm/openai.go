package llm

import (
	"context"
	"strings"

	"github.com/fdecunta/screenie/internal/recipe"
	openai "github.com/sashabaranov/go-openai"
)

// ChatAPI is the subset of the go-openai client used for completions.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIProvider talks to OpenAI and OpenAI-compatible endpoints.
type OpenAIProvider struct {
	api ChatAPI
}

// NewOpenAIProvider creates a provider for an OpenAI-compatible endpoint.
// An empty baseURL targets api.openai.com.
func NewOpenAIProvider(apiKey, baseURL string, model recipe.Model) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = httpClient(model)
	return &OpenAIProvider{api: openai.NewClientWithConfig(cfg)}
}

// NewAzureProvider creates a provider for an Azure OpenAI resource. The
// deployment defaults to the model id.
func NewAzureProvider(apiKey, baseURL string, model recipe.Model) *OpenAIProvider {
	cfg := openai.DefaultAzureConfig(apiKey, baseURL)
	if model.APIVersion != "" {
		cfg.APIVersion = model.APIVersion
	}
	deployment := model.DeploymentID
	if deployment == "" {
		deployment = model.ModelID()
	}
	cfg.AzureModelMapperFunc = func(string) string { return deployment }
	cfg.HTTPClient = httpClient(model)
	return &OpenAIProvider{api: openai.NewClientWithConfig(cfg)}
}

// Complete sends the messages as a chat completion. A response without
// choices, such as a content-filtered one, is returned with empty Text.
func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	t := req.Model.Temperature
	ex := &exchange{zeroTemperature: t != nil && *t == 0}

	resp, err := p.api.CreateChatCompletion(withExchange(ctx, ex), chatRequest(req))
	if err != nil {
		return nil, gatewayError(err)
	}

	raw, err := ex.rawBody(resp)
	if err != nil {
		return nil, err
	}

	out := &Response{
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		Raw:              raw,
	}
	if len(resp.Choices) > 0 {
		out.Text = resp.Choices[0].Message.Content
	}
	return out, nil
}

func chatRequest(req Request) openai.ChatCompletionRequest {
	m := req.Model

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content})
	}

	out := openai.ChatCompletionRequest{
		Model:    m.ModelID(),
		Messages: messages,
	}

	if usesCompletionTokens(m.ModelID()) {
		out.MaxCompletionTokens = m.MaxTokens
	} else {
		out.MaxTokens = m.MaxTokens
	}

	// an explicit zero is written into the body by the transport
	if m.Temperature != nil {
		out.Temperature = float32(*m.Temperature)
	}
	if m.TopP != nil {
		out.TopP = float32(*m.TopP)
	}
	if m.N != nil {
		out.N = *m.N
	}
	if m.Seed != nil {
		seed := *m.Seed
		out.Seed = &seed
	}

	return out
}

// reasoning models reject max_tokens
func usesCompletionTokens(model string) bool {
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}
