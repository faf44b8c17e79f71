package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fdecunta/screenie/internal/recipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatBody = `{
  "id": "chatcmpl-9x",
  "object": "chat.completion",
  "model": "gpt-4o-mini-2024-07-18",
  "system_fingerprint": "fp_44709d6fcb",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"verdict\": 1, \"reason\": \"ok\"}"}, "finish_reason": "stop"}],
  "usage": {"prompt_tokens": 120, "completion_tokens": 14, "total_tokens": 134},
  "service_tier": "default"
}`

// chatServer answers every chat completion with body and hands the decoded
// request fields to the test.
func chatServer(t *testing.T, body string, requests chan<- map[string]json.RawMessage) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		requests <- fields
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOpenAIProvider_ExplicitZeroTemperature(t *testing.T) {
	requests := make(chan map[string]json.RawMessage, 1)
	server := chatServer(t, chatBody, requests)

	model := recipe.Model{Name: "openai/gpt-4o-mini", MaxTokens: 64, Temperature: floatPtr(0)}
	provider := NewOpenAIProvider("sk-test", server.URL+"/v1", model)

	_, err := provider.Complete(context.Background(), Request{Model: model, Messages: UserMessage("screen this")})
	require.NoError(t, err)

	fields := <-requests
	require.Contains(t, fields, "temperature")
	assert.JSONEq(t, `0`, string(fields["temperature"]))
	assert.JSONEq(t, `"gpt-4o-mini"`, string(fields["model"]))
	assert.JSONEq(t, `64`, string(fields["max_tokens"]))
}

func TestOpenAIProvider_UnsetTemperatureIsOmitted(t *testing.T) {
	requests := make(chan map[string]json.RawMessage, 1)
	server := chatServer(t, chatBody, requests)

	model := recipe.Model{Name: "openai/gpt-4o-mini", MaxTokens: 64}
	provider := NewOpenAIProvider("sk-test", server.URL+"/v1", model)

	_, err := provider.Complete(context.Background(), Request{Model: model, Messages: UserMessage("screen this")})
	require.NoError(t, err)

	fields := <-requests
	assert.NotContains(t, fields, "temperature")
}

func TestOpenAIProvider_RawIsProviderBody(t *testing.T) {
	requests := make(chan map[string]json.RawMessage, 1)
	server := chatServer(t, chatBody, requests)

	model := recipe.Model{Name: "openai/gpt-4o-mini", MaxTokens: 64}
	provider := NewOpenAIProvider("sk-test", server.URL+"/v1", model)

	resp, err := provider.Complete(context.Background(), Request{Model: model, Messages: UserMessage("screen this")})
	require.NoError(t, err)
	<-requests

	assert.Equal(t, `{"verdict": 1, "reason": "ok"}`, resp.Text)
	assert.JSONEq(t, chatBody, string(resp.Raw))
	// not modeled by the SDK response type
	assert.Contains(t, string(resp.Raw), `"service_tier": "default"`)
}

func TestRecordingTransport_PassesThroughWithoutExchange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		_, _ = w.Write(data)
	}))
	t.Cleanup(server.Close)

	client := &http.Client{Transport: &recordingTransport{base: http.DefaultTransport}}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, server.URL, strings.NewReader(`{"temperature":0.7}`))
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"temperature":0.7}`, string(data))
}

func TestSetJSONField(t *testing.T) {
	t.Run("adds a missing field", func(t *testing.T) {
		out, err := setJSONField([]byte(`{"model":"gpt-4o","max_tokens":10}`), "temperature", 0)
		require.NoError(t, err)
		assert.JSONEq(t, `{"model":"gpt-4o","max_tokens":10,"temperature":0}`, string(out))
	})

	t.Run("replaces an existing field", func(t *testing.T) {
		out, err := setJSONField([]byte(`{"temperature":1e-45}`), "temperature", 0)
		require.NoError(t, err)
		assert.JSONEq(t, `{"temperature":0}`, string(out))
	})

	t.Run("rejects a non-object body", func(t *testing.T) {
		_, err := setJSONField([]byte(`[1,2]`), "temperature", 0)
		assert.Error(t, err)
	})
}

func TestExchange_RawBody(t *testing.T) {
	t.Run("recorded body wins", func(t *testing.T) {
		ex := &exchange{body: []byte(`{"id":"chatcmpl-1","extra":true}`)}
		raw, err := ex.rawBody(map[string]string{"id": "other"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"chatcmpl-1","extra":true}`, string(raw))
	})

	t.Run("falls back to the decoded response", func(t *testing.T) {
		ex := &exchange{body: []byte("not json")}
		raw, err := ex.rawBody(map[string]string{"id": "chatcmpl-2"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"chatcmpl-2"}`, string(raw))
	})
}
