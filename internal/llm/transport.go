package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type exchangeKey struct{}

// exchange carries per-completion transport settings and records the body
// the provider sent back.
type exchange struct {
	// zeroTemperature forces "temperature": 0 into the request body. The
	// go-openai request omits a zero temperature, so the provider default
	// would apply instead.
	zeroTemperature bool
	body            []byte
}

func withExchange(ctx context.Context, ex *exchange) context.Context {
	return context.WithValue(ctx, exchangeKey{}, ex)
}

func exchangeFrom(ctx context.Context) *exchange {
	ex, _ := ctx.Value(exchangeKey{}).(*exchange)
	return ex
}

// rawBody returns the recorded provider body when it is a JSON document, and
// the re-encoded SDK response otherwise.
func (ex *exchange) rawBody(decoded any) (json.RawMessage, error) {
	if len(ex.body) > 0 && json.Valid(ex.body) {
		return json.RawMessage(ex.body), nil
	}
	raw, err := json.Marshal(decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return raw, nil
}

// recordingTransport keeps the response body of requests made under an
// exchange.
type recordingTransport struct {
	base http.RoundTripper
}

func (t *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ex := exchangeFrom(req.Context())
	if ex == nil {
		return t.base.RoundTrip(req)
	}

	if ex.zeroTemperature && req.Body != nil {
		body, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		if body, err = setJSONField(body, "temperature", 0); err != nil {
			return nil, err
		}
		req = req.Clone(req.Context())
		req.Body = io.NopCloser(bytes.NewReader(body))
		req.ContentLength = int64(len(body))
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	ex.body = body
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

// setJSONField sets a top-level field of a JSON object, keeping the others
// byte for byte.
func setJSONField(body []byte, name string, value any) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode request body: %w", err)
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", name, err)
	}
	fields[name] = encoded
	return json.Marshal(fields)
}
