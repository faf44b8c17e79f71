package verdict

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/fdecunta/screenie/internal/domain"
)

// Output is the validated decision of one model response.
type Output struct {
	Verdict domain.Verdict `json:"verdict"`
	Reason  string         `json:"reason"`
}

// Parse locates the first JSON object in text and validates it. Keys other
// than verdict and reason are ignored. Every failure is a malformed-output
// error: domain.ErrNoJSONObject, domain.ErrInvalidJSON,
// domain.ErrInvalidVerdict or domain.ErrInvalidReason.
func Parse(text string) (*Output, error) {
	obj, ok := FindJSONObject(text)
	if !ok {
		return nil, domain.ErrNoJSONObject
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidJSON, err)
	}

	rawVerdict, ok := fields["verdict"]
	if !ok {
		return nil, fmt.Errorf("%w: missing key", domain.ErrInvalidVerdict)
	}
	var v domain.Verdict
	if err := json.Unmarshal(rawVerdict, &v); err != nil {
		return nil, err
	}

	rawReason, ok := fields["reason"]
	if !ok {
		return nil, fmt.Errorf("%w: missing key", domain.ErrInvalidReason)
	}
	rawReason = bytes.TrimSpace(rawReason)
	if len(rawReason) == 0 || rawReason[0] != '"' {
		return nil, fmt.Errorf("%w: got %s", domain.ErrInvalidReason, rawReason)
	}
	var reason string
	if err := json.Unmarshal(rawReason, &reason); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidReason, err)
	}

	return &Output{Verdict: v, Reason: reason}, nil
}
