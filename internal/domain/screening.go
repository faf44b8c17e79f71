package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Verdict is the model's inclusion decision.
type Verdict int

const (
	VerdictExclude Verdict = 0
	VerdictInclude Verdict = 1
)

// String returns a human-readable label
func (v Verdict) String() string {
	switch v {
	case VerdictInclude:
		return "include"
	case VerdictExclude:
		return "exclude"
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

// UnmarshalJSON accepts the number 0 or 1, or the strings "0" and "1".
// Booleans, other numbers and other strings are rejected.
func (v *Verdict) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidVerdict, data)
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidVerdict, data)
		}
		raw = n.String()
	}

	switch raw {
	case "0":
		*v = VerdictExclude
	case "1":
		*v = VerdictInclude
	default:
		return fmt.Errorf("%w: %s", ErrInvalidVerdict, data)
	}
	return nil
}

// MarshalJSON always encodes the verdict as a number.
func (v Verdict) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%d", int(v))), nil
}

// LLMCall is the audit record of one model exchange. It is persisted even
// when the response cannot be parsed.
type LLMCall struct {
	ID           int64
	RecipeID     int64
	StudyID      int64
	Model        string
	InputTokens  int
	OutputTokens int
	FullResponse []byte
	CreatedAt    time.Time
}

// ScreeningResult is the parsed verdict of a study under a recipe. At most
// one exists per (recipe, study).
type ScreeningResult struct {
	ID        int64
	RecipeID  int64
	StudyID   int64
	CallID    int64
	Verdict   Verdict
	Reason    string
	CreatedAt time.Time
}
