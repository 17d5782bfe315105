package client

import (
	"encoding/json"
	"fmt"
)

// Result is a response body that either parsed as JSON or is kept as raw text.
// The status is recorded but success and failure statuses are not told apart.
type Result struct {
	Status int
	isJSON bool
	body   []byte
}

// NewResult classifies body as JSON or text
func NewResult(status int, body []byte) Result {
	return Result{Status: status, isJSON: json.Valid(body), body: body}
}

// IsJSON reports whether the body parsed as JSON
func (r Result) IsJSON() bool { return r.isJSON }

// JSON returns the raw JSON body, or nil for a text result
func (r Result) JSON() json.RawMessage {
	if !r.isJSON {
		return nil
	}
	return json.RawMessage(r.body)
}

// Text returns the body as a string regardless of its kind
func (r Result) Text() string { return string(r.body) }

// Decode unmarshals a JSON result into v
func (r Result) Decode(v any) error {
	if !r.isJSON {
		return fmt.Errorf("%w: %q", ErrNotJSON, truncate(r.Text(), 120))
	}
	return json.Unmarshal(r.body, v)
}

// Value returns the parsed JSON value or, for a text result, the raw string
func (r Result) Value() any {
	if !r.isJSON {
		return r.Text()
	}
	var v any
	if err := json.Unmarshal(r.body, &v); err != nil {
		return r.Text()
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
