package ai

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyResponse indicates the model produced no usable text.
	ErrEmptyResponse = errors.New("classifier returned an empty response")
	// ErrNoJSON indicates no JSON object could be located in the model
	// output.
	ErrNoJSON = errors.New("no JSON object found in classifier output")
)

// extractJSON pulls the outermost {...} object out of free-form model
// output. Models occasionally wrap their JSON in prose or code fences, so
// the first '{' and the last '}' bound what gets parsed. This is an
// inherent fragility of the classifier contract, kept as an explicit
// parse-then-validate step.
func extractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("%w: %q", ErrNoJSON, truncate(text, 120))
	}

	return text[start : end+1], nil
}

// clamp01 forces a confidence value into [0,1]. NaN-ish inputs decoded as
// zero stay zero.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// truncate caps s at n bytes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// toStringSlice coerces a decoded JSON value into an ordered string slice.
// Anything that is not an array yields an empty slice.
func toStringSlice(v interface{}) []string {
	arr, ok := v.([]interface{})
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		switch s := item.(type) {
		case string:
			out = append(out, s)
		default:
			out = append(out, fmt.Sprintf("%v", item))
		}
	}
	return out
}
