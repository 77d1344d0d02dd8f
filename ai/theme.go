package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const themeSystemPrompt = "You are a strict JSON generator."

const maxSummaryLength = 140

// ClassifyTheme asks the model to classify one feedback message into a
// theme, sentiment, confidence and one-line summary. The model is
// instructed to pick from FeedbackThemes but the returned value is not
// re-validated against the enumeration.
func (c *Client) ClassifyTheme(ctx context.Context, message string) (*ThemingResult, error) {
	themes, _ := json.Marshal(FeedbackThemes)

	prompt := fmt.Sprintf(`You are classifying user feedback for a SaaS product.

Return ONLY valid JSON with these fields:
{
  "theme": one of %s,
  "sentiment": "negative" | "neutral" | "positive",
  "confidence": number between 0 and 1,
  "summary": short 1-line summary (max 18 words)
}

Feedback:
"""%s"""
`, themes, message)

	text, err := c.complete(ctx, themeSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	raw, err := extractJSON(text)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Theme      string      `json:"theme"`
		Sentiment  string      `json:"sentiment"`
		Confidence float64     `json:"confidence"`
		Summary    interface{} `json:"summary"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("classifier output is not valid JSON: %w", err)
	}

	if parsed.Theme == "" || parsed.Sentiment == "" {
		return nil, fmt.Errorf("classifier output missing required fields: %q", truncate(raw, 120))
	}

	if !KnownTheme(parsed.Theme) {
		c.log.Warn("classifier returned theme outside the instructed enumeration", "theme", parsed.Theme)
	}

	summary := ""
	if s, ok := parsed.Summary.(string); ok {
		summary = strings.TrimSpace(s)
	}

	return &ThemingResult{
		Theme:      parsed.Theme,
		Sentiment:  parsed.Sentiment,
		Confidence: clamp01(parsed.Confidence),
		Summary:    truncate(summary, maxSummaryLength),
	}, nil
}
