package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const solutionSystemPrompt = "You output strict JSON only."

const maxSolutionSummaryLength = 250

// GenerateSolution asks the model for a remediation plan covering a theme
// cluster's feedback messages.
func (c *Client) GenerateSolution(ctx context.Context, theme string, feedbackMessages []string) (*SolutionPlan, error) {
	if len(feedbackMessages) == 0 {
		return nil, errors.New("no feedback messages to generate a solution from")
	}

	var numbered strings.Builder
	for i, m := range feedbackMessages {
		fmt.Fprintf(&numbered, "%d. %s\n", i+1, m)
	}

	prompt := fmt.Sprintf(`You are an expert product engineer and support lead.

Your job:
Given a cluster theme and user feedback messages, generate a solution plan.

Return ONLY valid JSON exactly with this schema:
{
  "solution_summary": "string (max 25 words)",
  "root_cause": "string",
  "quick_fix": "string",
  "long_term_fix": "string",
  "action_steps": ["step1", "step2", "step3"],
  "priority": "low" | "medium" | "high",
  "confidence": number between 0 and 1
}

Theme: "%s"

Feedback messages:
%s`, theme, numbered.String())

	text, err := c.complete(ctx, solutionSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	raw, err := extractJSON(text)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		SolutionSummary string      `json:"solution_summary"`
		RootCause       string      `json:"root_cause"`
		QuickFix        string      `json:"quick_fix"`
		LongTermFix     string      `json:"long_term_fix"`
		ActionSteps     interface{} `json:"action_steps"`
		Priority        string      `json:"priority"`
		Confidence      float64     `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("solution output is not valid JSON: %w", err)
	}

	priority := parsed.Priority
	switch priority {
	case "low", "medium", "high":
	default:
		priority = "medium"
	}

	return &SolutionPlan{
		SolutionSummary: truncate(parsed.SolutionSummary, maxSolutionSummaryLength),
		RootCause:       parsed.RootCause,
		QuickFix:        parsed.QuickFix,
		LongTermFix:     parsed.LongTermFix,
		ActionSteps:     toStringSlice(parsed.ActionSteps),
		Priority:        priority,
		Confidence:      clamp01(parsed.Confidence),
	}, nil
}
