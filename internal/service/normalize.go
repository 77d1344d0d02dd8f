package service

import (
	"strings"

	"feedback-insights-demo/backend/pkg/errors"
)

const (
	minThemeLength = 2
	maxThemeLength = 100
)

// NormalizeTheme canonicalizes a client-supplied theme: trimmed,
// case-folded, inner whitespace collapsed. Returns a validation error when
// the normalized form falls outside 2-100 characters.
func NormalizeTheme(raw string) (string, error) {
	theme := strings.ToLower(strings.TrimSpace(raw))
	theme = strings.Join(strings.Fields(theme), " ")

	if len(theme) < minThemeLength || len(theme) > maxThemeLength {
		return "", errors.NewBadRequestError(errors.CodeValidation, "Invalid theme.")
	}
	return theme, nil
}
