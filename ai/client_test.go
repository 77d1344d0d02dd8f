package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"feedback-insights-demo/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompletionServer answers the chat completions endpoint with a fixed
// assistant message.
func fakeCompletionServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "Bearer "))

		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		})
	}))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(Config{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	}, logger.New(logger.DefaultConfig()))
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{}, logger.New(logger.DefaultConfig()))
	assert.Error(t, err)
}

func TestClassifyTheme(t *testing.T) {
	srv := fakeCompletionServer(t, `Here you go:
{"theme":"login_issue","sentiment":"negative","confidence":1.7,"summary":"Users cannot log in after the update"}`, http.StatusOK)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	result, err := client.ClassifyTheme(context.Background(), "I can't log in anymore")
	require.NoError(t, err)

	assert.Equal(t, "login_issue", result.Theme)
	assert.Equal(t, "negative", result.Sentiment)
	assert.Equal(t, 1.0, result.Confidence, "confidence must be clamped into [0,1]")
	assert.Equal(t, "Users cannot log in after the update", result.Summary)
}

func TestClassifyThemeMissingFields(t *testing.T) {
	srv := fakeCompletionServer(t, `{"confidence":0.9}`, http.StatusOK)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.ClassifyTheme(context.Background(), "hello")
	assert.Error(t, err)
}

func TestClassifyThemeNonJSONOutput(t *testing.T) {
	srv := fakeCompletionServer(t, "I refuse to answer in JSON.", http.StatusOK)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.ClassifyTheme(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestClassifyThemeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.ClassifyTheme(context.Background(), "hello")
	assert.Error(t, err)
}

func TestGenerateSolution(t *testing.T) {
	srv := fakeCompletionServer(t, `{
  "solution_summary": "Fix session token expiry handling",
  "root_cause": "Tokens are invalidated on deploy",
  "quick_fix": "Extend token grace period",
  "long_term_fix": "Move to rolling session refresh",
  "action_steps": ["Audit token lifecycle", "Add refresh endpoint"],
  "priority": "urgent",
  "confidence": 0.8
}`, http.StatusOK)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	plan, err := client.GenerateSolution(context.Background(), "login_issue", []string{"cannot log in", "session drops"})
	require.NoError(t, err)

	assert.Equal(t, "Fix session token expiry handling", plan.SolutionSummary)
	assert.Equal(t, []string{"Audit token lifecycle", "Add refresh endpoint"}, plan.ActionSteps)
	assert.Equal(t, "medium", plan.Priority, "unknown priority falls back to medium")
	assert.Equal(t, 0.8, plan.Confidence)
}

func TestGenerateSolutionRequiresMessages(t *testing.T) {
	client := newTestClient(t, "http://unused.invalid")
	_, err := client.GenerateSolution(context.Background(), "login_issue", nil)
	assert.Error(t, err)
}
