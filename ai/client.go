package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"feedback-insights-demo/backend/pkg/logger"
	"feedback-insights-demo/backend/pkg/resilience"
)

const defaultBaseURL = "https://api.groq.com/openai/v1"

// Config holds the settings for the classifier client.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// Timeout bounds every completion call end to end.
	Timeout time.Duration
}

// Client calls the external chat-completion capability used for feedback
// theming and solution generation. The wire protocol is the
// OpenAI-compatible chat completions endpoint exposed by Groq.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	log        *logger.Logger
}

// NewClient creates a classifier client. The API key is required; model and
// base URL fall back to defaults.
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("classifier API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "llama-3.1-8b-instant"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 25 * time.Second
	}

	return &Client{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("classifier"), log),
		log:        log,
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// complete sends one system+user exchange and returns the raw assistant
// text.
func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	requestBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.2,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var content string
	err = c.breaker.Execute(func() error {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("error making completion request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("error reading response body: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("completion request failed with status %d: %s", resp.StatusCode, truncate(string(body), 200))
		}

		var chatResp chatResponse
		if err := json.Unmarshal(body, &chatResp); err != nil {
			return fmt.Errorf("error unmarshaling response: %w", err)
		}
		if chatResp.Error != nil {
			return fmt.Errorf("completion API error: %s", chatResp.Error.Message)
		}
		if len(chatResp.Choices) == 0 {
			return ErrEmptyResponse
		}

		content = chatResp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}

	return content, nil
}
