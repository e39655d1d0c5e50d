package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wordarena/backend/internal/config"
)

const systemPrompt = "You are a competitive game player. Read the game " +
	"instructions carefully and reply with a single action in the required format."

// OpenRouterAgent calls an OpenRouter-compatible chat-completions API. One
// instance serves one Standard participant; the participant name doubles as
// the provider model name.
type OpenRouterAgent struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int
}

func NewOpenRouterAgent(cfg *config.Config, model string) *OpenRouterAgent {
	return &OpenRouterAgent{
		baseURL:    strings.TrimRight(cfg.OpenRouterBaseURL, "/"),
		apiKey:     cfg.OpenRouterAPIKey,
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		maxRetries: 3,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (a *OpenRouterAgent) Act(ctx context.Context, observation string) (string, error) {
	payload := chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: observation},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < a.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(200*attempt) * time.Millisecond):
			}
		}

		action, err := a.once(ctx, body)
		if err == nil {
			return action, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("agent %s: %w", a.model, lastErr)
}

func (a *OpenRouterAgent) once(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completions returned %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("provider error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}

	action := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if action == "" {
		return "", fmt.Errorf("chat response has empty content")
	}
	return action, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
