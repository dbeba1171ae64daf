package chatpanel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client talks to the backend movie chat endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 45 * time.Second,
		},
	}
}

type chatRequest struct {
	MovieContext any    `json:"movieContext"`
	Question     string `json:"question"`
}

type chatResponse struct {
	Reply   string `json:"reply"`
	Message string `json:"message"`
}

// Bind fixes the movie context and returns a SendFunc for a panel scoped to
// that movie.
func (c *Client) Bind(movie any) SendFunc {
	return func(ctx context.Context, question string) (string, error) {
		return c.Ask(ctx, movie, question)
	}
}

// Ask posts one question with its movie context and returns the reply text.
func (c *Client) Ask(ctx context.Context, movie any, question string) (string, error) {
	body, err := json.Marshal(chatRequest{MovieContext: movie, Question: question})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat/movie", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := payload.Message
		if msg == "" {
			msg = resp.Status
		}
		return "", fmt.Errorf("chat request failed: %s", msg)
	}
	return payload.Reply, nil
}
