/*
Package groqservice wraps the Groq OpenAI-compatible chat completions API.
The rest of the application treats it as an opaque, fallible function:
prompt text in, JSON text out.
*/
package groqservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// --- Groq API Configuration ---
const (
	groqAPIURL     = "https://api.groq.com/openai/v1/chat/completions"
	defaultModel   = "llama-3.3-70b-versatile"
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	requestTimeout = 30 * time.Second
)

// --- Structs for Groq API Request/Response ---

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ResponseFormat struct {
	Type string `json:"type"` // "json_object" forces structured output
}

type ChatPayload struct {
	Model          string          `json:"model"`
	Messages       []ChatMessage   `json:"messages"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client is a reusable Groq API client. Construct it once with NewClient and
// inject it; handlers never reach for ambient state.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
	log        *zerolog.Logger
}

// NewClient reads GROQ_API_KEY from the environment. A missing key is not
// fatal here: every call will fail with a configuration error, and callers
// already have a degraded path for upstream failure.
func NewClient(log *zerolog.Logger) *Client {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		log.Warn().Msg("GROQ_API_KEY environment variable is not set; analysis calls will use fallbacks")
	}
	return &Client{
		apiKey:     apiKey,
		model:      defaultModel,
		httpClient: &http.Client{Timeout: requestTimeout},
		log:        log,
	}
}

// CompleteJSON sends a system+user prompt pair requesting a JSON object body
// and returns the raw content string of the first choice.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error) {
	return c.complete(ctx, systemPrompt, userPrompt, &ResponseFormat{Type: "json_object"}, temperature, maxTokens)
}

// Complete sends a plain-text completion request (used for one-liner chat
// summaries where no schema is enforced).
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	return c.complete(ctx, systemPrompt, userPrompt, nil, 0, maxTokens)
}

// complete handles the actual HTTP request with an exponential backoff retry loop.
func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string, format *ResponseFormat, temperature float64, maxTokens int) (string, error) {
	if c.apiKey == "" {
		c.log.Error().Msg("GROQ_API_KEY environment variable is not set")
		return "", fmt.Errorf("server is not configured for AI analysis")
	}

	payload := ChatPayload{
		Model: c.model,
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		ResponseFormat: format,
		Temperature:    temperature,
		MaxTokens:      maxTokens,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	var lastErr error

	for i := 0; i < maxRetries; i++ {
		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)

		req, err := http.NewRequestWithContext(reqCtx, "POST", groqAPIURL, bytes.NewBuffer(payloadBytes))
		if err != nil {
			cancel()
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		c.log.Info().Int("attempt", i+1).Msg("Calling Groq API...")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			cancel()
			lastErr = fmt.Errorf("request failed: %w", err)
			c.log.Warn().Err(lastErr).Msgf("Attempt %d failed", i+1)

			if ctx.Err() != nil {
				return "", lastErr
			}
			time.Sleep(initialBackoff * time.Duration(math.Pow(2, float64(i))))
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			cancel()
			lastErr = fmt.Errorf("API returned non-200 status: %s, Body: %s", resp.Status, string(body))
			c.log.Warn().Err(lastErr).Msgf("Attempt %d failed", i+1)

			time.Sleep(initialBackoff * time.Duration(math.Pow(2, float64(i))))
			continue
		}

		var chatResp ChatResponse
		if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
			resp.Body.Close()
			cancel()
			return "", fmt.Errorf("failed to decode response: %w", err)
		}
		resp.Body.Close()
		cancel()

		if len(chatResp.Choices) > 0 && chatResp.Choices[0].Message.Content != "" {
			return chatResp.Choices[0].Message.Content, nil
		}

		return "", fmt.Errorf("no content found in Groq response")
	}

	return "", fmt.Errorf("failed to call Groq API after %d attempts: %w", maxRetries, lastErr)
}
