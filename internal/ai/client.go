package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Embedder turns texts into equal-length numeric vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer produces free-form text from a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config for the OpenAI-compatible HTTP client.
type Config struct {
	BaseURL         string // e.g. https://api.openai.com/v1
	APIKey          string
	EmbedModel      string // e.g. text-embedding-3-small
	CompletionModel string // e.g. gpt-3.5-turbo-instruct
	Timeout         time.Duration
}

const (
	defaultTimeout = 30 * time.Second

	// embedBatchSize caps texts per embeddings request.
	embedBatchSize = 100

	completionMaxTokens   = 500
	completionTemperature = 0.7
)

// Client talks to an OpenAI-compatible API. It implements both Embedder and
// Completer.
type Client struct {
	httpClient *http.Client
	cfg        Config
	batchSize  int
}

var (
	_ Embedder  = (*Client)(nil)
	_ Completer = (*Client)(nil)
)

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
		batchSize:  embedBatchSize,
	}
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns one vector per input text, preserving order. Requests are
// batched to stay under API payload limits.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		var resp embeddingResponse
		err := c.post(ctx, "/embeddings", embeddingRequest{
			Model: c.cfg.EmbedModel,
			Input: texts[start:end],
		}, &resp)
		if err != nil {
			return nil, fmt.Errorf("embed batch starting at %d: %w", start, err)
		}
		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("embed batch starting at %d: got %d vectors for %d inputs", start, len(resp.Data), end-start)
		}
		for _, d := range resp.Data {
			out = append(out, d.Embedding)
		}
	}
	return out, nil
}

type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

// Complete runs a single text completion and returns the first choice.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	var resp completionResponse
	err := c.post(ctx, "/completions", completionRequest{
		Model:       c.cfg.CompletionModel,
		Prompt:      prompt,
		MaxTokens:   completionMaxTokens,
		Temperature: completionTemperature,
	}, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return resp.Choices[0].Text, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("POST %s: status %d: %s", path, resp.StatusCode, snippet)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
