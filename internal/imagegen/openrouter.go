package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	// OpenRouterBaseURL is the OpenRouter API root.
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"

	// DefaultModel is the default image generation model.
	DefaultModel = "google/gemini-2.5-flash-image"
)

// OpenRouterConfig holds configuration for the OpenRouter image client.
type OpenRouterConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	Timeout           time.Duration
	RequestsPerMinute int
	MaxRetries        int
	RetryDelay        time.Duration
	Logger            *slog.Logger
}

// OpenRouterClient generates images through OpenRouter's chat completions
// endpoint with image output modality.
type OpenRouterClient struct {
	apiKey     string
	baseURL    string
	model      string
	client     *http.Client
	limiter    *RateLimiter
	maxRetries uint
	retryDelay time.Duration
	logger     *slog.Logger
}

var _ Generator = (*OpenRouterClient)(nil)

// NewOpenRouterClient creates an image client.
func NewOpenRouterClient(cfg OpenRouterConfig) *OpenRouterClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = OpenRouterBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		// Image models routinely take over a minute per render.
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &OpenRouterClient{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		client:     &http.Client{Timeout: cfg.Timeout},
		limiter:    NewRateLimiter(cfg.RequestsPerMinute),
		maxRetries: uint(cfg.MaxRetries),
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
	}
}

// Model returns the default model identifier.
func (c *OpenRouterClient) Model() string { return c.model }

// LimiterStatus exposes the rate limiter state for the status endpoint.
func (c *OpenRouterClient) LimiterStatus() RateLimiterStatus { return c.limiter.Status() }

// retryableError marks an error worth another attempt (rate limits,
// server errors, transport failures).
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Generate renders one image. It waits for a rate limit token, then calls
// the chat completions endpoint with the image modality and extracts the
// first returned data URL. Retries with exponential backoff on rate limits
// and server errors.
func (c *OpenRouterClient) Generate(ctx context.Context, req *Request) (*Result, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("openrouter api key is not configured")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("prompt is empty")
	}
	model := req.Model
	if model == "" {
		model = c.model
	}

	start := time.Now()
	var result *Result
	err := retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			res, err := c.generateOnce(ctx, model, req)
			if err != nil {
				var rerr *retryableError
				if errors.As(err, &rerr) {
					return err
				}
				return retry.Unrecoverable(err)
			}
			result = res
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.maxRetries),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxDelay(30*time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("image generation retry", "attempt", n+1, "model", model, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}
	result.Model = model
	result.Elapsed = time.Since(start)
	return result, nil
}

func (c *OpenRouterClient) generateOnce(ctx context.Context, model string, req *Request) (*Result, error) {
	prompt := req.Prompt
	if req.AspectRatio != "" {
		prompt += "\n\nAspect ratio: " + req.AspectRatio
	}

	content := []orContent{{Type: "text", Text: prompt}}
	for _, img := range req.ReferenceImages {
		content = append(content, orContent{
			Type: "image_url",
			ImageURL: &orImageURL{
				URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(img),
			},
		})
	}

	body, err := json.Marshal(orRequest{
		Model:      model,
		Messages:   []orMessage{{Role: "user", Content: content}},
		Modalities: []string{"image", "text"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("HTTP-Referer", "https://github.com/jackzampolin/prompter")
	httpReq.Header.Set("X-Title", "Prompter")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &retryableError{fmt.Errorf("request failed: %w", err)}
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, &retryableError{fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		c.limiter.Record429()
		return nil, &retryableError{fmt.Errorf("OpenRouter rate limited (status 429): %s", truncate(respBody))}
	}
	if resp.StatusCode >= 500 {
		return nil, &retryableError{fmt.Errorf("OpenRouter error (status %d): %s", resp.StatusCode, truncate(respBody))}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenRouter error (status %d): %s", resp.StatusCode, truncate(respBody))
	}

	var orResp orResponse
	if err := json.Unmarshal(respBody, &orResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if orResp.Error != nil {
		return nil, fmt.Errorf("OpenRouter API error: %s", orResp.Error.Message)
	}
	if len(orResp.Choices) == 0 {
		return nil, &retryableError{fmt.Errorf("empty choices in response (model=%s)", model)}
	}

	for _, img := range orResp.Choices[0].Message.Images {
		if img.ImageURL == nil {
			continue
		}
		data, mime, err := decodeDataURL(img.ImageURL.URL)
		if err != nil {
			return nil, fmt.Errorf("bad image in response: %w", err)
		}
		return &Result{Data: data, MimeType: mime}, nil
	}
	return nil, fmt.Errorf("model %s returned no image", model)
}

// decodeDataURL splits a data: URL into decoded bytes and mime type.
func decodeDataURL(url string) ([]byte, string, error) {
	const prefix = "data:"
	if !strings.HasPrefix(url, prefix) {
		return nil, "", fmt.Errorf("expected data URL, got %q", truncateStr(url))
	}
	rest := url[len(prefix):]
	sep := strings.Index(rest, ",")
	if sep < 0 {
		return nil, "", fmt.Errorf("malformed data URL")
	}
	meta, payload := rest[:sep], rest[sep+1:]
	mime := strings.TrimSuffix(meta, ";base64")
	if mime == meta {
		return nil, "", fmt.Errorf("data URL is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image data: %w", err)
	}
	return data, mime, nil
}

func truncate(b []byte) string { return truncateStr(string(b)) }

func truncateStr(s string) string {
	if len(s) > 300 {
		return s[:300] + "..."
	}
	return s
}

// OpenRouter API types

type orRequest struct {
	Model      string      `json:"model"`
	Messages   []orMessage `json:"messages"`
	Modalities []string    `json:"modalities,omitempty"`
}

type orMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []orContent
}

type orContent struct {
	Type     string      `json:"type"`
	Text     string      `json:"text,omitempty"`
	ImageURL *orImageURL `json:"image_url,omitempty"`
}

type orImageURL struct {
	URL string `json:"url"`
}

type orResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content any    `json:"content"`
			Images  []struct {
				Type     string      `json:"type"`
				ImageURL *orImageURL `json:"image_url"`
			} `json:"images,omitempty"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *orError `json:"error,omitempty"`
}

type orError struct {
	Message string `json:"message"`
	Code    any    `json:"code,omitempty"`
}
