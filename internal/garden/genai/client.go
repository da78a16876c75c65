// internal/garden/genai/client.go

// Package genai is the text completion client used for plant profiles and
// plan sections. It speaks the Ollama generate API and the OpenAI chat
// completions API.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

var (
	ErrTimeout            = errors.New("GENAI_TIMEOUT")
	ErrCompletionFailed   = errors.New("GENAI_COMPLETION_FAILED")
	ErrEmptyCompletion    = errors.New("GENAI_EMPTY_COMPLETION")
	ErrServiceUnavailable = errors.New("GENAI_SERVICE_UNAVAILABLE")
)

// Completer produces a completion for a prompt. The context deadline is
// the call timeout. Implementations are safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

type Config struct {
	Provider    string
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float64
	MaxTokens   int
	MaxRetries  int

	// BreakerFailures consecutive failures open the breaker, which
	// half-opens after BreakerTimeout.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

type Client struct {
	config  Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  Logger
}

func NewClient(config Config, log Logger) *Client {
	if config.Provider == "" {
		config.Provider = ProviderOllama
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 2000
	}
	if config.BreakerFailures == 0 {
		config.BreakerFailures = 5
	}
	if config.BreakerTimeout <= 0 {
		config.BreakerTimeout = 30 * time.Second
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	c := &Client{
		config: config,
		// No client timeout; every call carries a context deadline.
		http:   &http.Client{},
		logger: log,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "genai-" + config.Provider,
		MaxRequests: 1,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
		// A caller giving up is not a service failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return c
}

func (c *Client) Model() string {
	return c.config.Model
}

// BreakerState reports the breaker state for health output.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.complete(ctx, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body, url, err := c.requestBody(prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ErrTimeout
			}
		}

		text, err := c.send(ctx, url, body)
		if err == nil {
			if strings.TrimSpace(text) == "" {
				return "", ErrEmptyCompletion
			}
			return text, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return "", ctx.Err()
			}
			return "", ErrTimeout
		}
		c.logger.Debug("completion attempt failed", map[string]interface{}{
			"attempt": attempt + 1,
			"error":   err.Error(),
		})
	}
	return "", fmt.Errorf("%w: %v", ErrCompletionFailed, lastErr)
}

func (c *Client) requestBody(prompt string) ([]byte, string, error) {
	switch c.config.Provider {
	case ProviderOpenAI:
		body, err := json.Marshal(map[string]interface{}{
			"model": c.config.Model,
			"messages": []map[string]string{
				{"role": "user", "content": prompt},
			},
			"temperature": c.config.Temperature,
			"max_tokens":  c.config.MaxTokens,
		})
		return body, c.config.BaseURL + "/v1/chat/completions", err
	case ProviderOllama:
		body, err := json.Marshal(map[string]interface{}{
			"model":  c.config.Model,
			"prompt": prompt,
			"stream": false,
			"options": map[string]interface{}{
				"temperature": c.config.Temperature,
				"num_predict": c.config.MaxTokens,
			},
		})
		return body, c.config.BaseURL + "/api/generate", err
	default:
		return nil, "", fmt.Errorf("unsupported provider %q", c.config.Provider)
	}
}

func (c *Client) send(ctx context.Context, url string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if c.config.Provider == ProviderOpenAI {
		var apiResponse struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
			return "", fmt.Errorf("decode error: %v", err)
		}
		if len(apiResponse.Choices) == 0 {
			return "", nil
		}
		return apiResponse.Choices[0].Message.Content, nil
	}

	var apiResponse struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", fmt.Errorf("decode error: %v", err)
	}
	return apiResponse.Response, nil
}
