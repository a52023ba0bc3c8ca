package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/presalekit/estimator/internal/common"
)

// OllamaClient implements Generator against an Ollama-compatible service.
// The chat endpoint is primary; retryable failures there fall through to the
// generate endpoint under the same retry policy.
type OllamaClient struct {
	cfg   common.LLMConfig
	retry RetryPolicy
	http  *http.Client
	log   *slog.Logger
}

func NewOllamaClient(cfg common.LLMConfig, retry RetryPolicy, log *slog.Logger) *OllamaClient {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 2 * time.Minute
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = 5 * time.Second
	}
	if cfg.HealthInterval <= 0 {
		cfg.HealthInterval = 2 * time.Second
	}
	if cfg.HealthWait <= 0 {
		cfg.HealthWait = 60 * time.Second
	}
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryPolicy()
	}
	if log == nil {
		log = slog.Default()
	}
	return &OllamaClient{
		cfg:   cfg,
		retry: retry,
		http:  &http.Client{Timeout: cfg.CallTimeout},
		log:   log,
	}
}

// statusError carries the HTTP status so retryability can be classified.
type statusError struct {
	endpoint string
	status   int
	err      error
}

func (e *statusError) Error() string {
	if e.status != 0 {
		return fmt.Sprintf("%s status %d", e.endpoint, e.status)
	}
	return fmt.Sprintf("%s: %v", e.endpoint, e.err)
}

// retryableStatus retries server-side error classes and timeouts; client
// errors are not going to get better on a retry.
func retryableStatus(err error) bool {
	var se *statusError
	if !errors.As(err, &se) {
		return false
	}
	if se.status >= 500 {
		return true
	}
	if se.status == 0 && se.err != nil {
		// transport-level failure (dial, timeout, reset)
		return true
	}
	return false
}

func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	reqID := uuid.New().String()
	start := time.Now()
	c.log.Info("llm.generate.start", "req_id", reqID, "model", c.cfg.Model, "prompt_len", len(prompt))

	var text string
	chatErr := retryDo(ctx, c.log, c.retry, "chat", func() error {
		out, err := c.chatOnce(ctx, prompt)
		if err != nil {
			return err
		}
		text = out
		return nil
	}, retryableStatus)
	if chatErr == nil {
		c.log.Info("llm.generate.ok", "req_id", reqID, "endpoint", "chat", "bytes", len(text), "elapsed_ms", time.Since(start).Milliseconds())
		return text, nil
	}
	if ctx.Err() != nil {
		return "", &TransportError{Endpoint: c.cfg.BaseURL + "/api/chat", Err: ctx.Err()}
	}
	c.log.Warn("llm.generate.chat_failed", "req_id", reqID, "error", chatErr)

	genErr := retryDo(ctx, c.log, c.retry, "generate", func() error {
		out, err := c.generateOnce(ctx, prompt)
		if err != nil {
			return err
		}
		text = out
		return nil
	}, retryableStatus)
	if genErr == nil {
		c.log.Info("llm.generate.ok", "req_id", reqID, "endpoint", "generate", "bytes", len(text), "elapsed_ms", time.Since(start).Milliseconds())
		return text, nil
	}

	c.log.Error("llm.generate.failed", "req_id", reqID, "error", genErr, "elapsed_ms", time.Since(start).Milliseconds())
	var se *statusError
	if errors.As(genErr, &se) {
		return "", &TransportError{Endpoint: c.cfg.BaseURL + "/api/generate", Status: se.status, Err: se.err}
	}
	return "", &TransportError{Endpoint: c.cfg.BaseURL + "/api/generate", Err: genErr}
}

func (c *OllamaClient) chatOnce(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model":    c.cfg.Model,
		"messages": []map[string]any{{"role": "user", "content": prompt}},
		"stream":   false,
		"options":  c.samplingOptions(),
	}
	raw, err := c.post(ctx, "/api/chat", body)
	if err != nil {
		return "", err
	}
	var out struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &statusError{endpoint: "/api/chat", err: fmt.Errorf("decode response: %w", err)}
	}
	return out.Message.Content, nil
}

func (c *OllamaClient) generateOnce(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model":   c.cfg.Model,
		"prompt":  prompt,
		"stream":  false,
		"options": c.samplingOptions(),
	}
	raw, err := c.post(ctx, "/api/generate", body)
	if err != nil {
		return "", err
	}
	var out struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &statusError{endpoint: "/api/generate", err: fmt.Errorf("decode response: %w", err)}
	}
	return out.Response, nil
}

// samplingOptions pins deterministic sampling so repeated runs over the same
// documents converge on the same breakdown.
func (c *OllamaClient) samplingOptions() map[string]any {
	return map[string]any{
		"temperature": c.cfg.Temperature,
		"top_p":       c.cfg.TopP,
	}
}

func (c *OllamaClient) post(ctx context.Context, path string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, &statusError{endpoint: path, err: fmt.Errorf("encode request: %w", err)}
	}
	url := strings.TrimRight(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, &statusError{endpoint: path, err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &statusError{endpoint: path, err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Warn("llm.http.response_body_close_error", "error", err)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, &statusError{endpoint: path, status: resp.StatusCode}
	}
	return raw, nil
}

// WaitReady polls the liveness endpoint until it answers or the bounded wait
// elapses. Exceeding the wait is a transport failure in its own right.
func (c *OllamaClient) WaitReady(ctx context.Context) error {
	deadline := time.Now().Add(c.cfg.HealthWait)
	for {
		if err := c.Health(ctx); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return &TransportError{
				Endpoint: c.cfg.BaseURL,
				Err:      fmt.Errorf("service not healthy after %s", c.cfg.HealthWait),
			}
		}
		select {
		case <-ctx.Done():
			return &TransportError{Endpoint: c.cfg.BaseURL, Err: ctx.Err()}
		case <-time.After(c.cfg.HealthInterval):
		}
	}
}

// Health probes the service root with a short timeout.
func (c *OllamaClient) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("health status %d", resp.StatusCode)
	}
	return nil
}
