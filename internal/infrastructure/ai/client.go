// Package ai talks to the page generation endpoint.
package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/logging"
)

var ErrEmptyResult = errors.New("generator returned no markup")

const streamDone = "[DONE]"

type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// Client posts generation requests and returns sanitized markup.
type Client struct {
	config    Config
	client    *http.Client
	sanitizer *Sanitizer
	logger    *logging.ChanneledLogger
}

func NewClient(config Config, logger *logging.ChanneledLogger) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 120 * time.Second
	}
	return &Client{
		config: config,
		// Streams can outlive the request timeout; contexts bound them instead.
		client:    &http.Client{},
		sanitizer: NewSanitizer(),
		logger:    logger,
	}
}

type generateResponse struct {
	HTML  string `json:"html"`
	Error string `json:"error,omitempty"`
}

type streamChunk struct {
	Delta string `json:"delta"`
	Error string `json:"error,omitempty"`
}

// Generate requests a complete page in one response.
func (c *Client) Generate(ctx context.Context, req editor.GenerationRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req.Stream = false
	start := time.Now()
	resp, err := c.post(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode generation response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("generator error: %s", out.Error)
	}
	markup := c.sanitizer.Clean(out.HTML)
	if markup == "" {
		return "", ErrEmptyResult
	}
	c.logger.AI().Debug("Generation response received", "bytes", len(markup), "duration", time.Since(start))
	return markup, nil
}

// Stream requests a streamed page. Each server-sent data line carries a
// delta; onChunk receives the sanitized accumulation after every delta.
func (c *Client) Stream(ctx context.Context, req editor.GenerationRequest, onChunk func(partial string)) (string, error) {
	req.Stream = true
	start := time.Now()
	resp, err := c.post(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var raw strings.Builder
	chunks := 0
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == streamDone {
			break
		}
		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			c.logger.AI().Debug("Skipping malformed stream line", "error", err)
			continue
		}
		if chunk.Error != "" {
			return "", fmt.Errorf("generator error: %s", chunk.Error)
		}
		if chunk.Delta == "" {
			continue
		}
		raw.WriteString(chunk.Delta)
		chunks++
		if onChunk != nil {
			onChunk(c.sanitizer.Clean(raw.String()))
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read generation stream: %w", err)
	}

	markup := c.sanitizer.Clean(raw.String())
	if markup == "" {
		return "", ErrEmptyResult
	}
	c.logger.AI().Debug("Generation stream finished", "chunks", chunks, "bytes", len(markup), "duration", time.Since(start))
	return markup, nil
}

func (c *Client) post(ctx context.Context, req editor.GenerationRequest) (*http.Response, error) {
	if c.config.Endpoint == "" {
		return nil, errors.New("no generation endpoint configured")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal generation request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create generation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	c.logger.AI().Debug("Sending generation request", "endpoint", c.config.Endpoint, "stream", req.Stream, "payloadSize", len(body))
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.AI().Error("Generation endpoint error", "status", resp.StatusCode, "body", string(msg))
		return nil, fmt.Errorf("generator returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}
