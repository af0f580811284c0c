// Package model implements the ModelClient contract with direct HTTP calls
// to any OpenAI-compatible endpoint, plus the Anthropic Messages API as a
// special case. One remote call per Respond; retries, if any, belong to the
// caller.
package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tangentchat/tangent/internal/schema"
)

// Params are the raw config values a Client is built from. The caller
// extracts these from config.Config to avoid an import cycle.
type Params struct {
	APIKey       string
	APIBase      string
	Model        string
	ProviderName string
	ExtraHeaders map[string]string
	MaxTokens    int
	Temperature  float64
}

// Client makes one HTTP call per Respond and normalises the result into a
// schema.ModelResponse. It never touches the engine.
type Client struct {
	apiKey       string
	apiBase      string
	model        string
	extraHeaders map[string]string
	maxTokens    int
	temperature  float64
	gateway      *ProviderSpec // non-nil for gateway/local providers
	spec         *ProviderSpec // non-nil for standard providers
	isAnthropic  bool
	httpClient   *http.Client
}

// New constructs a Client, resolving the effective API base from the
// provider registry when none is configured.
func New(p Params) *Client {
	gateway := FindGateway(p.ProviderName, p.APIKey, p.APIBase)

	var spec *ProviderSpec
	if gateway == nil {
		spec = FindByModel(p.Model)
		if spec == nil {
			spec = FindByName(p.ProviderName)
		}
	}

	base := p.APIBase
	if base == "" {
		if gateway != nil && gateway.DefaultAPIBase != "" {
			base = gateway.DefaultAPIBase
		} else if spec != nil && spec.DefaultAPIBase != "" {
			base = spec.DefaultAPIBase
		} else {
			base = "https://api.openai.com/v1"
		}
	}
	base = strings.TrimRight(base, "/")

	isAnthropic := (spec != nil && spec.IsAnthropic) ||
		strings.Contains(strings.ToLower(base), "anthropic.com")

	maxTokens := p.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &Client{
		apiKey:       p.APIKey,
		apiBase:      base,
		model:        p.Model,
		extraHeaders: p.ExtraHeaders,
		maxTokens:    maxTokens,
		temperature:  p.Temperature,
		gateway:      gateway,
		spec:         spec,
		isAnthropic:  isAnthropic,
		httpClient:   &http.Client{Timeout: 120 * time.Second},
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Respond implements schema.ModelClient. Every failure wraps
// schema.ErrModelUnavailable.
func (c *Client) Respond(ctx context.Context, req schema.ModelRequest) (schema.ModelResponse, error) {
	model := resolveModel(c.model, c.gateway, c.spec)
	if c.isAnthropic {
		return c.respondAnthropic(ctx, req, model)
	}
	return c.respondOpenAI(ctx, req, model)
}

// userContent joins the context block and the user text into the single
// user message the model sees.
func userContent(req schema.ModelRequest) string {
	if req.Context == "" {
		return req.UserText
	}
	return req.Context + "\n\n" + req.UserText
}

// ---------------------------------------------------------------------------
// OpenAI-compatible path
// ---------------------------------------------------------------------------

func (c *Client) respondOpenAI(ctx context.Context, req schema.ModelRequest, model string) (schema.ModelResponse, error) {
	body := map[string]any{
		"model": model,
		"messages": []map[string]any{
			{"role": "system", "content": req.System},
			{"role": "user", "content": userContent(req)},
		},
		"max_tokens":  c.maxTokens,
		"temperature": c.temperature,
	}
	if len(req.Tools) > 0 {
		tools := make([]map[string]any, len(req.Tools))
		for i, t := range req.Tools {
			tools[i] = t.ToWireMap()
		}
		body["tools"] = tools
		body["tool_choice"] = "auto"
	}

	raw, err := c.post(ctx, c.apiBase+"/chat/completions", body, map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	})
	if err != nil {
		return schema.ModelResponse{}, err
	}
	resp, err := parseOpenAIResponse(raw)
	if err != nil {
		return schema.ModelResponse{}, fmt.Errorf("%w: %v", schema.ErrModelUnavailable, err)
	}
	return resp, nil
}

// ---------------------------------------------------------------------------
// Anthropic Messages API path
// ---------------------------------------------------------------------------

func (c *Client) respondAnthropic(ctx context.Context, req schema.ModelRequest, model string) (schema.ModelResponse, error) {
	body := map[string]any{
		"model": model,
		"messages": []map[string]any{
			{"role": "user", "content": userContent(req)},
		},
		"max_tokens":  c.maxTokens,
		"temperature": c.temperature,
	}
	if req.System != "" {
		body["system"] = req.System
	}
	if len(req.Tools) > 0 {
		tools := make([]map[string]any, len(req.Tools))
		for i, t := range req.Tools {
			wire := t.ToWireMap()
			fn := wire["function"].(map[string]any)
			// Anthropic uses "input_schema" instead of "parameters".
			tools[i] = map[string]any{
				"name":         fn["name"],
				"description":  fn["description"],
				"input_schema": fn["parameters"],
			}
		}
		body["tools"] = tools
	}

	raw, err := c.post(ctx, c.apiBase+"/messages", body, map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": "2023-06-01",
	})
	if err != nil {
		return schema.ModelResponse{}, err
	}
	resp, err := parseAnthropicResponse(raw)
	if err != nil {
		return schema.ModelResponse{}, fmt.Errorf("%w: %v", schema.ErrModelUnavailable, err)
	}
	return resp, nil
}

// ---------------------------------------------------------------------------
// HTTP
// ---------------------------------------------------------------------------

func (c *Client) post(ctx context.Context, url string, body map[string]any, auth map[string]string) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", schema.ErrModelUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", schema.ErrModelUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range auth {
		req.Header.Set(k, v)
	}
	for k, v := range c.extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: HTTP request: %v", schema.ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", schema.ErrModelUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d: %s", schema.ErrModelUnavailable,
			resp.StatusCode, friendlyHTTPError(resp.StatusCode, raw))
	}
	return raw, nil
}

func friendlyHTTPError(code int, body []byte) string {
	if code == http.StatusTooManyRequests {
		return "rate limit exceeded"
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 300 {
		s = s[:300]
	}
	return s
}
