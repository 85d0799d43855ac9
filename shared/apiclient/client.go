// Package apiclient talks to the gateway's HTTP API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/forge-ai/promptforge/shared/profile"
)

const (
	// RequestFormatOllama posts a raw Ollama generate body instead of the
	// gateway's {provider, model, prompt} shape.
	RequestFormatOllama   = "ollama"
	RequestFormatStandard = "standard"

	maxErrorText = 320
)

var ErrValidation = errors.New("invalid generate request")

type GenerateRequest struct {
	Provider      string
	Model         string
	Prompt        string
	RequestFormat string
	Options       map[string]any
}

// Client is a small HTTP client for the gateway.
type Client struct {
	baseURL    string
	http       *http.Client
	strategies []Strategy
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func WithStrategies(s ...Strategy) Option {
	return func(cl *Client) { cl.strategies = s }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: 15 * time.Minute},
		strategies: DefaultStrategies,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// Resolve turns an endpoint into a URL: empty means /api/generate, relative
// paths join the base URL, absolute URLs pass through.
func (c *Client) Resolve(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = "/api/generate"
	}
	if u, err := url.Parse(endpoint); err == nil && u.IsAbs() {
		return endpoint
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return c.baseURL + endpoint
}

// Generate posts one generation request and extracts the text.
func (c *Client) Generate(ctx context.Context, endpoint string, req GenerateRequest) (string, error) {
	if strings.TrimSpace(req.Provider) == "" || strings.TrimSpace(req.Model) == "" || strings.TrimSpace(req.Prompt) == "" {
		return "", fmt.Errorf("%w: provider, model and prompt are required", ErrValidation)
	}

	var body map[string]any
	if strings.EqualFold(req.RequestFormat, RequestFormatOllama) {
		body = map[string]any{"model": req.Model, "prompt": req.Prompt, "stream": false}
	} else {
		body = map[string]any{"provider": req.Provider, "model": req.Model, "prompt": req.Prompt}
	}
	if len(req.Options) > 0 {
		body["options"] = req.Options
	}

	var decoded any
	err := c.do(ctx, http.MethodPost, c.Resolve(endpoint), body, &decoded)
	if err != nil {
		return "", fmt.Errorf("API request failed (provider=%s, model=%s): %w", req.Provider, req.Model, err)
	}
	return ExtractText(decoded, c.strategies), nil
}

// ListProfiles returns the stored profile paths.
func (c *Client) ListProfiles(ctx context.Context) ([]string, error) {
	var raw []string
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/api/profiles/list", nil, &raw); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	out := make([]string, 0, len(raw))
	for _, name := range raw {
		name = strings.TrimSpace(name)
		if strings.HasSuffix(name, ".json") {
			out = append(out, name)
		}
	}
	return out, nil
}

// FetchProfile loads and normalizes a stored profile.
func (c *Client) FetchProfile(ctx context.Context, id string) (*profile.Profile, error) {
	segs := strings.Split(strings.TrimSpace(id), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/api/profiles/"+strings.Join(segs, "/"), nil, &raw); err != nil {
		return nil, fmt.Errorf("fetch profile %s: %w", id, err)
	}
	return profile.Decode(raw)
}

// SaveProfile stores p under name.
func (c *Client) SaveProfile(ctx context.Context, name string, p *profile.Profile) error {
	body := map[string]any{"name": name, "profile": p}
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/api/profiles/save", body, nil); err != nil {
		return fmt.Errorf("save profile %s: %w", name, err)
	}
	return nil
}

// Models are the installed models per local runtime.
type Models struct {
	Ollama  []string `json:"ollama"`
	LocalAI []string `json:"localai"`
}

// ListModels asks the gateway for the models installed on Ollama and LocalAI.
func (c *Client) ListModels(ctx context.Context) (*Models, error) {
	var out Models
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/api/profiles/models", nil, &out); err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	return &out, nil
}

// Providers returns the provider keys the gateway can dispatch to.
func (c *Client) Providers(ctx context.Context) ([]string, error) {
	var out struct {
		Providers []string `json:"providers"`
	}
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/api/providers", nil, &out); err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	return out.Providers, nil
}

// Health checks the gateway root.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/api/", nil, &out); err != nil {
		return fmt.Errorf("health: %w", err)
	}
	if out.Status != "ok" {
		return fmt.Errorf("health: status %q", out.Status)
	}
	return nil
}

// StatusError is a non-2xx answer from the gateway.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("HTTP %d %s", e.Code, http.StatusText(e.Code))
	if e.Body != "" {
		msg += " - " + e.Body
	}
	return msg
}

func (c *Client) do(ctx context.Context, method, target string, in, out any) error {
	var reader io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Code:   resp.StatusCode,
			Status: resp.Status,
			Body:   trimErrorText(string(raw)),
		}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func trimErrorText(s string) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) > maxErrorText {
		return string(r[:maxErrorText]) + "…"
	}
	return s
}
