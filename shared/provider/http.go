package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultTimeout applies when the options carry no usable timeoutMs.
const DefaultTimeout = 600000 * time.Millisecond

// largest timeoutMs that fits in a time.Duration
const maxTimeoutMs = float64(math.MaxInt64 / int64(time.Millisecond))

// HTTPAdapter calls registry-configured HTTP providers.
type HTTPAdapter struct {
	registry *Registry
	client   *http.Client
}

// NewHTTPAdapter builds an adapter over reg. A nil client means
// http.DefaultClient; timeouts come from the request context, not the client.
func NewHTTPAdapter(reg *Registry, client *http.Client) *HTTPAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPAdapter{registry: reg, client: client}
}

// Generate performs exactly one POST to the provider and extracts the
// configured response field. There are no retries.
func (a *HTTPAdapter) Generate(ctx context.Context, req Request) (string, error) {
	cfg, err := a.registry.Lookup(req.Provider)
	if err != nil {
		return "", err
	}
	key := normalizeKey(req.Provider)
	if strings.TrimSpace(req.Model) == "" || strings.TrimSpace(req.Prompt) == "" {
		return "", fmt.Errorf("%w: model and prompt are required", ErrValidation)
	}

	opts := MergeOptions(cfg.DefaultOptions, req.Options)
	format := cfg.Format
	if req.RequestFormat != "" {
		format = req.RequestFormat
	}
	url := cfg.URL()
	if req.Endpoint != "" {
		url = req.Endpoint
	}
	timeout := timeoutFrom(opts)

	body, err := Shape(format, req.Model, req.Prompt, opts)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode %s request: %w", key, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log.Debug().
		Str("provider", key).
		Str("url", url).
		Str("format", string(format)).
		Dur("timeout", timeout).
		Msg("provider request")

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build %s request: %w", key, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range cfg.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", a.transportErr(ctx, callCtx, key, timeout, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", a.transportErr(ctx, callCtx, key, timeout, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &UpstreamHTTPError{
			Provider: key,
			Status:   resp.StatusCode,
			Body:     Truncate(string(raw), maxErrorBody),
		}
	}

	var decoded any = map[string]any{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return "", fmt.Errorf("%w from %s: %v", ErrUpstreamParse, key, err)
		}
	}

	text, ok := ExtractString(decoded, cfg.ResponsePath)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingResponseField, cfg.ResponsePath)
	}
	return text, nil
}

// transportErr separates our own deadline from caller cancellation and
// plain network failures.
func (a *HTTPAdapter) transportErr(parent, call context.Context, key string, timeout time.Duration, err error) error {
	if parent.Err() != nil {
		return fmt.Errorf("%s request: %w", key, parent.Err())
	}
	if errors.Is(call.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s after %dms", ErrUpstreamTimeout, key, timeout.Milliseconds())
	}
	return fmt.Errorf("%s request: %w", key, err)
}

func timeoutFrom(opts Options) time.Duration {
	ms, ok := numberOption(opts, "timeoutMs", true)
	if !ok || ms <= 0 {
		return DefaultTimeout
	}
	if ms >= maxTimeoutMs {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ms * float64(time.Millisecond))
}
