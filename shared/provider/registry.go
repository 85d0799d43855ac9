package provider

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// HTTPConfig describes how to reach one HTTP-backed provider.
type HTTPConfig struct {
	BaseURL        string
	Path           string
	Format         Format
	ResponsePath   string
	DefaultOptions Options

	// sent with every request, e.g. credentials for hosted APIs
	Headers map[string]string
}

// URL is BaseURL joined with Path.
func (c HTTPConfig) URL() string {
	return strings.TrimRight(c.BaseURL, "/") + c.Path
}

// Registry maps lower-case provider keys to HTTP configs.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]HTTPConfig
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]HTTPConfig)}
}

// DefaultRegistry returns the built-in ollama and localai entries.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register("ollama", HTTPConfig{
		BaseURL:        "http://ollama:11434",
		Path:           "/api/generate",
		Format:         FormatOllamaGenerate,
		ResponsePath:   "response",
		DefaultOptions: Options{"temperature": 0.3},
	})
	_ = r.Register("localai", HTTPConfig{
		BaseURL:        "http://localai:8080",
		Path:           "/v1/chat/completions",
		Format:         FormatOpenAIChat,
		ResponsePath:   "choices.0.message.content",
		DefaultOptions: Options{"temperature": 0.3},
	})
	return r
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Register adds or replaces an entry.
func (r *Registry) Register(key string, cfg HTTPConfig) error {
	k := normalizeKey(key)
	switch {
	case k == "":
		return fmt.Errorf("%w: empty provider key", ErrValidation)
	case cfg.BaseURL == "" || cfg.Path == "":
		return fmt.Errorf("%w: provider %s needs baseUrl and path", ErrValidation, k)
	case !cfg.Format.Known():
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, cfg.Format)
	}
	r.mu.Lock()
	r.providers[k] = cfg
	r.mu.Unlock()
	return nil
}

// Lookup finds a provider by key, ignoring case.
func (r *Registry) Lookup(key string) (HTTPConfig, error) {
	r.mu.RLock()
	cfg, ok := r.providers[normalizeKey(key)]
	r.mu.RUnlock()
	if !ok {
		return HTTPConfig{}, fmt.Errorf("%w: %s", ErrUnknownProvider, key)
	}
	return cfg, nil
}

func (r *Registry) Has(key string) bool {
	_, err := r.Lookup(key)
	return err == nil
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	keys := make([]string, 0, len(r.providers))
	for k := range r.providers {
		keys = append(keys, k)
	}
	r.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// ApplyEnv overrides base URLs from <KEY>_BASE_URL variables,
// e.g. OLLAMA_BASE_URL. lookup is usually os.LookupEnv.
func (r *Registry) ApplyEnv(lookup func(string) (string, bool)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, cfg := range r.providers {
		v, ok := lookup(strings.ToUpper(k) + "_BASE_URL")
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		cfg.BaseURL = strings.TrimSpace(v)
		r.providers[k] = cfg
	}
}
