package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
)

// ModelList is the /api/profiles/models response.
type ModelList struct {
	Ollama  []string `json:"ollama"`
	LocalAI []string `json:"localai"`
}

const modelsCacheKey = "models"

// ModelLister reads installed models from Ollama (required) and LocalAI
// (best effort), caching the combined answer for a short TTL.
type ModelLister struct {
	ollamaURL  string
	localaiURL string
	client     *http.Client
	cache      *expirable.LRU[string, ModelList]
}

func NewModelLister(ollamaURL, localaiURL string, ttl time.Duration) *ModelLister {
	m := &ModelLister{
		ollamaURL:  strings.TrimRight(ollamaURL, "/"),
		localaiURL: strings.TrimRight(localaiURL, "/"),
		client:     &http.Client{Timeout: 10 * time.Second},
	}
	if ttl > 0 {
		m.cache = expirable.NewLRU[string, ModelList](1, nil, ttl)
	}
	return m
}

func (m *ModelLister) List(ctx context.Context) (ModelList, error) {
	if m.cache != nil {
		if v, ok := m.cache.Get(modelsCacheKey); ok {
			return v, nil
		}
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := m.get(ctx, m.ollamaURL+"/api/tags", &tags); err != nil {
		return ModelList{}, fmt.Errorf("ollama models: %w", err)
	}
	out := ModelList{Ollama: []string{}, LocalAI: []string{}}
	for _, t := range tags.Models {
		if t.Name != "" {
			out.Ollama = append(out.Ollama, t.Name)
		}
	}

	var localai struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := m.get(ctx, m.localaiURL+"/v1/models", &localai); err != nil {
		log.Warn().Err(err).Msg("localai models unavailable")
	} else {
		for _, d := range localai.Data {
			if d.ID != "" {
				out.LocalAI = append(out.LocalAI, d.ID)
			}
		}
	}

	if m.cache != nil {
		m.cache.Add(modelsCacheKey, out)
	}
	return out, nil
}

// get is a plain REST GET decoding a JSON body.
func (m *ModelLister) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: %d %s", url, resp.StatusCode, b)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
