package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forge-ai/promptforge/shared/events"
	"github.com/forge-ai/promptforge/shared/profile"
	"github.com/forge-ai/promptforge/shared/provider"
)

type testGateway struct {
	*Gateway
	root string
}

// newTestGateway points the ollama and localai registry entries at the
// given fake upstreams (nil handlers answer 500).
func newTestGateway(t *testing.T, ollama, localai http.HandlerFunc) *testGateway {
	t.Helper()
	fail := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(500) }
	if ollama == nil {
		ollama = fail
	}
	if localai == nil {
		localai = fail
	}
	ollamaSrv := httptest.NewServer(ollama)
	localaiSrv := httptest.NewServer(localai)
	t.Cleanup(ollamaSrv.Close)
	t.Cleanup(localaiSrv.Close)

	reg := provider.DefaultRegistry()
	reg.ApplyEnv(func(k string) (string, bool) {
		switch k {
		case "OLLAMA_BASE_URL":
			return ollamaSrv.URL, true
		case "LOCALAI_BASE_URL":
			return localaiSrv.URL, true
		}
		return "", false
	})

	root := t.TempDir()
	cfg := Config{
		ProfileDir:     root,
		OllamaBaseURL:  ollamaSrv.URL,
		LocalAIBaseURL: localaiSrv.URL,
		ModelsCacheTTL: time.Minute,
		MaxBodyBytes:   1 << 20,
	}
	gw := New(cfg, profile.NewFileStore(root), provider.NewDispatcher(reg, nil, provider.DefaultStubs()...), nil)
	t.Cleanup(gw.Close)
	return &testGateway{Gateway: gw, root: root}
}

func (tg *testGateway) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	tg.Handler().ServeHTTP(rec, req)

	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestHealth(t *testing.T) {
	tg := newTestGateway(t, nil, nil)

	for _, path := range []string{"/", "/api/"} {
		rec, out := tg.do(t, "GET", path, nil)
		assert.Equal(t, 200, rec.Code)
		assert.Equal(t, "ok", out["status"])
	}
}

func TestCORSPreflight(t *testing.T) {
	tg := newTestGateway(t, nil, nil)

	rec, _ := tg.do(t, "OPTIONS", "/api/generate", nil)

	assert.Equal(t, 204, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestProvidersList(t *testing.T) {
	tg := newTestGateway(t, nil, nil)

	rec, out := tg.do(t, "GET", "/api/providers", nil)

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, []any{"anthropic", "gemini", "localai", "ollama", "openai"}, out["providers"])
}

func TestGenerateOllama(t *testing.T) {
	var got map[string]any
	tg := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"response":"hello from llama"}`))
	}, nil)
	var seen []string
	tg.Bus().On(events.All, func(env *events.Envelope) { seen = append(seen, env.RoutingKey) })

	rec, out := tg.do(t, "POST", "/api/generate", map[string]any{
		"provider": "OLLAMA", "model": "llama3", "prompt": "hi", "options": map[string]any{"temperature": 0.8},
	})

	require.Equal(t, 200, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]any{"provider": "ollama", "model": "llama3", "output": "hello from llama"}, out)
	assert.Equal(t, map[string]any{"temperature": 0.8}, got["options"])
	assert.Equal(t, []string{events.GenerateStarted, events.GenerateComplete}, seen)
}

func TestGenerateIgnoresNonObjectOptions(t *testing.T) {
	var got map[string]any
	tg := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"response":"ok"}`))
	}, nil)

	rec, _ := tg.do(t, "POST", "/api/generate", map[string]any{
		"provider": "ollama", "model": "llama3", "prompt": "hi", "options": []int{1, 2},
	})

	require.Equal(t, 200, rec.Code)
	assert.Equal(t, map[string]any{"temperature": 0.3}, got["options"])
}

func TestGenerateStub(t *testing.T) {
	tg := newTestGateway(t, nil, nil)

	rec, out := tg.do(t, "POST", "/api/generate", map[string]any{"provider": "anthropic", "model": "claude", "prompt": "hello"})

	require.Equal(t, 200, rec.Code)
	assert.Equal(t, "[DUMMY ANTHROPIC] model=claude\nhello", out["output"])
}

func TestGenerateValidation(t *testing.T) {
	tg := newTestGateway(t, nil, nil)

	rec, out := tg.do(t, "POST", "/api/generate", map[string]any{"provider": "ollama", "model": "m"})
	assert.Equal(t, 400, rec.Code)
	assert.Equal(t, "provider, model, and prompt are required", out["error"])

	rec, out = tg.do(t, "POST", "/api/generate", map[string]any{"provider": "mistral", "model": "m", "prompt": "p"})
	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, out["error"], "mistral")

	rec, _ = tg.do(t, "POST", "/api/generate", "{not json")
	assert.Equal(t, 400, rec.Code)
}

func TestGenerateUpstreamFailure(t *testing.T) {
	tg := newTestGateway(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(503)
		w.Write([]byte(strings.Repeat("busy ", 200)))
	})
	failed := 0
	tg.Bus().On(events.GenerateFailed, func(*events.Envelope) { failed++ })

	rec, out := tg.do(t, "POST", "/api/generate", map[string]any{"provider": "localai", "model": "phi", "prompt": "p"})

	assert.Equal(t, 502, rec.Code)
	msg, _ := out["error"].(string)
	assert.Contains(t, msg, "HTTP 503 from localai")
	assert.LessOrEqual(t, len([]rune(msg)), 500)
	assert.Equal(t, 1, failed)
}

func TestGenerateBodyLimit(t *testing.T) {
	tg := newTestGateway(t, nil, nil)
	tg.cfg.MaxBodyBytes = 64

	rec, _ := tg.do(t, "POST", "/api/generate", map[string]any{"provider": "openai", "model": "m", "prompt": strings.Repeat("x", 200)})

	assert.Equal(t, 400, rec.Code)
}

func TestProfilesSaveReadList(t *testing.T) {
	tg := newTestGateway(t, nil, nil)

	rec, out := tg.do(t, "GET", "/api/profiles/list", nil)
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	doc := map[string]any{"mode": "llm", "prompt": "hi {{name}}", "custom": map[string]any{"kept": true}}
	rec, out = tg.do(t, "POST", "/api/profiles/save", map[string]any{"name": "openai/gpt-4o/p1.json", "profile": doc})
	require.Equal(t, 200, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]any{"ok": true, "path": "openai/gpt-4o/p1.json"}, out)

	onDisk, err := os.ReadFile(filepath.Join(tg.root, "openai", "gpt-4o", "p1.json"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(onDisk), "}\n"))

	rec, out = tg.do(t, "GET", "/api/profiles/openai/gpt-4o/p1.json", nil)
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, doc, out)

	rec, _ = tg.do(t, "GET", "/api/profiles/list", nil)
	var names []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &names))
	assert.Equal(t, []string{"openai/gpt-4o/p1.json"}, names)
}

func TestProfilesReadEncodedName(t *testing.T) {
	tg := newTestGateway(t, nil, nil)
	require.NoError(t, profile.NewFileStore(tg.root).Save(context.Background(), "ollama/llama3/a.json", []byte(`{"x":1}`)))

	rec, out := tg.do(t, "GET", "/api/profiles/ollama%2Fllama3%2Fa.json", nil)

	require.Equal(t, 200, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1), out["x"])
}

func TestProfilesErrors(t *testing.T) {
	tg := newTestGateway(t, nil, nil)

	rec, _ := tg.do(t, "GET", "/api/profiles/a/b/missing.json", nil)
	assert.Equal(t, 404, rec.Code)

	rec, _ = tg.do(t, "GET", "/api/profiles/a/b/c.txt", nil)
	assert.Equal(t, 400, rec.Code)

	rec, _ = tg.do(t, "GET", "/api/profiles/a/b", nil)
	assert.Equal(t, 400, rec.Code)

	rec, _ = tg.do(t, "POST", "/api/profiles/save", map[string]any{"name": "../../etc/passwd.json", "profile": map[string]any{}})
	assert.Equal(t, 400, rec.Code)

	rec, _ = tg.do(t, "POST", "/api/profiles/save", map[string]any{"name": "a/b/c.json", "profile": []int{1}})
	assert.Equal(t, 400, rec.Code)

	rec, _ = tg.do(t, "POST", "/api/profiles/save", map[string]any{"name": "a/b/c.json"})
	assert.Equal(t, 400, rec.Code)
}

func TestModels(t *testing.T) {
	var calls atomic.Int32
	tg := newTestGateway(t,
		func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			assert.Equal(t, "/api/tags", r.URL.Path)
			w.Write([]byte(`{"models":[{"name":"llama3:8b"},{"name":"phi3"}]}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/models", r.URL.Path)
			w.Write([]byte(`{"data":[{"id":"gpt-4"}]}`))
		})

	rec, out := tg.do(t, "GET", "/api/profiles/models", nil)
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, []any{"llama3:8b", "phi3"}, out["ollama"])
	assert.Equal(t, []any{"gpt-4"}, out["localai"])

	tg.do(t, "GET", "/api/profiles/models", nil)
	assert.Equal(t, int32(1), calls.Load())
}

func TestModelsLocalAIDegrades(t *testing.T) {
	tg := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[{"name":"llama3"}]}`))
	}, nil)

	rec, out := tg.do(t, "GET", "/api/profiles/models", nil)

	require.Equal(t, 200, rec.Code)
	assert.Equal(t, []any{"llama3"}, out["ollama"])
	assert.Equal(t, []any{}, out["localai"])
}

func TestModelsOllamaDown(t *testing.T) {
	tg := newTestGateway(t, nil, nil)

	rec, out := tg.do(t, "GET", "/api/profiles/models", nil)

	assert.Equal(t, 500, rec.Code)
	assert.Equal(t, "Failed to fetch models", out["error"])
}

func TestBatchWithoutBroker(t *testing.T) {
	tg := newTestGateway(t, nil, nil)

	rec, _ := tg.do(t, "POST", "/api/batch", map[string]any{"jobs": []map[string]string{{"modelKey": "a/b", "profileKey": "c.json"}}})
	assert.Equal(t, 503, rec.Code)

	rec, _ = tg.do(t, "POST", "/api/batch/123/cancel", nil)
	assert.Equal(t, 503, rec.Code)
}
