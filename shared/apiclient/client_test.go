package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTextOrder(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"output":" a ","response":"b"}`, "a"},
		{`{"response":"b","text":"c"}`, "b"},
		{`{"text":"c"}`, "c"},
		{`{"content":"d"}`, "d"},
		{`{"choices":[{"message":{"content":" e\n"}}]}`, "e"},
		{`{"output":42,"text":"fallback"}`, "fallback"},
		{`{"nothing":true}`, ""},
	}
	for _, tc := range cases {
		var body any
		require.NoError(t, json.Unmarshal([]byte(tc.body), &body))
		assert.Equal(t, tc.want, ExtractText(body, DefaultStrategies), tc.body)
	}
}

func TestResolve(t *testing.T) {
	c := New("http://gw:4000/")

	assert.Equal(t, "http://gw:4000/api/generate", c.Resolve(""))
	assert.Equal(t, "http://gw:4000/api/generate", c.Resolve("api/generate"))
	assert.Equal(t, "http://gw:4000/custom", c.Resolve("/custom"))
	assert.Equal(t, "http://ollama:11434/api/generate", c.Resolve("http://ollama:11434/api/generate"))
}

func TestGenerateStandardBody(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"provider":"ollama","model":"m","output":"  done  "}`))
	}))
	defer srv.Close()

	out, err := New(srv.URL).Generate(context.Background(), "/api/generate", GenerateRequest{
		Provider: "ollama", Model: "m", Prompt: "p", RequestFormat: RequestFormatStandard,
		Options: map[string]any{"temperature": 0.2},
	})
	require.NoError(t, err)

	assert.Equal(t, "done", out)
	assert.Equal(t, map[string]any{
		"provider": "ollama", "model": "m", "prompt": "p",
		"options": map[string]any{"temperature": 0.2},
	}, got)
}

func TestGenerateOllamaBody(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"response":"raw ollama"}`))
	}))
	defer srv.Close()

	out, err := New("http://unused").Generate(context.Background(), srv.URL+"/api/generate", GenerateRequest{
		Provider: "ollama", Model: "m", Prompt: "p", RequestFormat: "Ollama",
	})
	require.NoError(t, err)

	assert.Equal(t, "raw ollama", out)
	assert.Equal(t, map[string]any{"model": "m", "prompt": "p", "stream": false}, got)
}

func TestGenerateErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(strings.Repeat("x", 400)))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Generate(context.Background(), "", GenerateRequest{Provider: "ollama", Model: "m", Prompt: "p"})

	require.Error(t, err)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 502, se.Code)
	assert.Contains(t, err.Error(), "provider=ollama, model=m")
	assert.Contains(t, err.Error(), "HTTP 502 Bad Gateway - ")
	assert.Len(t, []rune(se.Body), maxErrorText+1)
}

func TestGenerateValidates(t *testing.T) {
	_, err := New("http://unused").Generate(context.Background(), "", GenerateRequest{Provider: "ollama", Model: "m"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProfilesEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/profiles/list", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["a/b/c.json"," d/e/f.json ","notes.txt"]`))
	})
	mux.HandleFunc("GET /api/profiles/{name...}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ollama/llama3/p.json", r.PathValue("name"))
		w.Write([]byte(`{"mode":"llm","prompt":"x"}`))
	})
	mux.HandleFunc("GET /api/{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	c := New(srv.URL)
	ctx := context.Background()

	names, err := c.ListProfiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b/c.json", "d/e/f.json"}, names)

	p, err := c.FetchProfile(ctx, "ollama/llama3/p.json")
	require.NoError(t, err)
	assert.Equal(t, "x", p.Prompt)
	assert.Equal(t, "ollama", p.Defaults.Provider)

	assert.NoError(t, c.Health(ctx))
}

func TestModelsAndProviders(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/profiles/models", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ollama":["llama3"],"localai":[]}`))
	})
	mux.HandleFunc("GET /api/providers", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"providers":["localai","ollama","openai"]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	c := New(srv.URL)

	m, err := c.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3"}, m.Ollama)
	assert.Empty(t, m.LocalAI)

	keys, err := c.Providers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"localai", "ollama", "openai"}, keys)
}
