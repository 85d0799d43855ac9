// Package profile holds the prompt profile document and its storage.
package profile

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

const (
	DefaultProvider = "ollama"
	DefaultModel    = "deepseek-coder:6.7b"
)

type Mode string

const (
	ModeTemplate Mode = "template"
	ModeLLM      Mode = "llm"
)

// Profile is a saved prompt configuration.
type Profile struct {
	Form       FormValues                `json:"form"`
	FormSchema []FormField               `json:"formSchema,omitempty"`
	Styles     []string                  `json:"styles"`
	Options    []ChecklistGroup          `json:"options"`
	Snippets   []Snippet                 `json:"snippets"`
	Mode       Mode                      `json:"mode"`
	Template   string                    `json:"template"`
	Prompt     string                    `json:"prompt"`
	Defaults   Defaults                  `json:"defaults"`
	Providers  map[string]ProviderConfig `json:"providers"`

	// legacy top-level "ollama" block, folded into Providers by Normalize
	legacyOllama *ProviderConfig
}

type FormField struct {
	Key   string `json:"key"`
	Label string `json:"label,omitempty"`
	Type  string `json:"type,omitempty"`
	Rows  int    `json:"rows,omitempty"`
}

type ChecklistGroup struct {
	Title string          `json:"title"`
	Items []ChecklistItem `json:"items"`
}

type ChecklistItem struct {
	Label    string `json:"label"`
	Selected bool   `json:"selected,omitempty"`
}

// Snippet is a reusable text block. Snippets are selected unless
// explicitly marked otherwise.
type Snippet struct {
	Subject  string `json:"subject"`
	Text     string `json:"text"`
	Selected *bool  `json:"selected,omitempty"`
}

func (s Snippet) IsSelected() bool { return s.Selected == nil || *s.Selected }

type Defaults struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// ProviderConfig is the per-provider client configuration stored in a profile.
type ProviderConfig struct {
	Endpoint      string         `json:"endpoint,omitempty"`
	RequestFormat string         `json:"requestFormat,omitempty"`
	Options       map[string]any `json:"options,omitempty"`
}

// FormValues accepts any JSON scalar and keeps it as a string.
type FormValues map[string]string

func (f *FormValues) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		// non-object form values are treated as empty
		*f = FormValues{}
		return nil
	}
	out := make(FormValues, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case nil:
		case string:
			out[k] = t
		case float64:
			out[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(t)
		default:
			enc, _ := json.Marshal(t)
			out[k] = string(enc)
		}
	}
	*f = out
	return nil
}

// UnmarshalJSON only requires the document to be an object. Fields of the
// wrong JSON type are left unset for Normalize to fill, and provider entries
// that are not objects are dropped.
func (p *Profile) UnmarshalJSON(b []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}

	var out Profile
	decodeLoose(doc["form"], &out.Form)
	decodeLoose(doc["formSchema"], &out.FormSchema)
	decodeLoose(doc["styles"], &out.Styles)
	decodeLoose(doc["options"], &out.Options)
	decodeLoose(doc["snippets"], &out.Snippets)
	decodeLoose(doc["mode"], &out.Mode)
	decodeLoose(doc["template"], &out.Template)
	decodeLoose(doc["prompt"], &out.Prompt)
	decodeLoose(doc["defaults"], &out.Defaults)

	var entries map[string]json.RawMessage
	decodeLoose(doc["providers"], &entries)
	if len(entries) > 0 {
		out.Providers = make(map[string]ProviderConfig, len(entries))
		for k, raw := range entries {
			if cfg, ok := decodeProvider(raw); ok {
				out.Providers[k] = cfg
			}
		}
	}

	// legacy keys
	if out.Form == nil {
		decodeLoose(doc["profile"], &out.Form)
	}
	if cfg, ok := decodeProvider(doc["ollama"]); ok {
		out.legacyOllama = &cfg
	}

	*p = out
	return nil
}

// decodeLoose leaves dst untouched when raw is absent or does not fit.
func decodeLoose[T any](raw json.RawMessage, dst *T) {
	if len(raw) == 0 {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err == nil {
		*dst = v
	}
}

func decodeProvider(raw json.RawMessage) (ProviderConfig, bool) {
	var fields map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &fields) != nil || fields == nil {
		return ProviderConfig{}, false
	}
	var cfg ProviderConfig
	decodeLoose(fields["endpoint"], &cfg.Endpoint)
	decodeLoose(fields["requestFormat"], &cfg.RequestFormat)
	decodeLoose(fields["options"], &cfg.Options)
	return cfg, true
}

// NewEmpty returns a blank template-mode profile with default provider metadata.
func NewEmpty() *Profile {
	return &Profile{
		Form:      FormValues{},
		Styles:    []string{},
		Options:   []ChecklistGroup{},
		Snippets:  []Snippet{},
		Mode:      ModeTemplate,
		Defaults:  Defaults{Provider: DefaultProvider, Model: DefaultModel},
		Providers: map[string]ProviderConfig{},
	}
}

// Decode parses and normalizes a stored profile document.
func Decode(raw []byte) (*Profile, error) {
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	return Normalize(&p), nil
}

// Normalize fills missing collections and defaults, and folds the legacy
// "ollama" options block into providers.ollama.options (legacy keys win).
func Normalize(p *Profile) *Profile {
	if p == nil {
		return NewEmpty()
	}
	if p.Form == nil {
		p.Form = FormValues{}
	}
	if p.Styles == nil {
		p.Styles = []string{}
	}
	if p.Options == nil {
		p.Options = []ChecklistGroup{}
	}
	if p.Snippets == nil {
		p.Snippets = []Snippet{}
	}
	if strings.TrimSpace(p.Defaults.Provider) == "" {
		p.Defaults.Provider = DefaultProvider
	}
	if strings.TrimSpace(p.Defaults.Model) == "" {
		p.Defaults.Model = DefaultModel
	}
	if p.Providers == nil {
		p.Providers = map[string]ProviderConfig{}
	}
	if legacy := p.legacyOllama; legacy != nil {
		cfg := p.Providers["ollama"]
		opts := make(map[string]any, len(cfg.Options)+len(legacy.Options))
		for k, v := range cfg.Options {
			opts[k] = v
		}
		for k, v := range legacy.Options {
			opts[k] = v
		}
		cfg.Options = opts
		p.Providers["ollama"] = cfg
		p.legacyOllama = nil
	}
	return p
}

// ProviderFor looks up a provider config by key, ignoring case.
func (p *Profile) ProviderFor(key string) (ProviderConfig, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	if cfg, ok := p.Providers[key]; ok {
		return cfg, true
	}
	for k, cfg := range p.Providers {
		if strings.ToLower(k) == key {
			return cfg, true
		}
	}
	return ProviderConfig{}, false
}

// Fields returns the form schema, deriving one from the form keys when the
// profile carries none.
func (p *Profile) Fields() []FormField {
	if len(p.FormSchema) > 0 {
		return p.FormSchema
	}
	keys := make([]string, 0, len(p.Form))
	for k := range p.Form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]FormField, 0, len(keys))
	for _, k := range keys {
		lower := strings.ToLower(k)
		typ := "text"
		switch {
		case strings.Contains(lower, "desc"):
			typ = "textarea"
		case strings.Contains(lower, "style"):
			typ = "select"
		}
		fields = append(fields, FormField{Key: k, Label: titleCase(k), Type: typ})
	}
	return fields
}

func titleCase(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
