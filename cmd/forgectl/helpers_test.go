package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forge-ai/promptforge/shared/profile"
	"github.com/forge-ai/promptforge/shared/prompt"
)

const sampleProfile = `{
  "form": {"title": "Dashboard"},
  "options": [
    {"title": "Layout Style", "items": [
      {"label": "Grid", "selected": true},
      {"label": "List"},
      {"label": "Cards"}
    ]}
  ],
  "snippets": [{"subject": "Tone", "text": "friendly"}],
  "template": "{{title}} | {{layout_style}} | {{snippets}}"
}`

func writeProfile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "p.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleProfile), 0o644))
	return path
}

func mustLoad(t *testing.T) *profile.Profile {
	t.Helper()
	p, err := loadProfile(writeProfile(t))
	require.NoError(t, err)
	return p
}

func TestSelectionsDefaults(t *testing.T) {
	p := mustLoad(t)
	src, err := selections{}.apply(p)
	require.NoError(t, err)
	assert.Equal(t, "Dashboard | Grid | Tone: friendly", prompt.Compile(p, src))
}

func TestSelectionsOverrides(t *testing.T) {
	p := mustLoad(t)
	src, err := selections{
		fields:     []string{"title=Inbox", "extra=a=b"},
		checks:     []string{"layout style=cards", "Layout Style=List"},
		unchecks:   []string{"Layout Style=Grid"},
		noSnippets: true,
	}.apply(p)
	require.NoError(t, err)

	assert.Equal(t, "a=b", src.Form["extra"])
	// profile order, not flag order
	assert.Equal(t, []string{"List", "Cards"}, src.Groups[0].Checked)
	assert.Equal(t, "Inbox | List, Cards | ", prompt.Compile(p, src))
}

func TestSelectionsErrors(t *testing.T) {
	p := mustLoad(t)
	cases := map[string]selections{
		"bad field":     {fields: []string{"novalue"}},
		"empty key":     {fields: []string{"=x"}},
		"bad check":     {checks: []string{"Grid"}},
		"unknown group": {checks: []string{"Colors=Red"}},
		"unknown item":  {unchecks: []string{"Layout Style=Table"}},
	}
	for name, sel := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := sel.apply(p)
			assert.Error(t, err)
		})
	}
}

func TestLoadProfileErrors(t *testing.T) {
	_, err := loadProfile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = loadProfile(bad)
	assert.Error(t, err)
}
