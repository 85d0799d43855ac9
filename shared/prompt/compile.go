package prompt

import (
	"regexp"
	"strings"

	"github.com/forge-ai/promptforge/shared/profile"
)

var placeholder = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// Render substitutes {{ name }} placeholders. Unknown names become empty.
func Render(tpl string, vars map[string]string) string {
	return placeholder.ReplaceAllStringFunc(tpl, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		return vars[name]
	})
}

// Template picks the text to render: the prompt in llm mode when it is not
// blank, otherwise the template when it is not blank.
func Template(p *profile.Profile) string {
	if p.Mode == profile.ModeLLM && strings.TrimSpace(p.Prompt) != "" {
		return p.Prompt
	}
	if strings.TrimSpace(p.Template) != "" {
		return p.Template
	}
	return ""
}

// Compile renders the profile's template against the selections.
func Compile(p *profile.Profile, src Sources) string {
	tpl := Template(p)
	if tpl == "" {
		return ""
	}
	return Render(tpl, BuildContext(src))
}
