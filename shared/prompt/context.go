// Package prompt builds the compilation context from user selections and
// renders profile templates against it.
package prompt

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/forge-ai/promptforge/shared/profile"
)

// Reserved context keys.
const (
	KeyOptionsJSON  = "options_json"
	KeySnippets     = "snippets"
	KeySnippetsJSON = "snippets_json"
)

// Sources are the user's current selections.
type Sources struct {
	Form     map[string]string
	Groups   []Group
	Snippets []Snippet
}

// Group is one checklist group with its checked labels in display order.
type Group struct {
	Slug    string
	Checked []string
}

type Snippet struct {
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lower-cases title and collapses every run of other characters into
// a single underscore. An empty title slugs as "options".
func Slug(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "options"
	}
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "_"), "_")
}

// SourcesFromProfile returns the selections a profile starts with: its form
// values, items marked selected and snippets not deselected.
func SourcesFromProfile(p *profile.Profile) Sources {
	src := Sources{Form: make(map[string]string, len(p.Form))}
	for k, v := range p.Form {
		src.Form[k] = v
	}
	for _, g := range p.Options {
		// a group without items has nothing to render
		if len(g.Items) == 0 {
			continue
		}
		group := Group{Slug: Slug(g.Title)}
		for _, it := range g.Items {
			if it.Selected {
				group.Checked = append(group.Checked, it.Label)
			}
		}
		src.Groups = append(src.Groups, group)
	}
	for _, s := range p.Snippets {
		if s.IsSelected() {
			src.Snippets = append(src.Snippets, Snippet{Subject: s.Subject, Text: s.Text})
		}
	}
	return src
}

// BuildContext flattens sources into template variables. Later writes win:
// form values, then group slugs, then the reserved keys.
func BuildContext(src Sources) map[string]string {
	ctx := make(map[string]string, len(src.Form)+len(src.Groups)+3)
	for k, v := range src.Form {
		ctx[k] = v
	}

	slugs, joined := joinGroups(src.Groups)
	for _, slug := range slugs {
		ctx[slug] = joined[slug]
	}
	ctx[KeyOptionsJSON] = optionsJSON(slugs, joined)

	snippets := make([]Snippet, 0, len(src.Snippets))
	lines := make([]string, 0, len(src.Snippets))
	for _, s := range src.Snippets {
		s.Subject = strings.TrimSpace(s.Subject)
		s.Text = strings.TrimSpace(s.Text)
		switch {
		case s.Subject != "" && s.Text != "":
			lines = append(lines, s.Subject+": "+s.Text)
		case s.Subject != "":
			lines = append(lines, s.Subject)
		case s.Text != "":
			lines = append(lines, s.Text)
		default:
			continue
		}
		snippets = append(snippets, s)
	}
	ctx[KeySnippets] = strings.Join(lines, "\n")
	ctx[KeySnippetsJSON] = marshal(snippets)

	return ctx
}

// joinGroups pools the checked labels of groups sharing a slug, in
// declaration order, and returns the slugs in first-seen order.
func joinGroups(groups []Group) ([]string, map[string]string) {
	var slugs []string
	labels := make(map[string][]string, len(groups))
	for _, g := range groups {
		if _, ok := labels[g.Slug]; !ok {
			slugs = append(slugs, g.Slug)
			labels[g.Slug] = []string{}
		}
		labels[g.Slug] = append(labels[g.Slug], g.Checked...)
	}
	joined := make(map[string]string, len(slugs))
	for _, slug := range slugs {
		joined[slug] = strings.Join(labels[slug], ", ")
	}
	return slugs, joined
}

// optionsJSON encodes slug -> joined labels as an object in slug order.
func optionsJSON(slugs []string, joined map[string]string) string {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range slugs {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(marshal(k))
		buf.WriteByte(':')
		buf.WriteString(marshal(joined[k]))
	}
	buf.WriteByte('}')
	return buf.String()
}

// marshal encodes v as compact JSON without HTML escaping.
func marshal(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
	return strings.TrimSuffix(buf.String(), "\n")
}
