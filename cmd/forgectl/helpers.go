package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/forge-ai/promptforge/shared/profile"
	"github.com/forge-ai/promptforge/shared/prompt"
)

func okMark() string   { return color.GreenString("✓") }
func failMark() string { return color.RedString("✗") }

// signalContext is cancelled on the first SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func loadProfile(path string) (*profile.Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := profile.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// selections holds the overrides given on the command line.
type selections struct {
	fields     []string
	checks     []string
	unchecks   []string
	noSnippets bool
}

// apply layers the overrides over the profile's own selections.
// Fields are key=value; checks name a group title and item label as
// group=label. Labels keep the order they have in the profile.
func (s selections) apply(p *profile.Profile) (prompt.Sources, error) {
	src := prompt.SourcesFromProfile(p)

	for _, f := range s.fields {
		k, v, ok := strings.Cut(f, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return src, fmt.Errorf("invalid --field %q, want key=value", f)
		}
		src.Form[strings.TrimSpace(k)] = v
	}

	if len(s.checks)+len(s.unchecks) > 0 {
		checked := make(map[string]map[string]bool, len(p.Options))
		for _, g := range src.Groups {
			set := checked[g.Slug]
			if set == nil {
				set = make(map[string]bool)
				checked[g.Slug] = set
			}
			for _, l := range g.Checked {
				set[l] = true
			}
		}
		for _, c := range s.checks {
			if err := toggle(p, checked, c, true); err != nil {
				return src, err
			}
		}
		for _, c := range s.unchecks {
			if err := toggle(p, checked, c, false); err != nil {
				return src, err
			}
		}
		src.Groups = src.Groups[:0]
		for _, g := range p.Options {
			if len(g.Items) == 0 {
				continue
			}
			group := prompt.Group{Slug: prompt.Slug(g.Title)}
			for _, it := range g.Items {
				if checked[group.Slug][it.Label] && !slices.Contains(group.Checked, it.Label) {
					group.Checked = append(group.Checked, it.Label)
				}
			}
			src.Groups = append(src.Groups, group)
		}
	}

	if s.noSnippets {
		src.Snippets = nil
	}
	return src, nil
}

func toggle(p *profile.Profile, checked map[string]map[string]bool, pair string, on bool) error {
	group, label, ok := strings.Cut(pair, "=")
	if !ok {
		return fmt.Errorf("invalid selection %q, want group=label", pair)
	}
	slug := prompt.Slug(group)
	found := false
	for _, g := range p.Options {
		if prompt.Slug(g.Title) != slug {
			continue
		}
		found = true
		for _, it := range g.Items {
			if strings.EqualFold(it.Label, strings.TrimSpace(label)) {
				checked[slug][it.Label] = on
				return nil
			}
		}
	}
	if !found {
		return fmt.Errorf("profile has no option group %q", group)
	}
	return fmt.Errorf("group %q has no item %q", strings.TrimSpace(group), label)
}
