package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/forge-ai/promptforge/shared/prompt"
)

func selectionFlags(cmd *cobra.Command, s *selections) {
	cmd.Flags().StringArrayVarP(&s.fields, "field", "f", nil, "Set a form value (key=value)")
	cmd.Flags().StringArrayVar(&s.checks, "check", nil, "Select a checklist item (group=label)")
	cmd.Flags().StringArrayVar(&s.unchecks, "uncheck", nil, "Deselect a checklist item (group=label)")
	cmd.Flags().BoolVar(&s.noSnippets, "no-snippets", false, "Leave all snippets out")
}

func compileCmd() *cobra.Command {
	var (
		sel        selections
		showFields bool
		showVars   bool
	)

	cmd := &cobra.Command{
		Use:   "compile <profile.json>",
		Short: "Render a profile's template with the current selections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProfile(args[0])
			if err != nil {
				return err
			}

			if showFields {
				for _, f := range p.Fields() {
					fmt.Printf("%-20s %s %s\n", f.Key, color.HiBlackString(f.Type), f.Label)
				}
				return nil
			}

			src, err := sel.apply(p)
			if err != nil {
				return err
			}

			if showVars {
				vars := prompt.BuildContext(src)
				keys := make([]string, 0, len(vars))
				for k := range vars {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Printf("%s = %s\n", color.CyanString(k), vars[k])
				}
				return nil
			}

			out := prompt.Compile(p, src)
			if out == "" {
				fmt.Fprintln(os.Stderr, color.YellowString("profile has no template"))
			}
			fmt.Println(out)
			return nil
		},
	}

	selectionFlags(cmd, &sel)
	cmd.Flags().BoolVar(&showFields, "fields", false, "List the form fields instead of compiling")
	cmd.Flags().BoolVar(&showVars, "vars", false, "Print the template variables instead of compiling")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
