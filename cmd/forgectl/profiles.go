package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/forge-ai/promptforge/shared/profile"
)

func profilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profiles",
		Aliases: []string{"p"},
		Short:   "Inspect and upload stored profiles",
	}
	cmd.AddCommand(
		profilesListCmd(),
		profilesShowCmd(),
		profilesPushCmd(),
	)
	return cmd
}

func profilesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := client().ListProfiles(cmd.Context())
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Fprintln(os.Stderr, color.HiBlackString("no profiles"))
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		},
	}
}

func profilesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <provider/model/file.json>",
		Short: "Print a stored profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := client().FetchProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(p)
		},
	}
}

func profilesPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push <profile.json> <provider/model/file.json>",
		Short: "Upload a local profile to the gateway's store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := profile.ParsePath(args[1]); err != nil {
				return fmt.Errorf("%s: %w", args[1], err)
			}
			p, err := loadProfile(args[0])
			if err != nil {
				return err
			}
			if err := client().SaveProfile(cmd.Context(), args[1], p); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "%s saved %s\n", okMark(), args[1])
			return nil
		},
	}
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List providers and installed local models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api := client()
			providers, err := api.Providers(cmd.Context())
			if err != nil {
				return err
			}
			models, err := api.ListModels(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Println(color.CyanString("Providers"))
			for _, p := range providers {
				fmt.Printf("  %s\n", p)
			}
			printModels("ollama", models.Ollama)
			printModels("localai", models.LocalAI)
			return nil
		},
	}
}

func printModels(provider string, names []string) {
	fmt.Println(color.CyanString("Models (%s)", provider))
	if len(names) == 0 {
		fmt.Printf("  %s\n", color.HiBlackString("none"))
	}
	for _, n := range names {
		fmt.Printf("  %s/%s\n", provider, n)
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the gateway is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client().Health(cmd.Context()); err != nil {
				return fmt.Errorf("%s unreachable: %w", apiURL, err)
			}
			fmt.Printf("%s %s\n", okMark(), apiURL)
			return nil
		},
	}
}
