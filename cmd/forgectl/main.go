// Package main provides forgectl, a command line client for the prompt
// forge gateway.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/forge-ai/promptforge/shared/apiclient"
)

var (
	version = "0.1.0"
	apiURL  string
	verbose bool
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "forgectl",
		Short: "Compile prompt profiles and run them against LLM providers",
		Long: `forgectl drives the prompt forge gateway from the terminal.

Examples:
  forgectl compile profile.json --field title=Dashboard
  forgectl generate profile.json --check "Layout=Grid"
  forgectl generate --remote ollama/llama3/landing.json
  forgectl batch ollama/llama3/a.json localai/phi/b.json --order localai/phi
  forgectl profiles list`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).Level(level)
		},
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("FORGE_API_URL", "http://localhost:4000"), "Gateway base URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(
		compileCmd(),
		generateCmd(),
		batchCmd(),
		profilesCmd(),
		modelsCmd(),
		healthCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", failMark(), err)
		os.Exit(1)
	}
}

func client() *apiclient.Client {
	return apiclient.New(apiURL)
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
