package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/forge-ai/promptforge/shared/events"
	"github.com/forge-ai/promptforge/shared/generation"
	"github.com/forge-ai/promptforge/shared/profile"
)

func generateCmd() *cobra.Command {
	var (
		sel      selections
		remote   bool
		provider string
		model    string
	)

	cmd := &cobra.Command{
		Use:   "generate <profile.json | provider/model/file.json>",
		Short: "Compile a profile and send it to its default provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			api := client()

			var (
				p   *profile.Profile
				err error
			)
			if remote {
				p, err = api.FetchProfile(ctx, args[0])
			} else {
				p, err = loadProfile(args[0])
			}
			if err != nil {
				return err
			}
			if provider != "" {
				p.Defaults.Provider = provider
			}
			if model != "" {
				p.Defaults.Model = model
			}

			src, err := sel.apply(p)
			if err != nil {
				return err
			}

			bus := events.NewBus()
			start := time.Now()
			bus.On(events.GenerationState, func(env *events.Envelope) {
				st, err := events.Decode[events.GenerationStatePayload](env)
				if err != nil {
					return
				}
				if st.State == string(generation.StateBusy) {
					fmt.Fprintf(os.Stderr, "%s %s/%s via %s\n",
						color.CyanString("→"), p.Defaults.Provider, p.Defaults.Model, api.BaseURL())
				}
			})

			session := generation.NewSession(generation.NewOrchestrator(api), bus)
			out, err := session.Generate(ctx, p, src)
			if err != nil {
				if errors.Is(err, generation.ErrValidation) {
					return fmt.Errorf("profile not runnable: %w", err)
				}
				return err
			}

			fmt.Fprintf(os.Stderr, "%s done in %s\n", okMark(), time.Since(start).Round(time.Millisecond))
			fmt.Println(out)
			return nil
		},
	}

	selectionFlags(cmd, &sel)
	cmd.Flags().BoolVar(&remote, "remote", false, "Load the profile from the gateway's store")
	cmd.Flags().StringVar(&provider, "provider", "", "Override the profile's default provider")
	cmd.Flags().StringVar(&model, "model", "", "Override the profile's default model")
	return cmd
}
