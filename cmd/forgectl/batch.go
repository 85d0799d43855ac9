package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/forge-ai/promptforge/shared/apiclient"
	"github.com/forge-ai/promptforge/shared/batch"
)

func batchCmd() *cobra.Command {
	var (
		order   []string
		showOut bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "batch <provider/model/file.json>...",
		Short: "Run stored profiles one after another",
		Long: `Run stored profiles sequentially with their saved defaults.

Jobs are grouped by model. --order lists provider/model keys to run first;
the remaining models follow in the order they were given. Ctrl-C stops the
batch after the running job is cancelled.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs := make([]batch.Job, 0, len(args))
			for _, id := range args {
				j, err := batch.Parse(id)
				if err != nil {
					return fmt.Errorf("%s: %w", id, err)
				}
				jobs = append(jobs, j)
			}
			jobs = batch.OrderJobs(jobs, order)

			ctx, stop := signalContext()
			defer stop()

			runner := batch.NewRunner(client(), batch.Hooks{
				OnStart: func(i, total int, job batch.Job) {
					if !asJSON {
						fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", i+1, total, job.ProfileID())
					}
				},
				OnResult: func(i, total int, res batch.Result) {
					if asJSON {
						return
					}
					printResult(res, showOut)
				},
			})

			results, sum := runner.Run(ctx, jobs)
			if asJSON {
				return printJSON(map[string]any{"results": results, "summary": sum})
			}

			line := fmt.Sprintf("%d/%d ok, %d failed", sum.Completed, sum.Total, sum.Failed)
			switch {
			case sum.Cancelled:
				fmt.Fprintln(os.Stderr, color.YellowString("cancelled: "+line))
			case sum.Failed > 0:
				fmt.Fprintln(os.Stderr, color.RedString(line))
			default:
				fmt.Fprintln(os.Stderr, color.GreenString(line))
			}
			if sum.Failed > 0 {
				return fmt.Errorf("%d job(s) failed", sum.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&order, "order", nil, "Model keys to run first (provider/model)")
	cmd.Flags().BoolVar(&showOut, "output", false, "Print each job's generated text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}

func printResult(res batch.Result, showOut bool) {
	if !res.OK {
		fmt.Fprintf(os.Stderr, "  %s %s %s\n", failMark(), res.ProfileID, color.RedString(res.Message))
		return
	}
	fmt.Fprintf(os.Stderr, "  %s %s %s\n", okMark(), res.ProfileID,
		color.HiBlackString(res.Elapsed.Round(time.Millisecond).String()))
	if showOut {
		fmt.Println(res.Text)
	}
}

var _ batch.API = (*apiclient.Client)(nil)
