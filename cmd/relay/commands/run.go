package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.trai.ch/relay/internal/app"
	"go.trai.ch/relay/internal/core/domain"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline defined in relay.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			event, _ := cmd.Flags().GetString("event")
			ref, _ := cmd.Flags().GetString("ref")
			force, _ := cmd.Flags().GetBool("force")
			parallelism, _ := cmd.Flags().GetInt("parallelism")

			// The persistent -C flag has already moved the process into
			// the working tree.
			summary, err := c.app.Run(cmd.Context(), app.RunOptions{
				Root:        ".",
				Event:       event,
				Ref:         ref,
				Force:       force,
				Parallelism: parallelism,
			})
			if summary != nil {
				printSummary(cmd, summary)
			}
			return err
		},
	}
	cmd.Flags().StringP("event", "e", "", "Trigger event: push, pull-request, manual or workflow-run")
	cmd.Flags().String("ref", "", "Git ref the run is associated with")
	cmd.Flags().BoolP("force", "f", false, "Bypass cache lookups and rebuild every unit")
	cmd.Flags().IntP("parallelism", "p", 0, "Maximum number of concurrently running jobs (0 = CPU count)")
	return cmd
}

func printSummary(cmd *cobra.Command, s *domain.RunSummary) {
	out := cmd.OutOrStdout()
	conclusion := string(s.Conclusion)
	if s.Failed() && len(s.FailedJobs) > 0 {
		conclusion += " (" + strings.Join(s.FailedJobs, ", ") + ")"
	}
	_, _ = fmt.Fprintf(out, "%s run %s: %s in %s\n", s.Pipeline, s.RunID, conclusion, s.Duration.Round(time.Millisecond))
}
