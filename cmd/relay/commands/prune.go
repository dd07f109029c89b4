package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (c *CLI) newPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove shared run artifacts past their retention age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			maxAge, _ := cmd.Flags().GetDuration("max-age")

			removed, err := c.app.Prune(maxAge)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %d artifact(s)\n", removed)
			return nil
		},
	}
	cmd.Flags().Duration("max-age", 14*24*time.Hour, "Remove artifacts older than this duration")
	return cmd
}
