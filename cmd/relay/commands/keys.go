package commands

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

func (c *CLI) newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Print the cache key of every build unit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys, err := c.app.Keys(cmd.Context(), ".")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			names := make([]string, 0, len(keys))
			for name := range keys {
				names = append(names, name)
			}
			slices.Sort(names)
			for _, name := range names {
				_, _ = fmt.Fprintf(out, "%s\t%s\n", name, keys[name])
			}
			return nil
		},
	}
	return cmd
}
