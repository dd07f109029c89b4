// Package commands implements the CLI commands for the relay orchestrator.
package commands

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.trai.ch/relay/internal/app"
	"go.trai.ch/relay/internal/build"
	"go.trai.ch/relay/internal/core/domain"
	"go.trai.ch/zerr"
)

// CLI represents the command line interface for relay.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Run(ctx context.Context, opts app.RunOptions) (*domain.RunSummary, error)
	Keys(ctx context.Context, root string) (map[string]domain.CacheKey, error)
	Prune(maxAge time.Duration) (int, error)
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "relay",
		Short:         "A content addressed CI build and test orchestrator",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
		// Every workspace path (relay.yaml, .relay/cache, .relay/shared,
		// .relay/staging) resolves relative to the working tree, so -C
		// moves the whole process there up front.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			root, _ := cmd.Flags().GetString("root")
			if root == "" || root == "." {
				return nil
			}
			if err := os.Chdir(root); err != nil {
				return zerr.With(zerr.Wrap(err, "failed to enter working tree"), "path", root)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringP("root", "C", ".", "Working tree to run against")

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newKeysCmd())
	rootCmd.AddCommand(c.newPruneCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
