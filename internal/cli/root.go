// Package cli wires configuration, storage, the model client, and the
// orchestrator together behind the parley command.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by every subcommand.
type RootOptions struct {
	ConfigPath string
	Database   string
	Provider   string
	Endpoint   string
	Model      string
	ReadOnly   bool
	LogLevel   string
	NoConfirm  bool
}

// NewRootCommand creates the root command for the parley CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "parley [database]",
		Short: "Talk to your SQLite database",
		Long: `Parley is an interactive terminal client for SQLite. Type SQL to run
it directly, or ask a question in plain language and a configured
model translates it to SQL for you.

Example:
  parley ./app.db
  parley --read-only ./prod-copy.db
  parley exec --db ./app.db "SELECT count(*) FROM users"`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Database = args[0]
			}
			return runTUI(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.parley/config.json)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "database file to open")
	cmd.PersistentFlags().StringVar(&opts.Provider, "provider", "", "model provider (ollama|openai|gemini)")
	cmd.PersistentFlags().StringVar(&opts.Endpoint, "endpoint", "", "model server endpoint")
	cmd.PersistentFlags().StringVar(&opts.Model, "model", "", "model name")
	cmd.PersistentFlags().BoolVar(&opts.ReadOnly, "read-only", false, "open the database read-only")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")
	cmd.Flags().BoolVar(&opts.NoConfirm, "no-confirm", false, "run destructive statements without asking")

	cmd.AddCommand(NewExecCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}
