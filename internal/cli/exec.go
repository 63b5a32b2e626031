package cli

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pondside/parley/internal/db"
	"github.com/pondside/parley/internal/render"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	CSV bool
}

// NewExecCommand creates the one-shot exec command. It runs a single
// statement and prints the result, for scripting and quick checks
// without the full interface.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <statement>",
		Short: "Run one statement and print the result",
		Long: `Run a single SQL statement against the database and print the result
to stdout.

Example:
  parley exec --db ./app.db "SELECT * FROM users LIMIT 10"
  parley exec --db ./app.db --csv "SELECT * FROM orders" > orders.csv`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.CSV, "csv", false, "write the result as CSV instead of a table")

	return cmd
}

func runExec(cmd *cobra.Command, opts *ExecOptions, stmt string) error {
	mgr, err := loadConfig(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	cfg := mgr.Get()
	if cfg.Database == "" {
		return fmt.Errorf("no database: pass --db or set one in %s", mgr.Path())
	}

	var conn *db.Conn
	if opts.ReadOnly {
		conn, err = db.OpenReadOnly(cfg.Database)
	} else {
		conn, err = db.Open(cfg.Database)
	}
	if err != nil {
		return err
	}
	defer conn.Close()

	if !opts.NoConfirm && !conn.ReadOnly() {
		if need, reason := db.NeedsConfirmation(stmt); need {
			if !promptYes(reason) {
				return fmt.Errorf("cancelled")
			}
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lim := db.DefaultLimits()
	if cfg.MaxRows > 0 {
		lim.MaxRows = cfg.MaxRows
	}
	res, err := conn.Exec(ctx, stmt, lim)
	if err != nil {
		return err
	}

	if opts.CSV {
		return render.CSV(res, os.Stdout)
	}
	fmt.Println(render.Table(res, 0))
	return nil
}

// promptYes asks on the terminal before a destructive statement runs.
func promptYes(reason string) bool {
	fmt.Fprintf(os.Stderr, "%s. Run anyway? [y/N] ", reason)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
