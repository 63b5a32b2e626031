package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pondside/parley/internal/config"
	"github.com/pondside/parley/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit  int
	Search string
}

// NewHistoryCommand creates the history command, which lists recent
// requests from the interactive sessions.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "history",
		Short:         "List recent requests",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "number of entries to show")
	cmd.Flags().StringVar(&opts.Search, "search", "", "filter entries by substring")

	return cmd
}

func runHistory(opts *HistoryOptions) error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	st, err := store.Open(filepath.Join(dir, "parley.db"))
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer st.Close()

	var entries []store.Entry
	if opts.Search != "" {
		entries, err = st.Search(opts.Search, opts.Limit)
	} else {
		entries, err = st.Recent(opts.Limit)
	}
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no history yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tSTATUS\tROWS\tINPUT")
	// Newest first from the store; print oldest first so the latest
	// entry lands at the bottom of the terminal.
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			e.StartedAt.Local().Format("2006-01-02 15:04:05"),
			e.Status, e.Rows, e.Input)
	}
	return w.Flush()
}
