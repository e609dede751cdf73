package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/roach88/xqbatch/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	Database string
}

var headerStyle = lipgloss.NewStyle().Bold(true)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history [batch-id]",
		Short: "Show recorded batches",
		Long: `List batches recorded with --record, or show one batch's executions
with per-query mean durations.

Example:
  xqbatch history --db history.db
  xqbatch history --db history.db 01926f3e-8c1a-7b3d-9f00-4a2b6c8d0e1f`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite history database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions, args []string) error {
	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitFailure, "history database not found", err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to open database", err)
	}
	defer st.Close()

	w := cmd.OutOrStdout()
	if len(args) == 0 {
		return listBatches(cmd, st, w)
	}
	return showBatch(cmd, st, w, args[0])
}

func listBatches(cmd *cobra.Command, st *store.Store, w io.Writer) error {
	batches, err := st.ListBatches(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read history", err)
	}
	if len(batches) == 0 {
		fmt.Fprintln(w, "No batches recorded.")
		return nil
	}

	rows := make([][]string, 0, len(batches))
	for _, b := range batches {
		rows = append(rows, []string{
			b.ID,
			b.Engine,
			b.StartedAt.Local().Format(time.DateTime),
			strconv.Itoa(len(b.Sources)),
			strconv.Itoa(b.Repetitions),
			strconv.Itoa(b.Executions),
			status(b),
		})
	}
	fmt.Fprintln(w, renderTable([]string{"ID", "ENGINE", "STARTED", "QUERIES", "REPEAT", "EXECUTIONS", "STATUS"}, rows))
	return nil
}

func showBatch(cmd *cobra.Command, st *store.Store, w io.Writer, id string) error {
	ctx := cmd.Context()
	b, err := st.ReadBatch(ctx, id)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read batch", err)
	}
	stats, err := st.ReadQueryStats(ctx, id)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read batch", err)
	}

	fmt.Fprintf(w, "Batch %s (%s)\n", b.ID, b.Engine)
	fmt.Fprintf(w, "Started:     %s\n", b.StartedAt.Local().Format(time.DateTime))
	if !b.FinishedAt.IsZero() {
		fmt.Fprintf(w, "Duration:    %s\n", b.FinishedAt.Sub(b.StartedAt))
	}
	fmt.Fprintf(w, "Repetitions: %d\n", b.Repetitions)
	fmt.Fprintf(w, "Executions:  %d\n", b.Executions)
	fmt.Fprintf(w, "Status:      %s\n", status(b))
	if b.Error != "" {
		fmt.Fprintf(w, "Error:       %s\n", b.Error)
	}

	if len(stats) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(stats))
	for _, q := range stats {
		rows = append(rows, []string{
			strconv.Itoa(q.Query + 1),
			q.Source,
			strconv.Itoa(q.Runs),
			strconv.Itoa(q.Items),
			q.Mean.String(),
		})
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, renderTable([]string{"#", "SOURCE", "RUNS", "ITEMS", "MEAN"}, rows))
	return nil
}

func status(b store.BatchRecord) string {
	switch {
	case b.FinishedAt.IsZero():
		return "running"
	case b.Error != "":
		return "failed"
	default:
		return "ok"
	}
}

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().PaddingRight(2)
			if row == table.HeaderRow {
				return headerStyle.PaddingRight(2)
			}
			return style
		}).
		Headers(headers...).
		Rows(rows...).
		Render()
}
