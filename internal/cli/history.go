package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/scheduler/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Session  string // show one session's timeline
	Edit     string // show one edit's lifecycle across sessions
}

// HistoryStats counts a timeline's events by type.
type HistoryStats struct {
	Total     int `json:"total"`
	Committed int `json:"committed"`
	Undone    int `json:"undone"`
	Redone    int `json:"redone"`
	Discarded int `json:"discarded"`
	Cleared   int `json:"cleared"`
}

// HistoryResult is the output of a session or edit query.
type HistoryResult struct {
	Session  string              `json:"session,omitempty"`
	Edit     string              `json:"edit,omitempty"`
	Timeline []store.EventRecord `json:"timeline"`
	Stats    HistoryStats        `json:"stats"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the edit journal",
		Long: `Query an edit journal written by play --db.

Without --session or --edit, lists every journaled session. With
--session, prints the session's events in seq order with the undo and
redo depths after each. With --edit, prints every event that touched
one edit record.

Examples:
  scheduler history --db journal.db
  scheduler history --db journal.db --session monday
  scheduler history --db journal.db --edit 0192b3c4-...
  scheduler history --db journal.db --session monday --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal database path (default: journal.path from config)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session id to show")
	cmd.Flags().StringVar(&opts.Edit, "edit", "", "edit record id to show")
	cmd.MarkFlagsMutuallyExclusive("session", "edit")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := opts.formatter(cmd)

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.Config.Journal.Path
	}
	if dbPath == "" {
		return NewExitError(ExitCommandError, "no journal: pass --db or set journal.path")
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.Session == "" && opts.Edit == "" {
		sessions, err := st.Sessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		return formatter.Report(CLIResponse{Status: "ok", Data: sessions}, func(w io.Writer) {
			writeSessionsText(w, sessions)
		})
	}

	var events []store.EventRecord
	if opts.Session != "" {
		events, err = st.ReadEvents(ctx, opts.Session)
	} else {
		events, err = st.ReadEditEvents(ctx, opts.Edit)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	result := HistoryResult{
		Session:  opts.Session,
		Edit:     opts.Edit,
		Timeline: events,
		Stats:    countEvents(events),
	}

	return formatter.Report(CLIResponse{Status: "ok", Data: result}, func(w io.Writer) {
		writeHistoryText(w, result, opts.Verbose)
	})
}

func countEvents(events []store.EventRecord) HistoryStats {
	stats := HistoryStats{Total: len(events)}
	for _, ev := range events {
		switch ev.Event {
		case "committed":
			stats.Committed++
		case "undone":
			stats.Undone++
		case "redone":
			stats.Redone++
		case "discarded":
			stats.Discarded++
		case "cleared":
			stats.Cleared++
		}
	}
	return stats
}

func writeSessionsText(w io.Writer, sessions []store.SessionSummary) {
	fmt.Fprintln(w, "=== Sessions ===")
	if len(sessions) == 0 {
		fmt.Fprintln(w, "  (no sessions)")
		return
	}
	for _, s := range sessions {
		fmt.Fprintf(w, "  %s  %d events, last seq %d", s.ID, s.Events, s.LastSeq)
		if s.Label != "" {
			fmt.Fprintf(w, "  %s", s.Label)
		}
		fmt.Fprintln(w)
	}
}

func writeHistoryText(w io.Writer, result HistoryResult, verbose bool) {
	if result.Session != "" {
		fmt.Fprintf(w, "History for Session: %s\n", result.Session)
	} else {
		fmt.Fprintf(w, "History for Edit: %s\n", result.Edit)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, ev := range result.Timeline {
		fmt.Fprintf(w, "  [%d] %-9s undo=%d redo=%d", ev.Seq, ev.Event, ev.UndoDepth, ev.RedoDepth)
		if ev.Description != "" {
			fmt.Fprintf(w, "  %s", ev.Description)
		} else if ev.EditName != "" {
			fmt.Fprintf(w, "  %s", ev.EditName)
		}
		fmt.Fprintln(w)
		if verbose && ev.EditID != "" {
			fmt.Fprintf(w, "       ID: %s\n", truncateID(ev.EditID))
		}
		if verbose && result.Edit != "" {
			fmt.Fprintf(w, "       Session: %s\n", ev.SessionID)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.Total)
	fmt.Fprintf(w, "  Committed:    %d\n", result.Stats.Committed)
	fmt.Fprintf(w, "  Undone:       %d\n", result.Stats.Undone)
	fmt.Fprintf(w, "  Redone:       %d\n", result.Stats.Redone)
	fmt.Fprintf(w, "  Discarded:    %d\n", result.Stats.Discarded)
	fmt.Fprintf(w, "  Cleared:      %d\n", result.Stats.Cleared)
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
