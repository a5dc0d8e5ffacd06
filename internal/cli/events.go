package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/provmap/internal/eventlog"
	"github.com/roach88/provmap/internal/provenance"
)

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	Database string
	Session  string
	Key      string
}

// SessionEvents is the events command's output for one session.
// SessionKeys counts distinct keys across the whole session, even when
// Events is filtered to one key.
type SessionEvents struct {
	Session     eventlog.Session `json:"session"`
	Events      []EventView      `json:"events"`
	SessionKeys int              `json:"session_keys"`
}

// EventView is the JSON form of a stored event.
type EventView struct {
	ID  string `json:"id"`
	Seq int64  `json:"seq"`
	EntryView
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events --db <file> [--session <id>]",
		Short: "Read exported provenance from the event log",
		Long: `Without --session, list every session in the event log.

With --session, print the session's events in write order and the number
of distinct keys in the session. --key limits the events shown to one key;
the session key count is unaffected.

Examples:
  provmap events --db ./ipe.db
  provmap events --db ./ipe.db --session 0192... --key 0x1004`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session id")
	cmd.Flags().StringVar(&opts.Key, "key", "", "only show events for this key (requires --session)")

	return cmd
}

func runEvents(opts *EventsOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	f := newFormatter(opts.RootOptions, cmd)

	if opts.Key != "" && opts.Session == "" {
		return f.fail(ErrCodeUsage, NewExitError(ExitCommandError, "--key requires --session"))
	}

	st, err := eventlog.Open(opts.Database)
	if err != nil {
		return f.fail(ErrCodeDatabase, WrapExitError(ExitCommandError, "failed to open database", err))
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	if opts.Session == "" {
		sessions, err := st.ListSessions(ctx)
		if err != nil {
			return f.fail(ErrCodeDatabase, WrapExitError(ExitCommandError, "failed to list sessions", err))
		}
		return f.Success(sessions, func(w io.Writer) {
			if len(sessions) == 0 {
				fmt.Fprintln(w, "No sessions found.")
				return
			}
			for _, s := range sessions {
				fmt.Fprintf(w, "%s  seq=%d  %s\n", s.ID, s.Seq, s.Label)
			}
		})
	}

	sess, err := st.GetSession(ctx, opts.Session)
	if errors.Is(err, eventlog.ErrSessionNotFound) {
		return f.fail(ErrCodeNotFound, WrapExitError(ExitFailure, "unknown session", err))
	}
	if err != nil {
		return f.fail(ErrCodeDatabase, WrapExitError(ExitCommandError, "failed to read session", err))
	}

	events, err := readEvents(ctx, st, opts)
	if err != nil {
		return f.fail(ErrCodeDatabase, err)
	}

	// Rebuild the session into a map to count the keys it resolves to.
	m := provenance.New(provenance.WithLogger(slog.Default()))
	if _, err := st.LoadInto(ctx, sess.ID, m); err != nil {
		return f.fail(ErrCodeDatabase, WrapExitError(ExitCommandError, "failed to load session", err))
	}

	result := SessionEvents{Session: sess, Events: make([]EventView, len(events)), SessionKeys: m.Len()}
	for i := range events {
		result.Events[i] = EventView{
			ID:        events[i].ID,
			Seq:       events[i].Seq,
			EntryView: newEntryView(&events[i].Entry),
		}
	}

	return f.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "Session: %s (%s)\n", sess.ID, sess.Label)
		fmt.Fprintf(w, "Events: %d, distinct keys in session: %d\n", len(result.Events), result.SessionKeys)
		for _, ev := range result.Events {
			fmt.Fprintf(w, "  [%d] %s %s %s %s\n", ev.Seq, ev.Key, ev.Module, ev.SrcLoc, ev.TableName)
		}
	})
}

func readEvents(ctx context.Context, st *eventlog.Store, opts *EventsOptions) ([]eventlog.Event, error) {
	if opts.Key == "" {
		events, err := st.ReadSession(ctx, opts.Session)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to read session", err)
		}
		return events, nil
	}

	key, err := provenance.ParseKey(opts.Key)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid key", err)
	}
	events, err := st.LookupKey(ctx, opts.Session, key)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to look up key", err)
	}
	return events, nil
}
