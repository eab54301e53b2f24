package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"kanban-board/boardsync"
	"kanban-board/domain"
	"kanban-board/notify"
)

func (a *app) watchCmd() *cobra.Command {
	var (
		natsURL  string
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:               "watch <board-id>",
		Short:             "Print the board whenever it changes",
		Long:              "Follows the board's event stream. With --nats the board is refetched on NATS change notifications and every --interval instead.",
		Args:              cobra.ExactArgs(1),
		PersistentPreRunE: a.initAuthed,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			render := func(b domain.Board) {
				fmt.Fprintf(out, "--- %s\n", time.Now().Format(time.TimeOnly))
				printBoard(out, b)
			}
			var err error
			if natsURL == "" {
				err = a.client.StreamBoard(cmd.Context(), args[0], func(b domain.Board) error {
					render(b)
					return nil
				})
			} else {
				err = a.watchNATS(cmd.Context(), args[0], natsURL, interval, render)
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&natsURL, "nats", "", "NATS server URL for change notifications")
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "refetch period in NATS mode (0 disables)")
	return cmd
}

func (a *app) watchNATS(ctx context.Context, boardID, url string, interval time.Duration, render func(domain.Board)) error {
	nc, err := nats.Connect(url, nats.Name("kanbanctl"))
	if err != nil {
		return fmt.Errorf("connect nats: %w", err)
	}
	defer nc.Close()
	signals, stop, err := notify.WatchBoard(nc, boardID)
	if err != nil {
		return err
	}
	defer stop()

	board := boardsync.New(boardID, a.client, nil, a.log)
	board.OnChange(render)
	if err := board.Load(ctx); err != nil {
		return err
	}
	return board.Watch(ctx, interval, signals)
}
