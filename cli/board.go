package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) boardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Manage boards",
		PersistentPreRunE: a.initAuthed,
	}
	cmd.AddCommand(a.boardListCmd(), a.boardShowCmd(), a.boardCreateCmd(), a.boardRenameCmd(), a.boardDeleteCmd(), a.boardActivityCmd())
	return cmd
}

func (a *app) boardListCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your boards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			boards, err := a.client.ListBoards(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, boards)
			}
			if len(boards) == 0 {
				fmt.Fprintln(out, "No boards yet. Create one with: kanbanctl board create <title>")
				return nil
			}
			for _, b := range boards {
				fmt.Fprintf(out, "%s  %s  (%d columns, %d tasks)\n", b.ID, b.Title, len(b.Columns), taskCount(b))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (a *app) boardShowCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <board-id>",
		Short: "Show a board with its columns and tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.client.FetchBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), b)
			}
			printBoard(cmd.OutOrStdout(), b)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (a *app) boardCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <title>",
		Short: "Create a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.client.CreateBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created board %s (%s)\n", b.Title, b.ID)
			return nil
		},
	}
}

func (a *app) boardRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <board-id> <title>",
		Short: "Rename a board",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.client.RenameBoard(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed board %s to %s\n", b.ID, b.Title)
			return nil
		},
	}
}

func (a *app) boardDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <board-id>",
		Short: "Delete a board with its columns and tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.DeleteBoard(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted board %s\n", args[0])
			return nil
		},
	}
}

func (a *app) boardActivityCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "activity <board-id>",
		Short: "Show recent changes to a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := a.client.Activity(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, ev := range events {
				fmt.Fprintf(out, "%d  %-15s %s %s\n", ev.Timestamp, ev.Type, ev.EntityKind, ev.EntityID)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries")
	return cmd
}
