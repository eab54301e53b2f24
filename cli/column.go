package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) columnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "column",
		Short:             "Manage columns",
		PersistentPreRunE: a.initAuthed,
	}
	cmd.AddCommand(a.columnAddCmd(), a.columnRenameCmd(), a.columnDeleteCmd(), a.columnMoveCmd())
	return cmd
}

func (a *app) columnAddCmd() *cobra.Command {
	var position int
	cmd := &cobra.Command{
		Use:   "add <board-id> <title>",
		Short: "Add a column to a board",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pos *int
			if cmd.Flags().Changed("position") {
				pos = &position
			}
			col, err := a.client.CreateColumn(cmd.Context(), args[0], args[1], pos)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added column %s (%s) at %d\n", col.Title, col.ID, col.Position)
			return nil
		},
	}
	cmd.Flags().IntVar(&position, "position", 0, "0-based position (default: last)")
	return cmd
}

func (a *app) columnRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <column-id> <title>",
		Short: "Rename a column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := a.client.RenameColumn(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed column %s to %s\n", col.ID, col.Title)
			return nil
		},
	}
}

func (a *app) columnDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <column-id>",
		Short: "Delete a column and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.DeleteColumn(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted column %s\n", args[0])
			return nil
		},
	}
}

func (a *app) columnMoveCmd() *cobra.Command {
	var target moveTarget
	cmd := &cobra.Command{
		Use:   "move <column-id> (--before <column-id> | --after <column-id>)",
		Short: "Reorder a column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if target.count() != 1 {
				return fmt.Errorf("exactly one of --before or --after is required")
			}
			col, err := a.client.GetColumn(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.drop(cmd, col.BoardID, columnDrop(args[0], target))
		},
	}
	cmd.Flags().StringVar(&target.before, "before", "", "place left of this column")
	cmd.Flags().StringVar(&target.after, "after", "", "place right of this column")
	cmd.MarkFlagsMutuallyExclusive("before", "after")
	return cmd
}
