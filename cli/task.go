package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"kanban-board/client"
	"kanban-board/domain"
)

func (a *app) taskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "task",
		Short:             "Manage tasks",
		PersistentPreRunE: a.initAuthed,
	}
	cmd.AddCommand(a.taskAddCmd(), a.taskEditCmd(), a.taskDeleteCmd(), a.taskMoveCmd())
	return cmd
}

func (a *app) taskAddCmd() *cobra.Command {
	var (
		in       client.NewTask
		position int
	)
	cmd := &cobra.Command{
		Use:   "add <column-id> <title>",
		Short: "Add a task to a column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.ColumnID, in.Title = args[0], args[1]
			if cmd.Flags().Changed("position") {
				in.Position = &position
			}
			t, err := a.client.CreateTask(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added task %s (%s) [%s]\n", t.Title, t.ID, t.Priority)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in.Description, "desc", "d", "", "task description")
	cmd.Flags().StringVarP(&in.Priority, "priority", "p", "", "low, medium, high or urgent (default medium)")
	cmd.Flags().IntVar(&position, "position", 0, "0-based position (default: last)")
	return cmd
}

func (a *app) taskEditCmd() *cobra.Command {
	var title, desc, priority string
	cmd := &cobra.Command{
		Use:   "edit <task-id>",
		Short: "Edit task fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p client.TaskPatch
			if cmd.Flags().Changed("title") {
				p.Title = &title
			}
			if cmd.Flags().Changed("desc") {
				p.Description = &desc
			}
			if cmd.Flags().Changed("priority") {
				p.Priority = &priority
			}
			if p.Title == nil && p.Description == nil && p.Priority == nil {
				return fmt.Errorf("nothing to change; pass --title, --desc or --priority")
			}
			t, err := a.client.UpdateTask(cmd.Context(), args[0], p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s (%s) [%s]\n", t.Title, t.ID, t.Priority)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVarP(&desc, "desc", "d", "", "new description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "low, medium, high or urgent")
	return cmd
}

func (a *app) taskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.DeleteTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", args[0])
			return nil
		},
	}
}

func (a *app) taskMoveCmd() *cobra.Command {
	var target moveTarget
	cmd := &cobra.Command{
		Use:   "move <task-id> (--before <task-id> | --after <task-id> | --to <column-id>)",
		Short: "Move a task within or across columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if n := target.count(); n != 1 {
				return fmt.Errorf("exactly one of --before, --after or --to is required")
			}
			ctx := cmd.Context()
			t, err := a.client.GetTask(ctx, args[0])
			if err != nil {
				return err
			}
			col, err := a.client.GetColumn(ctx, t.ColumnID)
			if err != nil {
				return err
			}
			return a.drop(cmd, col.BoardID, func(b domain.Board) (dropPlan, error) {
				return taskDrop(b, args[0], target)
			})
		},
	}
	cmd.Flags().StringVar(&target.before, "before", "", "place above this task")
	cmd.Flags().StringVar(&target.after, "after", "", "place below this task")
	cmd.Flags().StringVar(&target.to, "to", "", "move into this column")
	cmd.Flags().BoolVar(&target.top, "top", false, "with --to, insert at the top instead of the bottom")
	cmd.MarkFlagsMutuallyExclusive("before", "after", "to")
	return cmd
}
