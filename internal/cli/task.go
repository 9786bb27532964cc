package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/flowboard/internal/core"
	"github.com/valter-silva-au/flowboard/pkg/models"
)

// ErrTaskNotFound is returned when a command names an unknown task id.
var ErrTaskNotFound = errors.New("task not found")

var (
	addDescription string
	addPriority    string
	addStatus      string

	editTitle       string
	editDescription string
	editPriority    string
	editStatus      string

	listFilter string
	listSort   string

	moveOnto   string
	moveColumn string
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task to the board",
	Long: `Add a task. The title is every positional argument joined by spaces.
New tasks go to the end of their column (todo unless --status is given).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Board == nil {
			return fmt.Errorf("board not initialized")
		}

		task, err := Board.SaveTask(core.TaskDraft{
			Title:       strings.Join(args, " "),
			Description: addDescription,
			Status:      models.Status(addStatus),
			Priority:    models.Priority(addPriority),
		})
		if err != nil {
			return fmt.Errorf("adding task: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Created task %s\n", task.ID)
		printTaskDetails(out, task)
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <task-id>",
	Short: "Edit a task's title, description, priority or status",
	Long: `Edit a task. Only the flags given are changed. Changing the status moves
the task to the end of its new column.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Board == nil {
			return fmt.Errorf("board not initialized")
		}
		task, err := lookupTask(args[0])
		if err != nil {
			return err
		}

		draft := core.DraftFromTask(task)
		flags := cmd.Flags()
		if flags.Changed("title") {
			draft.Title = editTitle
		}
		if flags.Changed("description") {
			draft.Description = editDescription
		}
		if flags.Changed("priority") {
			draft.Priority = models.Priority(editPriority)
		}
		if flags.Changed("status") {
			draft.Status = models.Status(editStatus)
		}

		task, err = Board.SaveTask(draft)
		if err != nil {
			return fmt.Errorf("editing task %s: %w", args[0], err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Updated task %s\n", task.ID)
		printTaskDetails(out, task)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <task-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Board == nil {
			return fmt.Errorf("board not initialized")
		}
		task, err := lookupTask(args[0])
		if err != nil {
			return err
		}

		Board.DeleteTask(task.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s (%s)\n", task.ID, task.Title)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Print the board column by column",
	Long: `Print every column with its tasks in display order.

--filter restricts tasks by priority (all, low, medium, high) and --sort
chooses the order inside columns (order, createdAt, priority). Both default
to the values in .flowboard.yaml.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Board == nil {
			return fmt.Errorf("board not initialized")
		}

		opts := Board.Options()
		if listFilter != "" {
			f := models.PriorityFilter(listFilter)
			if !f.Valid() {
				return fmt.Errorf("invalid --filter %q: must be one of all, low, medium, high", listFilter)
			}
			opts.Filter = f
		}
		if listSort != "" {
			o := models.SortOption(listSort)
			if !o.Valid() {
				return fmt.Errorf("invalid --sort %q: must be one of order, createdAt, priority", listSort)
			}
			opts.Sort = o
		}

		printBoard(cmd.OutOrStdout(), core.Project(Board.Tasks(), opts))
		return nil
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <task-id>",
	Short: "Move a task onto another task or a column",
	Long: `Move a task the way a drag and drop on the board would.

--onto <task-id> puts the task in that task's place: within a column the
task is moved there, across columns it is inserted before it.
--column <status> appends the task at the end of that column.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Board == nil {
			return fmt.Errorf("board not initialized")
		}
		if (moveOnto == "") == (moveColumn == "") {
			return fmt.Errorf("exactly one of --onto or --column is required")
		}
		task, err := lookupTask(args[0])
		if err != nil {
			return err
		}

		target := models.TaskTarget(moveOnto)
		if moveColumn != "" {
			st := models.Status(moveColumn)
			if !st.Valid() {
				return fmt.Errorf("invalid --column %q: must be one of todo, in-progress, done", moveColumn)
			}
			target = models.ColumnTarget(st)
		} else if _, err := lookupTask(moveOnto); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !Board.Move(models.DragEvent{MovedTaskID: task.ID, Target: target}) {
			fmt.Fprintln(out, "Nothing to move")
			return nil
		}
		moved, _ := Board.Task(task.ID)
		fmt.Fprintf(out, "Moved task %s to %s (position %g)\n", moved.ID, moved.Status.Title(), moved.Order)
		return nil
	},
}

func lookupTask(id string) (models.Task, error) {
	task, ok := Board.Task(id)
	if !ok {
		return models.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return task, nil
}

func printTaskDetails(w io.Writer, t models.Task) {
	fmt.Fprintf(w, "  Title:    %s\n", t.Title)
	fmt.Fprintf(w, "  Status:   %s\n", t.Status)
	fmt.Fprintf(w, "  Priority: %s\n", t.Priority)
	if t.Description != "" {
		fmt.Fprintf(w, "  Notes:    %s\n", t.Description)
	}
	fmt.Fprintf(w, "  Created:  %s\n", time.UnixMilli(t.CreatedAt).Format("2006-01-02 15:04"))
}

func printBoard(w io.Writer, view core.BoardView) {
	for i, st := range view.Statuses {
		if i > 0 {
			fmt.Fprintln(w)
		}
		col := view.Column(st)
		fmt.Fprintf(w, "%s (%d)\n", st.Title(), len(col))
		if len(col) == 0 {
			fmt.Fprintln(w, "  No tasks yet")
			continue
		}
		for _, t := range col {
			fmt.Fprintf(w, "  %-36s  %-8s  %s\n", t.ID, "["+string(t.Priority)+"]", t.Title)
		}
	}
}

func init() {
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "Task description")
	addCmd.Flags().StringVarP(&addPriority, "priority", "p", "", "Priority: low, medium or high (default medium)")
	addCmd.Flags().StringVarP(&addStatus, "status", "s", "", "Column: todo, in-progress or done (default todo)")

	editCmd.Flags().StringVar(&editTitle, "title", "", "New title")
	editCmd.Flags().StringVarP(&editDescription, "description", "d", "", "New description")
	editCmd.Flags().StringVarP(&editPriority, "priority", "p", "", "New priority: low, medium or high")
	editCmd.Flags().StringVarP(&editStatus, "status", "s", "", "New column: todo, in-progress or done")

	listCmd.Flags().StringVar(&listFilter, "filter", "", "Priority filter: all, low, medium or high")
	listCmd.Flags().StringVar(&listSort, "sort", "", "Sort inside columns: order, createdAt or priority")

	moveCmd.Flags().StringVar(&moveOnto, "onto", "", "Drop onto this task")
	moveCmd.Flags().StringVar(&moveColumn, "column", "", "Drop onto this column (append)")

	rootCmd.AddCommand(addCmd, editCmd, deleteCmd, listCmd, moveCmd)
	registerTaskCompletions()
}
