package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/flowboard/internal/observability"
	"github.com/valter-silva-au/flowboard/pkg/models"
)

var historySince string

var historyCmd = &cobra.Command{
	Use:   "history <task-id>",
	Short: "Show the recorded activity of a task",
	Long: `Show every event the activity log holds for one task: when it was
created, edited and moved between columns, and when it was deleted. Deleted
tasks keep their history.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTaskArg,
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil {
			return fmt.Errorf("event log not initialized (events may be disabled)")
		}

		filter := observability.EventFilter{TaskID: args[0]}
		if historySince != "" {
			since, err := parseSinceDuration(historySince)
			if err != nil {
				return fmt.Errorf("parsing --since: %w", err)
			}
			filter.Since = &since
		}

		events, err := EventLog.Read(filter)
		if err != nil {
			return fmt.Errorf("reading event log: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintf(out, "No activity recorded for %s\n", args[0])
			return nil
		}
		for _, e := range events {
			printHistoryLine(out, e)
		}
		return nil
	},
}

func printHistoryLine(w io.Writer, e observability.Event) {
	when := e.Time.Local().Format("2006-01-02 15:04")
	switch e.Type {
	case "task.created":
		fmt.Fprintf(w, "%s  created in %s\n", when, statusTitle(e.Data["status"]))
	case "task.updated":
		fmt.Fprintf(w, "%s  edited (%s, %v)\n", when, statusTitle(e.Data["status"]), e.Data["priority"])
	case "task.moved":
		from, to := statusTitle(e.Data["from_status"]), statusTitle(e.Data["to_status"])
		if from == to {
			fmt.Fprintf(w, "%s  reordered in %s\n", when, to)
		} else {
			fmt.Fprintf(w, "%s  moved %s -> %s\n", when, from, to)
		}
	case "task.deleted":
		fmt.Fprintf(w, "%s  deleted\n", when)
	default:
		fmt.Fprintf(w, "%s  %s\n", when, e.Type)
	}
}

func statusTitle(v any) string {
	s, _ := v.(string)
	return models.Status(s).Title()
}

func init() {
	historyCmd.Flags().StringVar(&historySince, "since", "", "Only show events newer than this (e.g. 7d, 24h)")
	rootCmd.AddCommand(historyCmd)
}
