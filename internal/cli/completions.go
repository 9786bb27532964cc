package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/flowboard/pkg/models"
)

// completeTaskIDs lists task ids starting with toComplete, described by
// their title and column.
func completeTaskIDs(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if Board == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var ids []string
	for _, t := range Board.Tasks() {
		if strings.HasPrefix(t.ID, toComplete) {
			ids = append(ids, t.ID+"\t"+t.Title+" ["+t.Status.Title()+"]")
		}
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}

// completeTaskArg completes the single task id positional argument.
func completeTaskArg(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return completeTaskIDs(cmd, args, toComplete)
}

func completeStatuses(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, st := range models.Statuses() {
		out = append(out, string(st)+"\t"+st.Title())
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func completePriorities(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, p := range models.Priorities() {
		out = append(out, string(p))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func completeFilters(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, f := range models.PriorityFilters() {
		out = append(out, string(f))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func completeSorts(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		string(models.SortManual) + "\tManual order set by drag and drop",
		string(models.SortCreated) + "\tNewest first",
		string(models.SortPriority) + "\tHigh before medium before low",
	}, cobra.ShellCompDirectiveNoFileComp
}

// registerTaskCompletions wires completion functions onto the task commands.
// It must run after their flags are defined.
func registerTaskCompletions() {
	for _, cmd := range []*cobra.Command{editCmd, deleteCmd, moveCmd} {
		cmd.ValidArgsFunction = completeTaskArg
	}
	for _, cmd := range []*cobra.Command{addCmd, editCmd} {
		_ = cmd.RegisterFlagCompletionFunc("priority", completePriorities)
		_ = cmd.RegisterFlagCompletionFunc("status", completeStatuses)
	}
	_ = moveCmd.RegisterFlagCompletionFunc("onto", completeTaskIDs)
	_ = moveCmd.RegisterFlagCompletionFunc("column", completeStatuses)
	_ = listCmd.RegisterFlagCompletionFunc("filter", completeFilters)
	_ = listCmd.RegisterFlagCompletionFunc("sort", completeSorts)
	_ = exportCmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
}
