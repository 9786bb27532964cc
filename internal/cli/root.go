package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

var logLevelFlag string

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "flowboard",
	Short: "FlowBoard - a three-column task board for the terminal",
	Long: `FlowBoard keeps a personal task board with three columns: Todo,
In Progress and Done. Tasks are reordered and moved between columns by
drag and drop in the terminal board, or scripted with the subcommands below.

The board is saved locally after every change and is also available to AI
assistants through an MCP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logLevelFlag == "" || Logger == nil {
			return nil
		}
		lvl, err := logrus.ParseLevel(logLevelFlag)
		if err != nil {
			return fmt.Errorf("parsing --log-level: %w", err)
		}
		Logger.SetLevel(lvl)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "flowboard %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override the configured log level (trace, debug, info, warn, error)")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
