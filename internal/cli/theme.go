package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/flowboard/pkg/models"
)

var themeCmd = &cobra.Command{
	Use:       "theme [light|dark|toggle]",
	Short:     "Show or change the board theme",
	Long:      "Print the current theme, or set it to light or dark, or toggle it. The choice is saved.",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"light", "dark", "toggle"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if Themes == nil {
			return fmt.Errorf("theme store not initialized")
		}

		current := Themes.Load()
		if len(args) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), current)
			return nil
		}

		next := models.Theme(args[0])
		if args[0] == "toggle" {
			next = current.Toggle()
		}
		if !next.Valid() {
			return fmt.Errorf("invalid theme %q: must be light, dark or toggle", args[0])
		}
		if err := Themes.Save(next); err != nil {
			return fmt.Errorf("saving theme: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Theme set to %s\n", next)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(themeCmd)
}
