package cli

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every task as YAML or JSON",
	Long: `Write the whole task collection, in storage order, as YAML (default) or
as the same JSON array the board keeps in storage.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Board == nil {
			return fmt.Errorf("board not initialized")
		}

		tasks := Board.Tasks()
		var (
			data []byte
			err  error
		)
		switch exportFormat {
		case "yaml", "yml":
			data, err = yaml.Marshal(tasks)
		case "json":
			data, err = sonic.ConfigStd.MarshalIndent(tasks, "", "  ")
			data = append(data, '\n')
		default:
			return fmt.Errorf("invalid --format %q: must be yaml or json", exportFormat)
		}
		if err != nil {
			return fmt.Errorf("encoding tasks as %s: %w", exportFormat, err)
		}

		if exportOutput == "" || exportOutput == "-" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(exportOutput, data, 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", exportOutput, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d task(s) to %s\n", len(tasks), exportOutput)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "yaml", "Output format: yaml or json")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to this file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}
