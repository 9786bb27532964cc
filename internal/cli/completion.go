package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var completionInstall bool

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Set up shell completions for flowboard",
	Long: `Set up shell tab-completions for flowboard commands, flags and task ids.

Supported shells: bash, zsh, fish, powershell

Quick install (writes the script into your user completion directory):

  flowboard completion bash --install
  flowboard completion zsh --install
  flowboard completion fish --install

Or print the completion script to stdout (for manual setup):

  flowboard completion bash
  flowboard completion zsh
  flowboard completion fish
  flowboard completion powershell`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MaximumNArgs(1),
	RunE:      runCompletion,
}

func init() {
	completionCmd.Flags().BoolVar(&completionInstall, "install", false,
		"Install completions for the current user")

	// Remove Cobra's default completion command and add ours.
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}

// shellCompletion describes how to generate and where to install the script
// for one shell. An empty target means --install is unsupported.
type shellCompletion struct {
	generate func(w io.Writer) error
	target   func(home string) string
	loadHint string
}

var shells = map[string]shellCompletion{
	"bash": {
		generate: func(w io.Writer) error { return rootCmd.GenBashCompletionV2(w, true) },
		target: func(home string) string {
			return filepath.Join(home, ".local", "share", "bash-completion", "completions", "flowboard")
		},
		loadHint: `eval "$(flowboard completion bash)"`,
	},
	"zsh": {
		generate: func(w io.Writer) error { return rootCmd.GenZshCompletion(w) },
		target: func(home string) string {
			return filepath.Join(home, ".local", "share", "zsh", "site-functions", "_flowboard")
		},
		loadHint: `eval "$(flowboard completion zsh)"`,
	},
	"fish": {
		generate: func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) },
		target: func(home string) string {
			return filepath.Join(home, ".config", "fish", "completions", "flowboard.fish")
		},
		loadHint: "flowboard completion fish | source",
	},
	"powershell": {
		generate: func(w io.Writer) error { return rootCmd.GenPowerShellCompletionWithDesc(w) },
		loadHint: "flowboard completion powershell | Out-String | Invoke-Expression",
	},
}

func runCompletion(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	sh, ok := shells[args[0]]
	if !ok {
		return fmt.Errorf("unsupported shell %q (supported: bash, zsh, fish, powershell)", args[0])
	}

	if completionInstall {
		return installCompletion(cmd, args[0], sh)
	}

	// Hints go to stderr so the script can be piped or eval'd.
	errOut := cmd.ErrOrStderr()
	fmt.Fprintln(errOut, "# To load completions in your current session:")
	fmt.Fprintf(errOut, "#   %s\n", sh.loadHint)
	if sh.target != nil {
		fmt.Fprintln(errOut, "# To install permanently:")
		fmt.Fprintf(errOut, "#   flowboard completion %s --install\n", args[0])
	}
	return sh.generate(cmd.OutOrStdout())
}

func installCompletion(cmd *cobra.Command, name string, sh shellCompletion) error {
	if sh.target == nil {
		return fmt.Errorf("automatic install is not supported for %s; run 'flowboard completion %s' and add the output to your profile", name, name)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("detecting home directory: %w", err)
	}

	target := sh.target(home)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("creating completion directory: %w", err)
	}
	if err := writeCompletionFile(target, sh.generate); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s completions installed to %s\n", name, target)
	if name == "zsh" {
		fmt.Fprintf(out, "Ensure %s is in your fpath, then run: autoload -Uz compinit && compinit\n", filepath.Dir(target))
	} else {
		fmt.Fprintln(out, "Restart your shell to pick them up.")
	}
	return nil
}

// writeCompletionFile creates target and fills it with genFn, reporting
// close errors as well as write errors.
func writeCompletionFile(target string, genFn func(io.Writer) error) error {
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating completion file %s: %w", target, err)
	}

	writeErr := genFn(f)
	closeErr := f.Close()

	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return fmt.Errorf("closing completion file %s: %w", target, closeErr)
	}
	return nil
}
