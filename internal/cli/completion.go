package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script for flux.

Bash:
  # Add to ~/.bashrc:
  source <(flux completion bash)

  # Or install to system:
  flux completion bash > /etc/bash_completion.d/flux

Zsh:
  # Add to ~/.zshrc:
  source <(flux completion zsh)

  # Or install to fpath:
  flux completion zsh > "${fpath[1]}/_flux"

Fish:
  flux completion fish > ~/.config/fish/completions/flux.fish

PowerShell:
  flux completion powershell >> $PROFILE
`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(os.Stdout)
		default:
			return cmd.Help()
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
