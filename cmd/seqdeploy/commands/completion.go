package commands

import "github.com/spf13/cobra"

// Completion returns the completion command for shell autocompletion.
func Completion() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for seqdeploy.

To load completions:

Bash:
  $ source <(seqdeploy completion bash)
  # To load completions for each session, execute once:
  # Linux:
  $ seqdeploy completion bash > /etc/bash_completion.d/seqdeploy
  # macOS:
  $ seqdeploy completion bash > $(brew --prefix)/etc/bash_completion.d/seqdeploy

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc
  # To load completions for each session, execute once:
  $ seqdeploy completion zsh > "${fpath[1]}/_seqdeploy"
  # You will need to start a new shell for this setup to take effect.

Fish:
  $ seqdeploy completion fish | source
  # To load completions for each session, execute once:
  $ seqdeploy completion fish > ~/.config/fish/completions/seqdeploy.fish

PowerShell:
  PS> seqdeploy completion powershell | Out-String | Invoke-Expression
  # To load completions for every new session, run:
  PS> seqdeploy completion powershell > seqdeploy.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(w)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
			return nil
		},
	}
	return cmd
}
