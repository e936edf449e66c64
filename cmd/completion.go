package cmd

import (
	"github.com/spf13/cobra"

	"github.com/msalah0e/relmap/internal/model"
	"github.com/msalah0e/relmap/internal/source"
)

// completionCmd generates shell completion scripts.
func completionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate completion scripts for your shell.

  # Bash (add to ~/.bashrc)
  eval "$(relmap completion bash)"

  # Zsh (add to ~/.zshrc)
  eval "$(relmap completion zsh)"

  # Fish
  relmap completion fish | source

  # PowerShell
  relmap completion powershell | Out-String | Invoke-Expression`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Run: func(cmd *cobra.Command, args []string) {
			switch args[0] {
			case "bash":
				_ = rootCmd.GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				_ = rootCmd.GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				_ = rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				_ = rootCmd.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
		},
	}

	return cmd
}

// recordFileCompletion completes records files by extension.
func recordFileCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{"json", "yaml", "yml", "toml"}, cobra.ShellCompDirectiveFilterFileExt
}

// entityCompletion completes entity names from the records file argument.
func entityCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	g, ok := completionGraph(args)
	if !ok {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var completions []string
	for _, n := range g.Nodes {
		completions = append(completions, n.Name)
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// relationCompletion completes relation types from the records file argument.
func relationCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	g, ok := completionGraph(args)
	if !ok {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return g.RelationTypes(), cobra.ShellCompDirectiveNoFileComp
}

func formatCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return formats, cobra.ShellCompDirectiveNoFileComp
}

func completionGraph(args []string) (*model.Graph, bool) {
	if len(args) == 0 {
		return nil, false
	}
	entities, err := source.Load(args[0])
	if err != nil {
		return nil, false
	}
	g, _ := model.NewBuilder(nil).Build(entities, "")
	return g, true
}
