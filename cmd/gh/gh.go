package gh

import (
	"github.com/spf13/cobra"
)

func NewGitHubRootCmd() *cobra.Command {
	ghCmd := &cobra.Command{
		Use:   "gh [no options!]",
		Short: "GitHub related commands",
	}
	ghCmd.AddCommand(NewBranchesCmd())

	return ghCmd
}
