package branch

import (
	"github.com/spf13/cobra"
)

func NewBranchRootCmd() *cobra.Command {
	branchCmd := &cobra.Command{
		Use:   "branch [no options!]",
		Short: "Branch naming policy commands",
	}
	branchCmd.AddCommand(NewCheckCmd())

	return branchCmd
}
