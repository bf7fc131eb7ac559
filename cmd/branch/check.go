package branch

import (
	"fmt"

	"github.com/CompassSecurity/repoguard/pkg/gitrepo"
	"github.com/CompassSecurity/repoguard/pkg/policy"
	"github.com/CompassSecurity/repoguard/pkg/scan/result"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type CheckOptions struct {
	RepoPath   string
	All        bool
	PolicyFile string
	Prefixes   []string
}

var options = CheckOptions{}

func NewCheckCmd() *cobra.Command {
	checkCmd := &cobra.Command{
		Use:   "check [branch names]",
		Short: "Check branch names against the naming policy",
		Long:  `Check explicit branch names, the checked-out branch or all local branches against the prefix allow-list`,
		Example: `
# Check explicit branch names
repoguard branch check feature/login Feature/nope

# Check the checked-out branch of a repository
repoguard branch check --repo .

# Check all local branches
repoguard branch check --repo . --all
		`,
		RunE: Check,
	}
	checkCmd.Flags().StringVarP(&options.RepoPath, "repo", "r", "", "Path to a local git repository")
	checkCmd.Flags().BoolVarP(&options.All, "all", "a", false, "Check all local branches instead of the checked-out one")
	checkCmd.Flags().StringVarP(&options.PolicyFile, "policy", "c", "", "Path to a policy file, defaults to .repoguard.yml when present")
	checkCmd.Flags().StringSliceVarP(&options.Prefixes, "prefixes", "", []string{}, "Override the allowed branch prefixes, separate by comma")

	return checkCmd
}

func Check(cmd *cobra.Command, args []string) error {
	names, err := collectBranchNames(args)
	if err != nil {
		return err
	}

	if len(names) == 0 {
		return fmt.Errorf("no branch names to check, pass names or --repo")
	}

	prefixes, err := resolvePrefixes()
	if err != nil {
		return err
	}

	runId := uuid.NewString()
	violations := policy.ValidateBranchNames(names, prefixes)
	for _, violation := range violations {
		result.ReportBranchViolation(violation, result.ReportOptions{RunID: runId})
	}

	log.Info().Int("checked", len(names)).Int("violations", len(violations)).Msg("Branch check finished")

	if len(violations) > 0 {
		return fmt.Errorf("%d branch name(s) violate the naming policy", len(violations))
	}
	return nil
}

func collectBranchNames(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	if options.RepoPath == "" {
		return nil, nil
	}

	if options.All {
		return gitrepo.LocalBranches(options.RepoPath)
	}

	current, err := gitrepo.CurrentBranch(options.RepoPath)
	if err != nil {
		return nil, err
	}
	return []string{current}, nil
}

func resolvePrefixes() ([]string, error) {
	if len(options.Prefixes) > 0 {
		return options.Prefixes, nil
	}

	loaded, err := policy.LoadPolicy(options.PolicyFile)
	if err != nil {
		return nil, err
	}
	return loaded.Prefixes(), nil
}
