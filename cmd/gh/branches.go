package gh

import (
	"context"
	"fmt"
	"strings"

	githubapi "github.com/CompassSecurity/repoguard/pkg/github"
	"github.com/CompassSecurity/repoguard/pkg/policy"
	"github.com/CompassSecurity/repoguard/pkg/scan/result"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type BranchesOptions struct {
	AccessToken string
	Repo        string
	GitHubURL   string
	Protection  bool
	PolicyFile  string
	Prefixes    []string
}

var options = BranchesOptions{}

func NewBranchesCmd() *cobra.Command {
	branchesCmd := &cobra.Command{
		Use:   "branches [no options!]",
		Short: "Check remote branch names and protection rules",
		Long:  `List the branches of a GitHub repository, check their names against the naming policy and optionally audit the default branch's protection rules`,
		Example: `
# Check branch names of a repository
repoguard gh branches --token github_pat_xxxxxxxxxxx --repo owner/repo

# Additionally audit the default branch's protection rules
repoguard gh branches --token github_pat_xxxxxxxxxxx --repo owner/repo --protection
		`,
		RunE: Branches,
	}
	branchesCmd.Flags().StringVarP(&options.AccessToken, "token", "t", "", "GitHub Personal Access Token - https://github.com/settings/tokens")
	err := branchesCmd.MarkFlagRequired("token")
	if err != nil {
		log.Fatal().Msg("Unable to require token flag")
	}
	branchesCmd.Flags().StringVarP(&options.Repo, "repo", "r", "", "Repository in the format owner/repo")
	err = branchesCmd.MarkFlagRequired("repo")
	if err != nil {
		log.Fatal().Msg("Unable to require repo flag")
	}
	branchesCmd.Flags().StringVarP(&options.GitHubURL, "github", "g", "https://api.github.com", "GitHub API base URL")
	branchesCmd.Flags().BoolVarP(&options.Protection, "protection", "p", false, "Audit the default branch's protection rules")
	branchesCmd.Flags().StringVarP(&options.PolicyFile, "policy", "c", "", "Path to a policy file, defaults to .repoguard.yml when present")
	branchesCmd.Flags().StringSliceVarP(&options.Prefixes, "prefixes", "", []string{}, "Override the allowed branch prefixes, separate by comma")

	return branchesCmd
}

func Branches(cmd *cobra.Command, args []string) error {
	owner, name, valid := validateRepoFormat(options.Repo)
	if !valid {
		return fmt.Errorf("invalid repository format %q, expected: owner/repo", options.Repo)
	}

	if err := policy.ValidateURL(options.GitHubURL, "github"); err != nil {
		return err
	}

	prefixes, err := resolvePrefixes()
	if err != nil {
		return err
	}

	ctx := context.Background()
	client := githubapi.NewClient(options.AccessToken, options.GitHubURL)

	branches, defaultBranch, err := githubapi.RepoBranches(ctx, client, owner, name)
	if err != nil {
		return fmt.Errorf("failed listing branches of %s: %w", options.Repo, err)
	}

	runId := uuid.NewString()
	reportOpts := result.ReportOptions{Repo: options.Repo, RunID: runId}

	violations := policy.ValidateBranchNames(branchesWithoutDefault(branches, defaultBranch), prefixes)
	for _, violation := range violations {
		result.ReportBranchViolation(violation, reportOpts)
	}

	protectionProblems := 0
	if options.Protection {
		protectionProblems = auditProtection(owner, name, defaultBranch, reportOpts)
	}

	log.Info().
		Int("branches", len(branches)).
		Int("nameViolations", len(violations)).
		Int("protectionProblems", protectionProblems).
		Msg("Branch check finished")

	if len(violations)+protectionProblems > 0 {
		return fmt.Errorf("%d policy violation(s) reported", len(violations)+protectionProblems)
	}
	return nil
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

// branchesWithoutDefault drops the default branch from name validation, main
// or master never follow the prefix convention.
func branchesWithoutDefault(branches []string, defaultBranch string) []string {
	filtered := []string{}
	for _, branch := range branches {
		if branch != defaultBranch {
			filtered = append(filtered, branch)
		}
	}
	return filtered
}

func auditProtection(owner string, name string, defaultBranch string, reportOpts result.ReportOptions) int {
	if defaultBranch == "" {
		log.Warn().Str("repo", options.Repo).Msg("No default branch found, skipping protection audit")
		return 0
	}

	protectionClient := githubapi.NewProtectionClient(options.AccessToken, options.GitHubURL)
	audit, _, err := protectionClient.GetBranchProtection(owner, name, defaultBranch)
	if err != nil {
		log.Error().Err(err).Str("branch", defaultBranch).Msg("Failed auditing branch protection")
		return 0
	}

	reportOpts.Branch = defaultBranch
	problems := audit.Problems()
	for _, problem := range problems {
		result.ReportProtectionViolation(problem, reportOpts)
	}
	return len(problems)
}

func validateRepoFormat(repo string) (owner, name string, valid bool) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
