package result

import (
	"strings"
	"sync/atomic"

	"github.com/CompassSecurity/repoguard/pkg/format"
	"github.com/CompassSecurity/repoguard/pkg/logging"
	"github.com/CompassSecurity/repoguard/pkg/policy"
	"github.com/CompassSecurity/repoguard/pkg/scanner"
)

// ViolationType tags the policy surface a hit came from.
type ViolationType string

const (
	// ViolationSecretFile indicates a secret pattern hit in a scanned file.
	ViolationSecretFile ViolationType = "secret-file"
	// ViolationBranchName indicates a branch name outside the naming policy.
	ViolationBranchName ViolationType = "branch-name"
	// ViolationBranchProtection indicates a missing or weak protection rule.
	ViolationBranchProtection ViolationType = "branch-protection"
)

var violationCount atomic.Int64

type ReportOptions struct {
	File   string
	Repo   string
	Branch string
	RunID  string
	Type   ViolationType
}

func ReportFindings(findings []scanner.Finding, opts ReportOptions) {
	for _, finding := range findings {
		ReportFinding(finding, opts)
	}
}

func ReportFinding(finding scanner.Finding, opts ReportOptions) {
	violationType := opts.Type
	if violationType == "" {
		violationType = ViolationSecretFile
	}

	event := logging.Hit().
		Str("type", string(violationType)).
		Str("confidence", finding.Pattern.Pattern.Confidence).
		Str("ruleName", finding.Pattern.Pattern.Name).
		Str("value", format.TruncateValue(finding.Text, 1024))

	if finding.Line > 0 {
		event = event.Int("line", finding.Line)
	}
	if opts.File != "" {
		event = event.Str("file", opts.File)
	}
	if opts.Repo != "" {
		event = event.Str("repo", opts.Repo)
	}
	if opts.Branch != "" {
		event = event.Str("branch", opts.Branch)
	}
	if opts.RunID != "" {
		event = event.Str("runId", opts.RunID)
	}

	violationCount.Add(1)
	event.Msg("SECRET")
}

// ReportBranchViolation reports a branch name outside the naming policy.
func ReportBranchViolation(branch policy.BranchResult, opts ReportOptions) {
	event := logging.Hit().
		Str("type", string(ViolationBranchName)).
		Str("branch", branch.Name).
		Str("allowedPrefixes", strings.Join(branch.AllowedPrefixes, ","))

	if opts.Repo != "" {
		event = event.Str("repo", opts.Repo)
	}
	if opts.RunID != "" {
		event = event.Str("runId", opts.RunID)
	}

	violationCount.Add(1)
	event.Msg("BRANCH NAME")
}

// ReportProtectionViolation reports a branch protection gap.
func ReportProtectionViolation(problem string, opts ReportOptions) {
	event := logging.Hit().
		Str("type", string(ViolationBranchProtection)).
		Str("problem", problem)

	if opts.Repo != "" {
		event = event.Str("repo", opts.Repo)
	}
	if opts.Branch != "" {
		event = event.Str("branch", opts.Branch)
	}
	if opts.RunID != "" {
		event = event.Str("runId", opts.RunID)
	}

	violationCount.Add(1)
	event.Msg("BRANCH PROTECTION")
}

// Count returns the number of violations reported so far in this run.
func Count() int64 {
	return violationCount.Load()
}

// ResetCount clears the violation counter (for testing only).
func ResetCount() {
	violationCount.Store(0)
}
