package policy

import (
	"slices"
	"strings"
)

// DefaultBranchPrefixes is the allow-list a branch name's prefix is checked
// against when no policy file overrides it. Matching is case-sensitive.
var DefaultBranchPrefixes = []string{
	"feature",
	"bugfix",
	"hotfix",
	"docs",
	"test",
	"chore",
	"security",
}

// BranchResult is the outcome of validating a single branch name.
type BranchResult struct {
	Name            string
	Valid           bool
	Prefix          string
	AllowedPrefixes []string
}

// ValidateBranchName checks a candidate branch name against the allowed
// prefix list. The name must have the form prefix/description, split on the
// first slash. A name without a slash or with an unknown prefix fails, and
// the result then carries the full allowed prefix list.
func ValidateBranchName(name string, allowedPrefixes []string) BranchResult {
	if len(allowedPrefixes) == 0 {
		allowedPrefixes = DefaultBranchPrefixes
	}

	result := BranchResult{Name: name, AllowedPrefixes: allowedPrefixes}

	prefix, _, found := strings.Cut(name, "/")
	if !found {
		return result
	}

	result.Prefix = prefix
	result.Valid = slices.Contains(allowedPrefixes, prefix)
	return result
}

// ValidateBranchNames validates a batch of names and returns only the
// failures.
func ValidateBranchNames(names []string, allowedPrefixes []string) []BranchResult {
	violations := []BranchResult{}
	for _, name := range names {
		result := ValidateBranchName(name, allowedPrefixes)
		if !result.Valid {
			violations = append(violations, result)
		}
	}
	return violations
}
