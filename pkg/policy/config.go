package policy

import (
	"errors"
	"os"

	"github.com/CompassSecurity/repoguard/pkg/scanner/types"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// DefaultPolicyFileName is looked up in the working directory when no
// explicit policy file is given.
const DefaultPolicyFileName = ".repoguard.yml"

// Policy is the optional repository policy file. Zero values fall back to
// the built-in defaults.
type Policy struct {
	BranchPrefixes []string               `yaml:"branchPrefixes"`
	SecretRules    []types.PatternElement `yaml:"secretRules"`
	Ignore         []string               `yaml:"ignore"`
}

// Prefixes returns the configured branch prefixes, or the defaults.
func (p *Policy) Prefixes() []string {
	if p == nil || len(p.BranchPrefixes) == 0 {
		return DefaultBranchPrefixes
	}
	return p.BranchPrefixes
}

// LoadPolicy reads a policy file. A missing file at the default location is
// not an error and yields an empty policy.
func LoadPolicy(path string) (*Policy, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPolicyFileName
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return &Policy{}, nil
	}
	if err != nil {
		return nil, err
	}

	policy := &Policy{}
	if err := yaml.Unmarshal(data, policy); err != nil {
		return nil, err
	}

	log.Debug().Str("file", path).Int("prefixes", len(policy.BranchPrefixes)).Int("secretRules", len(policy.SecretRules)).Msg("Loaded policy file")
	return policy, nil
}
