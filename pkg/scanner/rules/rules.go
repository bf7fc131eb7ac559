package rules

import (
	"errors"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/CompassSecurity/repoguard/pkg/httpclient"
	"github.com/CompassSecurity/repoguard/pkg/scanner/types"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

var remoteRuleFile = "https://raw.githubusercontent.com/mazen160/secrets-patterns-db/master/db/rules-stable.yml"

var secretsPatterns = types.SecretsPatterns{}

// BuiltinRules are always active. The password and api key thresholds are
// deliberate: short placeholder values like password = "short" stay silent.
func BuiltinRules() []types.PatternElement {
	return []types.PatternElement{
		{Pattern: types.PatternPattern{Name: "Password Assignment", Regex: `password\s*[:=]\s*['"][^'"]{8,}['"]`, Confidence: "high"}},
		{Pattern: types.PatternPattern{Name: "API Key Assignment", Regex: `api[_-]?key\s*[:=]\s*['"][^'"]{16,}['"]`, Confidence: "high"}},
		{Pattern: types.PatternPattern{Name: "Generic Secret Assignment", Regex: `secret\s*[:=]\s*['"][^'"]{8,}['"]`, Confidence: "medium"}},
		{Pattern: types.PatternPattern{Name: "Private Key Header", Regex: `-----BEGIN [A-Z ]*PRIVATE KEY-----`, Confidence: "high"}},
		{Pattern: types.PatternPattern{Name: "Basic Auth URL", Regex: `[a-z][a-z0-9+.-]*://[^/\s:@]{2,}:[^/\s:@]{2,}@`, Confidence: "medium"}},
		{Pattern: types.PatternPattern{Name: "AWS Access Key ID", Regex: `(A3T[A-Z0-9]|AKIA|ASIA|ABIA|ACCA)[A-Z0-9]{16}`, Confidence: "high"}},
		{Pattern: types.PatternPattern{Name: "GitHub Token", Regex: `gh[pousr]_[0-9a-zA-Z]{36}`, Confidence: "high"}},
		{Pattern: types.PatternPattern{Name: "Slack Token", Regex: `xox[baprs]-[0-9a-zA-Z]{10,48}`, Confidence: "high"}},
		{Pattern: types.PatternPattern{Name: "Bearer Token", Regex: `bearer\s+[a-z0-9\-._~+/]{20,}=*`, Confidence: "medium"}},
	}
}

// InitRules loads the active rule set: builtins, plus an optional rules file
// in secrets-patterns-db format, filtered by confidence when requested.
// An empty ruleFilePath keeps the builtin set only.
func InitRules(ruleFilePath string, confidenceFilter []string) {
	patterns := BuiltinRules()

	if ruleFilePath != "" {
		filePatterns, err := ParseRulesFile(ruleFilePath)
		if err != nil {
			log.Fatal().Stack().Err(err).Str("file", ruleFilePath).Msg("Failed loading rules file")
		}
		log.Debug().Int("count", len(filePatterns)).Str("file", ruleFilePath).Msg("Loaded rules file")
		patterns = slices.Concat(patterns, filePatterns)
	}

	if len(confidenceFilter) > 0 {
		log.Debug().Str("filter", strings.Join(confidenceFilter, ",")).Msg("Applying confidence filter")
		filteredPatterns := []types.PatternElement{}
		for _, pattern := range patterns {
			if slices.Contains(confidenceFilter, pattern.Pattern.Confidence) {
				filteredPatterns = append(filteredPatterns, pattern)
			}
		}
		patterns = filteredPatterns

		if len(patterns) == 0 {
			log.Info().Msg("Your confidence filter removed all rules, are you sure?")
		}
	}

	secretsPatterns.Patterns = patterns
	log.Debug().Int("count", len(secretsPatterns.Patterns)).Msg("Loaded rules")
}

// AppendRules merges extra patterns (e.g. from the policy file) into the
// active set. Call after InitRules.
func AppendRules(extra []types.PatternElement) {
	secretsPatterns.Patterns = slices.Concat(secretsPatterns.Patterns, extra)
}

func ParseRulesFile(path string) ([]types.PatternElement, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRules(yamlFile)
}

func ParseRules(data []byte) ([]types.PatternElement, error) {
	parsed := types.SecretsPatterns{}
	err := yaml.Unmarshal(data, &parsed)
	if err != nil {
		return nil, err
	}
	return parsed.Patterns, nil
}

// DownloadCommunityRules fetches the secrets-patterns-db stable rule set to
// the given path unless it already exists.
func DownloadCommunityRules(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Debug().Str("file", path).Msg("No rules file found, downloading")
		return downloadFile(remoteRuleFile, path)
	}
	return nil
}

func downloadFile(url string, filepath string) error {
	out, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	client := httpclient.GetRepoguardHTTPClient(nil)
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	_, err = io.Copy(out, resp.Body)
	return err
}

func GetSecretsPatterns() types.SecretsPatterns {
	return secretsPatterns
}
