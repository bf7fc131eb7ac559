package scan

import (
	"fmt"
	"time"

	"github.com/CompassSecurity/repoguard/pkg/format"
	"github.com/CompassSecurity/repoguard/pkg/logging"
	"github.com/CompassSecurity/repoguard/pkg/policy"
	scanfs "github.com/CompassSecurity/repoguard/pkg/scan/fs"
	"github.com/CompassSecurity/repoguard/pkg/scan/result"
	"github.com/CompassSecurity/repoguard/pkg/scanner"
	"github.com/CompassSecurity/repoguard/pkg/system"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type ScanOptions struct {
	Dir                    string
	RulesFile              string
	CommunityRules         bool
	ConfidenceFilter       []string
	MaxScanGoRoutines      int
	TruffleHogVerification bool
	PolicyFile             string
	HitTimeout             time.Duration
	MaxFileSize            int64
	FailOnFindings         bool
	RunID                  string
}

var options = ScanOptions{}
var maxFileSize string

func NewScanCmd() *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan [no options!]",
		Short: "Scan a directory tree for secrets",
		Long:  `Scan the files of a directory tree for credential-like strings using the secret pattern rules`,
		Example: `
# Scan the current directory
repoguard scan --dir .

# Scan with the community secrets-patterns-db rule set
repoguard scan --dir . --community-rules

# Scan with high confidence rules only and verify hits with TruffleHog
repoguard scan --dir . --confidence high --truffle-hog-verification
		`,
		RunE: Scan,
	}
	scanCmd.Flags().StringVarP(&options.Dir, "dir", "d", ".", "Directory to scan")
	scanCmd.Flags().StringVarP(&options.RulesFile, "rules", "", "", "Additional rules file in secrets-patterns-db format")
	scanCmd.Flags().BoolVarP(&options.CommunityRules, "community-rules", "", false, "Download and use the community secrets-patterns-db rule set")
	scanCmd.Flags().StringSliceVarP(&options.ConfidenceFilter, "confidence", "", []string{}, "Filter for confidence level, separate by comma if multiple")
	scanCmd.Flags().IntVarP(&options.MaxScanGoRoutines, "threads", "", 4, "Nr of threads used to scan")
	scanCmd.Flags().BoolVarP(&options.TruffleHogVerification, "truffle-hog-verification", "", false, "Verify hits with the TruffleHog detectors and report verified credentials additionally")
	scanCmd.Flags().StringVarP(&options.PolicyFile, "policy", "c", "", "Path to a policy file, defaults to .repoguard.yml when present")
	scanCmd.Flags().DurationVarP(&options.HitTimeout, "hit-timeout", "", 30*time.Second, "Max. duration of hit detection per file")
	scanCmd.Flags().StringVarP(&maxFileSize, "max-file-size", "", "10MB", "Max file size to be included in scanning. Larger files are skipped. Format: https://pkg.go.dev/github.com/docker/go-units#FromHumanSize")
	scanCmd.Flags().BoolVarP(&options.FailOnFindings, "fail-on-findings", "", true, "Exit non-zero when findings were reported, making the scan usable as a CI status check. Disable with --fail-on-findings=false")

	return scanCmd
}

func Scan(cmd *cobra.Command, args []string) error {
	go logging.ShortcutListeners()

	if err := policy.ValidateThreadCount(options.MaxScanGoRoutines); err != nil {
		return err
	}

	byteSize, err := format.ParseHumanSize(maxFileSize)
	if err != nil {
		return fmt.Errorf("failed parsing max-file-size flag: %w", err)
	}
	options.MaxFileSize = byteSize
	options.RunID = uuid.NewString()

	repoPolicy, err := policy.LoadPolicy(options.PolicyFile)
	if err != nil {
		return err
	}

	rulesFile := options.RulesFile
	if options.CommunityRules && rulesFile == "" {
		rulesFile = "rules.yml"
		if err := scanner.DownloadCommunityRules(rulesFile); err != nil {
			return fmt.Errorf("failed downloading community rules: %w", err)
		}
	}

	scanner.InitRules(rulesFile, options.ConfidenceFilter)
	scanner.AppendRules(repoPolicy.SecretRules)
	scanner.ResetDeduplication()

	logging.RegisterStatusHook(scanStatus)
	system.RegisterGracefulShutdownHandler(func() {
		log.Info().Int64("violations", result.Count()).Msg("Scan interrupted")
	})

	log.Info().Str("dir", options.Dir).Str("runId", options.RunID).Msg("Scanning directory")
	summary, err := scanfs.ScanDir(scanfs.ScanOptions{
		Dir:               options.Dir,
		MaxFileSize:       options.MaxFileSize,
		MaxScanGoRoutines: options.MaxScanGoRoutines,
		VerifyCredentials: options.TruffleHogVerification,
		HitTimeout:        options.HitTimeout,
		RunID:             options.RunID,
		IgnoreGlobs:       repoPolicy.Ignore,
	})
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	log.Info().
		Int("filesScanned", summary.FilesScanned).
		Int("filesSkipped", summary.FilesSkipped).
		Int("findings", summary.Findings).
		Msg("Scan Finished, Bye Bye 🏳️‍🌈🔥")

	if options.FailOnFindings && summary.Findings > 0 {
		return fmt.Errorf("%d finding(s) reported", summary.Findings)
	}
	return nil
}

func scanStatus() *zerolog.Event {
	return log.Info().Str("runId", options.RunID).Int64("violations", result.Count())
}
