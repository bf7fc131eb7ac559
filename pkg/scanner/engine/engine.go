package engine

import (
	"context"
	"errors"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/CompassSecurity/repoguard/pkg/scanner/rules"
	"github.com/CompassSecurity/repoguard/pkg/scanner/types"
	"github.com/acarl005/stripansi"
	"github.com/rs/zerolog/log"
	"github.com/rxwycdh/rxhash"
	"github.com/trufflesecurity/trufflehog/v3/pkg/engine/defaults"
	"github.com/wandb/parallel"
)

var findingsDeduplicationList []string
var deduplicationMutex sync.Mutex

// DetectHits scans a text blob against the active rule set and returns all
// findings with their 1-based line numbers. Patterns run in parallel, bounded
// by maxThreads, and the whole detection is cut off after timeout.
// When verifyCredentials is set the TruffleHog detectors run on top of the
// regex rules and only verified credentials are added. Left off, the scan is
// a plain pattern match and false positives are accepted.
func DetectHits(text []byte, maxThreads int, verifyCredentials bool, timeout time.Duration) ([]types.Finding, error) {
	result := make(chan types.DetectionResult, 1)
	go func() {
		result <- detectAll(text, maxThreads, verifyCredentials)
	}()
	select {
	case <-time.After(timeout):
		return nil, errors.New("hit detection timed out (" + timeout.String() + ")")
	case result := <-result:
		return result.Findings, result.Error
	}
}

func detectAll(text []byte, maxThreads int, verifyCredentials bool) types.DetectionResult {
	ctx := context.Background()
	group := parallel.Collect[[]types.Finding](parallel.Limited(ctx, maxThreads))

	lines := newLineIndex(text)
	secretsPatterns := rules.GetSecretsPatterns()

	for _, pattern := range secretsPatterns.Patterns {
		group.Go(func(ctx context.Context) ([]types.Finding, error) {
			findings := []types.Finding{}
			// rules are matched case-insensitively across the board
			m, err := regexp.Compile(`(?i:` + pattern.Pattern.Regex + `)`)
			if err != nil {
				log.Trace().Err(err).Str("name", pattern.Pattern.Name).Str("regex", pattern.Pattern.Regex).Msg("Failed compiling regex expression")
				return findings, nil
			}

			hits := m.FindAllIndex(text, -1)

			for _, hit := range hits {
				hitStr := cleanHitLine(string(text[hit[0]:hit[1]]))
				if len(hitStr) > 1024 {
					hitStr = hitStr[0:1024]
				}

				if hitStr != "" {
					findings = append(findings, types.Finding{
						Pattern: pattern,
						Text:    hitStr,
						Line:    lines.lineAt(hit[0]),
					})
				}
			}

			return findings, nil
		})
	}

	results, err := group.Wait()
	if err != nil {
		log.Error().Stack().Err(err).Msg("Failed waiting for parallel hit detection")
	}

	findingsCombined := slices.Concat(results...)

	if verifyCredentials {
		findingsCombined = slices.Concat(findingsCombined, detectVerifiedCredentials(ctx, text, maxThreads, lines))
	}

	return types.DetectionResult{Findings: deduplicateFindings(findingsCombined), Error: nil}
}

func detectVerifiedCredentials(ctx context.Context, text []byte, maxThreads int, lines *lineIndex) []types.Finding {
	trGroup := parallel.Collect[[]types.Finding](parallel.Limited(ctx, maxThreads))
	for _, detector := range defaults.DefaultDetectors() {
		trGroup.Go(func(ctx context.Context) ([]types.Finding, error) {
			findings := []types.Finding{}
			trHits, err := detector.FromData(ctx, true, text)
			if err != nil {
				log.Error().Err(err).Msg("TruffleHog detector failed")
				return findings, nil
			}

			for _, result := range trHits {
				if !result.Verified {
					continue
				}

				secret := result.Raw
				if len(result.RawV2) > 0 {
					secret = result.RawV2
				}

				findings = append(findings, types.Finding{
					Pattern: types.PatternElement{Pattern: types.PatternPattern{Name: result.DetectorType.String(), Confidence: "high-verified"}},
					Text:    string(secret),
					Line:    lines.lineOf(secret),
				})
			}
			return findings, nil
		})
	}

	results, err := trGroup.Wait()
	if err != nil {
		log.Error().Stack().Err(err).Msg("Failed waiting for trufflehog parallel hit detection")
	}

	return slices.Concat(results...)
}

// deduplicateFindings drops findings already reported by an earlier blob in
// this run. Within one blob every match reports, including a rule hitting the
// same text twice, only prior blobs are compared against. The bounded list
// keeps repeated files from flooding the output while two patterns hitting
// the same text still report independently, the rule name is part of the
// hash.
func deduplicateFindings(totalFindings []types.Finding) []types.Finding {
	dedupedFindings := []types.Finding{}
	blobHashes := []string{}

	deduplicationMutex.Lock()
	for _, finding := range totalFindings {
		hash, _ := rxhash.HashStruct(finding)
		if slices.Contains(findingsDeduplicationList, hash) {
			continue
		}

		dedupedFindings = append(dedupedFindings, finding)
		if !slices.Contains(blobHashes, hash) {
			blobHashes = append(blobHashes, hash)
		}
	}

	findingsDeduplicationList = append(findingsDeduplicationList, blobHashes...)
	for len(findingsDeduplicationList) > 500 {
		findingsDeduplicationList[0] = ""
		findingsDeduplicationList = findingsDeduplicationList[1:]
	}
	deduplicationMutex.Unlock()

	return dedupedFindings
}

// ResetDeduplication clears the run-wide deduplication state.
func ResetDeduplication() {
	deduplicationMutex.Lock()
	findingsDeduplicationList = nil
	deduplicationMutex.Unlock()
}

func cleanHitLine(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	return stripansi.Strip(text)
}

// lineIndex maps byte offsets in a blob to 1-based line numbers.
type lineIndex struct {
	text    []byte
	offsets []int
}

func newLineIndex(text []byte) *lineIndex {
	offsets := []int{0}
	for i, b := range text {
		if b == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return &lineIndex{text: text, offsets: offsets}
}

func (l *lineIndex) lineAt(offset int) int {
	if offset < 0 || offset > len(l.text) {
		return 0
	}
	return sort.SearchInts(l.offsets, offset+1)
}

func (l *lineIndex) lineOf(needle []byte) int {
	idx := strings.Index(string(l.text), string(needle))
	if idx < 0 {
		return 0
	}
	return l.lineAt(idx)
}
