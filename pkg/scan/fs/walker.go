package fs

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/CompassSecurity/repoguard/pkg/scan/result"
	"github.com/CompassSecurity/repoguard/pkg/scanner"
	"github.com/h2non/filetype"
	"github.com/rs/zerolog/log"
	ignore "github.com/sabhiram/go-gitignore"
)

// defaultIgnores are always skipped in addition to .gitignore entries.
var defaultIgnores = []string{
	".git/",
	"node_modules/",
	"vendor/",
	".idea/",
	".vscode/",
	".DS_Store",
}

type ScanOptions struct {
	Dir               string
	MaxFileSize       int64
	MaxScanGoRoutines int
	VerifyCredentials bool
	HitTimeout        time.Duration
	RunID             string
	IgnoreGlobs       []string
}

type ScanSummary struct {
	FilesScanned int
	FilesSkipped int
	Findings     int
}

// ScanDir walks a directory tree and scans every text file against the
// active rule set. Findings are reported as they are discovered.
func ScanDir(opts ScanOptions) (*ScanSummary, error) {
	summary := &ScanSummary{}

	matcher := buildIgnoreMatcher(opts.Dir, opts.IgnoreGlobs)

	err := filepath.WalkDir(opts.Dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(opts.Dir, path)
		if err != nil || relPath == "." {
			return nil
		}

		if matcher.MatchesPath(relPath) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			summary.FilesSkipped = summary.FilesSkipped + 1
			return nil
		}

		if entry.IsDir() {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			log.Debug().Err(err).Str("file", relPath).Msg("Failed reading file info")
			summary.FilesSkipped = summary.FilesSkipped + 1
			return nil
		}

		if opts.MaxFileSize > 0 && info.Size() > opts.MaxFileSize {
			log.Debug().Int64("bytes", info.Size()).Int64("maxBytes", opts.MaxFileSize).Str("file", relPath).Msg("Skipped large file")
			summary.FilesSkipped = summary.FilesSkipped + 1
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			log.Debug().Err(err).Str("file", relPath).Msg("Failed reading file")
			summary.FilesSkipped = summary.FilesSkipped + 1
			return nil
		}

		// do not scan known binary formats
		// https://pkg.go.dev/github.com/h2non/filetype#readme-supported-types
		kind, _ := filetype.Match(content)
		if kind != filetype.Unknown {
			log.Trace().Str("file", relPath).Str("kind", kind.MIME.Value).Msg("Skipped binary file")
			summary.FilesSkipped = summary.FilesSkipped + 1
			return nil
		}

		findings, err := scanner.DetectHits(content, opts.MaxScanGoRoutines, opts.VerifyCredentials, opts.HitTimeout)
		if err != nil {
			log.Debug().Err(err).Str("file", relPath).Msg("Failed detecting secrets")
			return nil
		}

		result.ReportFindings(findings, result.ReportOptions{
			File:  relPath,
			RunID: opts.RunID,
			Type:  result.ViolationSecretFile,
		})

		summary.FilesScanned = summary.FilesScanned + 1
		summary.Findings = summary.Findings + len(findings)
		return nil
	})

	return summary, err
}

func buildIgnoreMatcher(root string, extraGlobs []string) *ignore.GitIgnore {
	patterns := append([]string{}, defaultIgnores...)
	patterns = append(patterns, extraGlobs...)

	gitignorePath := filepath.Join(root, ".gitignore")
	if content, err := os.ReadFile(gitignorePath); err == nil {
		patterns = append(patterns, strings.Split(string(content), "\n")...)
	}

	return ignore.CompileIgnoreLines(patterns...)
}
