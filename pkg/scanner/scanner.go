// Package scanner re-exports the scan engine, rule management and finding
// types under one import path.
package scanner

import (
	"github.com/CompassSecurity/repoguard/pkg/scanner/engine"
	"github.com/CompassSecurity/repoguard/pkg/scanner/rules"
	"github.com/CompassSecurity/repoguard/pkg/scanner/types"
)

type Finding = types.Finding
type PatternElement = types.PatternElement
type PatternPattern = types.PatternPattern
type SecretsPatterns = types.SecretsPatterns
type DetectionResult = types.DetectionResult

var InitRules = rules.InitRules
var AppendRules = rules.AppendRules
var BuiltinRules = rules.BuiltinRules
var DownloadCommunityRules = rules.DownloadCommunityRules

var DetectHits = engine.DetectHits
var ResetDeduplication = engine.ResetDeduplication
