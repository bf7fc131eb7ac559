package types

// SecretsPatterns mirrors the secrets-patterns-db rule file layout.
type SecretsPatterns struct {
	Patterns []PatternElement `json:"patterns" yaml:"patterns"`
}

type PatternElement struct {
	Pattern PatternPattern `json:"pattern" yaml:"pattern"`
}

type PatternPattern struct {
	Name       string `json:"name" yaml:"name"`
	Regex      string `json:"regex" yaml:"regex"`
	Confidence string `json:"confidence" yaml:"confidence"`
}

// Finding is a single rule hit inside a scanned text blob.
// Line is 1-based, 0 means the hit could not be mapped to a line.
type Finding struct {
	Pattern PatternElement
	Text    string
	Line    int
}

type DetectionResult struct {
	Findings []Finding
	Error    error
}
