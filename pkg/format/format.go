package format

import (
	"strings"

	"github.com/docker/go-units"
)

// ParseHumanSize parses a human-readable size string (e.g. "500MB", "1GB")
// into bytes.
func ParseHumanSize(sizeStr string) (int64, error) {
	return units.FromHumanSize(sizeStr)
}

// HumanSize renders a byte count in human-readable form.
func HumanSize(size int64) string {
	return units.HumanSize(float64(size))
}

// TruncateValue caps a reported secret value so findings stay log friendly.
func TruncateValue(value string, max int) string {
	value = strings.TrimSpace(value)
	if max > 0 && len(value) > max {
		return value[0:max]
	}
	return value
}
