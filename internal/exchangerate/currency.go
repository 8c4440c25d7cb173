package exchangerate

import (
	"regexp"
	"strconv"
	"strings"
)

// Target currencies reported for every base.
const (
	USD = "USD"
	KZT = "KZT"
)

var codePattern = regexp.MustCompile(`\((.*?)\)`)

// ParseCurrencyCode extracts the code from a "name (code)" descriptor list.
// Only the first parenthesized token is used, passed through as written.
func ParseCurrencyCode(descriptor string) (string, bool) {
	match := codePattern.FindStringSubmatch(descriptor)
	if len(match) < 2 {
		return "", false
	}
	code := strings.TrimSpace(match[1])
	if code == "" {
		return "", false
	}
	return code, true
}

// FormatRate renders a rate with exactly two decimals.
func FormatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', 2, 64)
}
