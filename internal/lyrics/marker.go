package lyrics

import (
	"regexp"
	"strings"
)

var (
	timingTagPattern   = regexp.MustCompile(`\(\d+,\d+\)`)
	bracketOnlyPattern = regexp.MustCompile(`^[\s()（）\[\]【】]+$`)
)

var parenPairs = map[rune]rune{
	'(': ')',
	'（': '）',
}

// alignment selected by a line marker, before background inheritance
func MarkerAlign(marker string) Align {
	switch marker {
	case "":
		return AlignCenter
	case "2", "5":
		return AlignRight
	default:
		return AlignLeft
	}
}

func IsBackgroundMarker(marker string) bool {
	return marker == "6" || marker == "7" || marker == "8"
}

func IsDuetMarker(marker string) bool {
	return marker == "2" || marker == "5"
}

// removes (start,duration) tags
func StripTimingTags(s string) string {
	return timingTagPattern.ReplaceAllString(s, "")
}

// reports whether content, once timing tags are removed, is wrapped in one
// pair of matching parentheses around non-empty text
func IsParentheticalBackground(content string) bool {
	stripped := strings.TrimSpace(StripTimingTags(content))
	if stripped == "" {
		return false
	}
	runes := []rune(stripped)
	closing, ok := parenPairs[runes[0]]
	if !ok || len(runes) < 2 || runes[len(runes)-1] != closing {
		return false
	}
	return strings.TrimSpace(string(runes[1:len(runes)-1])) != ""
}

// text made only of brackets and whitespace
func IsBracketOnly(s string) bool {
	return bracketOnlyPattern.MatchString(s)
}

// splits on \n, \r\n and \r
func SplitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}
