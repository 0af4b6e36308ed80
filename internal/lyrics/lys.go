package lyrics

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	offsetPattern   = regexp.MustCompile(`\[offset:\s*(-?\d+)\s*\]`)
	contentPattern  = regexp.MustCompile(`^\[(\d*)\](.*)`)
	syllablePattern = regexp.MustCompile(`(.+?)\((\d+),(\d+)\)`)
	plainParens     = strings.NewReplacer("(", "", ")", "")
)

var skippedMetaPrefixes = []string{"[from:", "[id:", "[offset:"}

// millisecond shift declared by the first [offset:N] tag, 0 when absent
func Offset(content string) int {
	m := offsetPattern.FindStringSubmatch(content)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// splits "[marker]body" into its parts
func SplitMarker(line string) (marker, body string, ok bool) {
	m := contentPattern.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

func isSkippedMeta(trimmed string) bool {
	for _, p := range skippedMetaPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}

// decodes the syllable timing format into lines. Unrecognized lines are
// skipped and lines without syllables are dropped, though their alignment
// is still remembered for background inheritance.
func ParseLYS(content string) []Line {
	offset := Offset(content)
	lastAlign := AlignLeft
	var font FontSpec
	var lines []Line

	for _, raw := range SplitLines(content) {
		trimmed := strings.TrimSpace(raw)
		if body, ok := matchFontDirective(trimmed); ok {
			font = ParseFontFamily(body)
			continue
		}
		if isSkippedMeta(trimmed) {
			continue
		}

		marker, body, ok := SplitMarker(raw)
		if !ok {
			continue
		}

		bgMarker := IsBackgroundMarker(marker)
		parenthetical := !bgMarker && IsParentheticalBackground(body)
		background := bgMarker || parenthetical

		align := MarkerAlign(marker)
		size := FontSizeNormal
		if background {
			align = lastAlign
			size = FontSizeSmall
		}

		line := Line{
			IsBackground: background,
			IsDuet:       IsDuetMarker(marker) || marker == "8",
		}
		scripts := map[string]struct{}{}
		var text strings.Builder

		for _, m := range syllablePattern.FindAllStringSubmatch(body, -1) {
			cleaned := StripTimingTags(m[1])
			if !parenthetical {
				cleaned = plainParens.Replace(cleaned)
			}
			if cleaned == "" {
				continue
			}
			start, _ := strconv.Atoi(m[2])
			dur, _ := strconv.Atoi(m[3])
			scripts[DetectScript(cleaned)] = struct{}{}
			line.Syllables = append(line.Syllables, Syllable{
				Text:       cleaned,
				StartTime:  start + offset,
				Duration:   dur,
				FontFamily: font.FontFor(cleaned),
			})
			text.WriteString(cleaned)
		}

		if len(line.Syllables) > 0 {
			line.Text = text.String()
			line.Style = Style{
				Align:         align,
				FontSize:      size,
				FontFamily:    font.Default,
				FontFamilyMap: font.copyMap(),
			}
			if len(font.Map) > 0 && font.Default == "" {
				line.Style.FontFamilySuggested = font.suggested(scripts)
			}
			lines = append(lines, line)
		}
		lastAlign = align
	}
	return lines
}
