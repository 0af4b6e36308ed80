package lyrics

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	lrcLinePattern = regexp.MustCompile(`^\[(\d{2}):(\d{2})\.(\d{2,3})\](.*)`)
	lrcTagPattern  = regexp.MustCompile(`\[(\d{2}):(\d{2})\.(\d{2,3})\]`)
	metaTagPattern = regexp.MustCompile(`\[(\w+):\s*(.*?)\s*\]`)
)

// one timestamped row of a line-timed caption file
type LRCEntry struct {
	TimeMs int
	Text   string
}

func lrcMillis(min, sec, frac string) int {
	// two-digit fractions are hundredths
	if len(frac) == 2 {
		frac += "0"
	}
	m, _ := strconv.Atoi(min)
	s, _ := strconv.Atoi(sec)
	f, _ := strconv.Atoi(frac)
	return (m*60+s)*1000 + f
}

// parses "[mm:ss.xx]content", keeping content spacing except a trailing \r
func ParseLRCLine(line string) (int, string, bool) {
	m := lrcLinePattern.FindStringSubmatch(line)
	if m == nil {
		return 0, "", false
	}
	return lrcMillis(m[1], m[2], m[3]), strings.TrimRight(m[4], "\r"), true
}

// value of a [tag:value] metadata entry, original case kept
func TagValue(text, tag string) string {
	for _, m := range metaTagPattern.FindAllStringSubmatch(text, -1) {
		if m[1] == tag {
			return strings.TrimSpace(m[2])
		}
	}
	return ""
}

// timestamped entries with the file's own offset applied; rows with empty
// text are dropped
func ParseLRC(content string) []LRCEntry {
	offset := Offset(content)
	var entries []LRCEntry
	for _, raw := range SplitLines(content) {
		m := lrcTagPattern.FindStringSubmatch(raw)
		if m == nil || !strings.HasPrefix(raw, m[0]) {
			continue
		}
		text := strings.TrimSpace(lrcTagPattern.ReplaceAllString(raw, ""))
		if text == "" {
			continue
		}
		entries = append(entries, LRCEntry{
			TimeMs: lrcMillis(m[1], m[2], m[3]) + offset,
			Text:   text,
		})
	}
	return entries
}

// milliseconds -> text for translation lookups, every key shifted by shift.
// Empty texts are kept so an explicit blank entry still occupies its slot
func TranslationMap(content string, shift int) map[int]string {
	out := map[int]string{}
	for _, raw := range SplitLines(content) {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		ms, text, ok := ParseLRCLine(raw)
		if !ok {
			continue
		}
		out[ms+shift] = text
	}
	return out
}

// lines with a single syllable spanning to the next entry
func LRCToLines(content string, defaultDuration int) []Line {
	entries := ParseLRC(content)
	lines := make([]Line, 0, len(entries))
	for i, e := range entries {
		dur := defaultDuration
		if i+1 < len(entries) && entries[i+1].TimeMs > e.TimeMs {
			dur = entries[i+1].TimeMs - e.TimeMs
		}
		lines = append(lines, Line{
			Text:      e.Text,
			Syllables: []Syllable{{Text: e.Text, StartTime: e.TimeMs, Duration: dur}},
			Style:     Style{Align: AlignLeft, FontSize: FontSizeNormal},
		})
	}
	return lines
}

// "mm:ss.mmm"
func FormatTimestamp(ms int) string {
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%02d:%02d.%03d", ms/60000, (ms/1000)%60, ms%1000)
}

// "[mm:ss.xx]", the short form written by exporters
func FormatLRCTag(ms int) string {
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("[%02d:%02d.%02d]", ms/60000, (ms/1000)%60, (ms%1000)/10)
}
