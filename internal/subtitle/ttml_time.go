package subtitle

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var clockTimePattern = regexp.MustCompile(`^(?:(\d+):)?(\d+):(\d{1,2})(?:\.(\d{1,3}))?$`)

// formats milliseconds as mm:ss.mmm, or hh:mm:ss.mmm from one hour on
func FormatTTMLTime(ms int) string {
	if ms < 0 {
		ms = 0
	}
	frac := ms % 1000
	secs := ms / 1000
	h, m, s := secs/3600, (secs/60)%60, secs%60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, frac)
	}
	return fmt.Sprintf("%02d:%02d.%03d", m, s, frac)
}

// parses [h:]mm:ss[.fff] or plain seconds ("12.5", "12.5s")
func parseTTMLTime(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if m := clockTimePattern.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		ss, _ := strconv.Atoi(m[3])
		frac := 0
		if m[4] != "" {
			digits := m[4] + strings.Repeat("0", 3-len(m[4]))
			frac, _ = strconv.Atoi(digits)
		}
		return ((h*60+mm)*60+ss)*1000 + frac, true
	}

	s = strings.TrimSuffix(s, "s")
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil || sec < 0 {
		return 0, false
	}
	return int(sec*1000 + 0.5), true
}

// milliseconds for a TTML clock value, 0 when unparseable
func ParseTTMLTime(s string) int {
	ms, _ := parseTTMLTime(s)
	return ms
}
