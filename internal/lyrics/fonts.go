package lyrics

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var (
	fontDirectivePattern = regexp.MustCompile(`(?i)^\[font-family:\s*([^\]]*)\s*\]$`)
	fontPartPattern      = regexp.MustCompile(`^(?:([^()]+)?\s*\(([^)]+)\))|^([^()]+)$`)
)

// script tags produced by DetectScript
const (
	ScriptJapanese = "ja"
	ScriptLatin    = "en"
)

// font selection state set by a [font-family:...] directive
type FontSpec struct {
	Default string
	Map     map[string]string
}

// parses the body of a font-family directive.
// "Main(en),Sub(ja),Extra" maps en and ja and sets Extra as default,
// an empty body clears everything
func ParseFontFamily(raw string) FontSpec {
	spec := FontSpec{Map: map[string]string{}}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		m := fontPartPattern.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		if m[3] != "" {
			if plain := strings.TrimSpace(m[3]); plain != "" {
				spec.Default = plain
			}
			continue
		}
		lang := strings.ToLower(strings.TrimSpace(m[2]))
		if lang != "" {
			spec.Map[lang] = strings.TrimSpace(m[1])
		}
	}
	return spec
}

// matches a whole-line font directive and returns its body
func matchFontDirective(line string) (string, bool) {
	m := fontDirectivePattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func isKanaOrCJK(r rune) bool {
	return (r >= 0x3040 && r <= 0x30ff) ||
		(r >= 0x31f0 && r <= 0x31ff) ||
		(r >= 0x4e00 && r <= 0x9fff)
}

// classifies text by character ranges, Kana/CJK wins over Latin
func DetectScript(text string) string {
	latin := false
	for _, r := range text {
		if isKanaOrCJK(r) {
			return ScriptJapanese
		}
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			latin = true
		}
	}
	if latin {
		return ScriptLatin
	}
	return ""
}

// font for a piece of text: mapped font for its script, else the default
func (f FontSpec) FontFor(text string) string {
	if script := DetectScript(text); script != "" {
		if mapped, ok := f.Map[script]; ok {
			return mapped
		}
	}
	return f.Default
}

// sorted, comma-joined mapped fonts for the given scripts
func (f FontSpec) suggested(scripts map[string]struct{}) string {
	seen := map[string]struct{}{}
	for sc := range scripts {
		if font := f.Map[sc]; font != "" {
			seen[font] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return ""
	}
	fonts := make([]string, 0, len(seen))
	for font := range seen {
		fonts = append(fonts, font)
	}
	sort.Strings(fonts)
	return strings.Join(fonts, ",")
}

func (f FontSpec) copyMap() map[string]string {
	if len(f.Map) == 0 {
		return nil
	}
	out := make(map[string]string, len(f.Map))
	for k, v := range f.Map {
		out[k] = v
	}
	return out
}
