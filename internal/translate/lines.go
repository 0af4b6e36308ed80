package translate

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/mgpai22/lysync/internal/lyrics"
)

// TranslateLines translates every foreground line that has text and stores
// the result in TranslatedText. Background vocals are left alone. It returns
// the number of lines translated.
func TranslateLines(
	ctx context.Context,
	t Translator,
	lines []lyrics.Line,
	opts Options,
) (int, error) {
	var items []Item
	for i, l := range lines {
		if l.IsBackground {
			continue
		}
		if text := strings.TrimSpace(l.JoinedText()); text != "" {
			items = append(items, Item{Index: i, Text: text})
		}
	}
	if len(items) == 0 {
		return 0, nil
	}

	results, err := Translate(ctx, t, items, opts)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(lines) {
			continue
		}
		lines[r.Index].TranslatedText = r.Text
		n++
	}
	return n, nil
}

// TranslationLRC renders the translated lines as "[mm:ss.mmm]text" rows keyed
// on each line's start, the layout read back as a translation file.
func TranslationLRC(lines []lyrics.Line) string {
	var sb strings.Builder
	for _, l := range lines {
		if l.TranslatedText == "" || len(l.Syllables) == 0 {
			continue
		}
		sb.WriteString("[")
		sb.WriteString(lyrics.FormatTimestamp(l.Start()))
		sb.WriteString("]")
		sb.WriteString(l.TranslatedText)
		sb.WriteString("\n")
	}
	return sb.String()
}

// "<dir>/<stem>_trans.lrc" next to the source file
func OutputPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_trans.lrc"
}
