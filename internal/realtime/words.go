package realtime

import (
	"strings"
	"unicode/utf8"

	"github.com/mgpai22/lysync/internal/lyrics"
)

// one character of a word with its share of the word's time
type CharEvent struct {
	Char    string
	Roman   string
	StartMs int
	EndMs   int
}

// SplitWord spreads a word's time evenly over its characters. The remainder
// goes to the earliest characters and the last character always ends at the
// word's end. Romanization is aligned by spaces, then hyphens, then per
// character when the lengths match.
func SplitWord(w lyrics.Word) []CharEvent {
	chars := strings.Split(w.Text, "")
	n := max(1, len(chars))
	s, e := w.StartMs, w.EndMs
	if e == 0 {
		e = s
	}
	roman := alignRoman(w.Roman, n)

	if n == 1 {
		return []CharEvent{{Char: w.Text, Roman: roman[0], StartMs: s, EndMs: e}}
	}

	out := make([]CharEvent, n)
	dur := max(0, e-s)
	if dur == 0 {
		for i, ch := range chars {
			out[i] = CharEvent{Char: ch, Roman: roman[i], StartMs: s, EndMs: s}
		}
		return out
	}

	base, rem := dur/n, dur%n
	cur := s
	for i, ch := range chars {
		seg := base
		if i < rem {
			seg++
		}
		out[i] = CharEvent{Char: ch, Roman: roman[i], StartMs: cur, EndMs: cur + seg}
		cur += seg
	}
	out[n-1].EndMs = e
	return out
}

func alignRoman(rw string, n int) []string {
	if rw == "" {
		return make([]string, n)
	}
	parts := strings.Split(strings.TrimSpace(strings.ReplaceAll(rw, "  ", " ")), " ")
	if len(parts) == n {
		return parts
	}
	if parts = strings.Split(rw, "-"); len(parts) == n {
		return parts
	}
	if utf8.RuneCountInString(rw) == n {
		return strings.Split(rw, "")
	}
	return make([]string, n)
}

// kana, CJK ideographs, CJK punctuation and full-width forms
func isJoinedScript(r rune) bool {
	return (r >= 0x3040 && r <= 0x30FF) ||
		(r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0xFF01 && r <= 0xFF60) ||
		(r >= 0x3000 && r <= 0x303F)
}

// JoinLineText concatenates words directly for CJK text and with spaces
// otherwise
func JoinLineText(words []lyrics.Word) string {
	texts := make([]string, 0, len(words))
	for _, w := range words {
		if w.Text != "" {
			texts = append(texts, w.Text)
		}
	}
	joined := strings.Join(texts, "")
	if strings.ContainsFunc(joined, isJoinedScript) {
		return joined
	}
	return strings.Join(texts, " ")
}

// ToLines expands player lines into per-character syllables. Lines that end
// up without syllables are dropped.
func ToLines(raw []RawLine) []lyrics.Line {
	lines := make([]lyrics.Line, 0, len(raw))
	for _, r := range raw {
		line := lyrics.Line{
			Text:           JoinLineText(r.Words),
			Syllables:      []lyrics.Syllable{},
			IsBackground:   r.IsBG,
			IsDuet:         r.IsDuet,
			TranslatedText: r.TranslatedLyric,
			Style:          lyrics.Style{Align: lyrics.AlignLeft, FontSize: lyrics.FontSizeNormal},
		}
		if r.IsDuet {
			line.Style.Align = lyrics.AlignRight
		}
		if r.IsBG {
			line.Style.FontSize = lyrics.FontSizeSmall
		}

		for _, w := range r.Words {
			if w.Text != "" {
				line.Words = append(line.Words, w)
			}
			for _, ev := range SplitWord(w) {
				if ev.Char == "" {
					continue
				}
				line.Syllables = append(line.Syllables, lyrics.Syllable{
					Text:      ev.Char,
					StartTime: ev.StartMs,
					Duration:  max(0, ev.EndMs-ev.StartMs),
					Roman:     ev.Roman,
				})
			}
		}
		lines = append(lines, line)
	}
	return lyrics.Compact(lines)
}
