package subtitle

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mgpai22/lysync/internal/lyrics"
)

// turns lyric lines into caption entries
type DefaultGenerator struct {
	MaxCharsPerLine    int
	MaxLinesPerSub     int
	MinDuration        time.Duration
	IncludeTranslation bool
}

func NewDefaultGenerator() *DefaultGenerator {
	return &DefaultGenerator{
		MaxCharsPerLine:    42, // Standard subtitle line length
		MaxLinesPerSub:     2,  // Most players support 2 lines
		MinDuration:        time.Second,
		IncludeTranslation: true,
	}
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// converts lyric lines to a caption track. A line stays on screen until its
// disappear time when one was computed, otherwise until its last syllable ends.
func (g *DefaultGenerator) Generate(lines []lyrics.Line) (*Subtitle, error) {
	var entries []Entry
	index := 1

	for _, line := range lines {
		if len(line.Syllables) == 0 || strings.TrimSpace(line.JoinedText()) == "" {
			continue
		}

		for _, chunk := range g.chunks(line.Syllables) {
			entry := g.entryFor(line, chunk)
			entry.Index = index
			entries = append(entries, entry)
			index++
		}
	}

	if len(entries) == 0 {
		return nil, ErrNoLines
	}

	return &Subtitle{
		Entries: entries,
		Format:  string(FormatSRT),
	}, nil
}

func (g *DefaultGenerator) entryFor(line lyrics.Line, syllables []lyrics.Syllable) Entry {
	var text strings.Builder
	segments := make([]KaraokeSegment, 0, len(syllables))
	for _, s := range syllables {
		text.WriteString(s.Text)
		segments = append(segments, KaraokeSegment{
			Text:      s.Text,
			StartTime: millis(s.StartTime),
			Duration:  millis(s.Duration),
		})
	}

	// disappear time and translation belong to the final chunk of a line
	final := last(syllables).End() == line.End()

	start := millis(syllables[0].StartTime)
	end := millis(last(syllables).End())
	if final && line.DisappearTime > line.End() {
		end = millis(line.DisappearTime)
	}
	if end-start < g.MinDuration {
		end = start + g.MinDuration
	}

	body := g.formatText(text.String())
	translation := ""
	if g.IncludeTranslation && final {
		translation = strings.TrimSpace(line.TranslatedText)
	}
	if translation != "" {
		body += "\n" + translation
	}

	style := StyleDefault
	switch {
	case line.IsBackground:
		style = StyleBackground
	case line.IsDuet:
		style = StyleDuet
	}

	return Entry{
		StartTime:   start,
		EndTime:     end,
		Text:        body,
		Translation: translation,
		Style:       style,
		Karaoke:     segments,
	}
}

func last(s []lyrics.Syllable) lyrics.Syllable {
	return s[len(s)-1]
}

// splits a long line into runs of syllables that each fit on screen
func (g *DefaultGenerator) chunks(syllables []lyrics.Syllable) [][]lyrics.Syllable {
	maxChars := g.MaxCharsPerLine * g.MaxLinesPerSub
	if maxChars <= 0 {
		return [][]lyrics.Syllable{syllables}
	}

	var out [][]lyrics.Syllable
	var cur []lyrics.Syllable
	count := 0
	for _, s := range syllables {
		n := utf8.RuneCountInString(s.Text)
		if len(cur) > 0 && count+n > maxChars {
			out = append(out, cur)
			cur, count = nil, 0
		}
		cur = append(cur, s)
		count += n
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// formatText formats text for display with line wrapping
func (g *DefaultGenerator) formatText(text string) string {
	text = strings.TrimSpace(text)
	runeCount := utf8.RuneCountInString(text)

	// if text fits on one line, return as is
	if runeCount <= g.MaxCharsPerLine {
		return text
	}

	// try to split into two lines at a natural break point
	words := strings.Fields(text)
	if len(words) < 2 {
		return text
	}

	// find the best split point (closest to middle)
	middle := runeCount / 2
	bestSplit := 0
	bestDiff := runeCount

	currentLen := 0
	for i, word := range words[:len(words)-1] {
		currentLen += utf8.RuneCountInString(word)
		if i > 0 {
			currentLen++ // space
		}

		diff := absInt(currentLen - middle)
		if diff < bestDiff {
			bestDiff = diff
			bestSplit = i + 1
		}
	}

	if bestSplit > 0 && bestSplit < len(words) {
		line1 := strings.Join(words[:bestSplit], " ")
		line2 := strings.Join(words[bestSplit:], " ")
		return line1 + "\n" + line2
	}

	return text
}
