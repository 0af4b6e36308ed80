package subtitle

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mgpai22/lysync/internal/lyrics"
)

var lrcMarkerPattern = regexp.MustCompile(`^\[(\d+)\](.*)`)

type lrcRow struct {
	begin      int
	end        int
	text       string
	duet       bool
	background bool
}

func splitLRCMarker(content string) (string, string) {
	if m := lrcMarkerPattern.FindStringSubmatch(content); m != nil {
		return m[1], m[2]
	}
	return "", content
}

func parseLRCRows(content string, opts Options) []*lrcRow {
	var rows []*lrcRow
	for _, raw := range lyrics.SplitLines(content) {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		ms, body, ok := lyrics.ParseLRCLine(raw)
		if !ok || body == "" {
			continue
		}
		marker, clean := splitLRCMarker(body)
		rows = append(rows, &lrcRow{
			begin: ms,
			text:  clean,
			duet: strings.Contains(body, "[2]") || strings.Contains(body, "[5]") ||
				lyrics.IsDuetMarker(marker),
			background: lyrics.IsBackgroundMarker(marker) || lyrics.IsParentheticalBackground(clean),
		})
	}

	for i, r := range rows {
		r.end = r.begin + opts.LRCDefaultDuration
		if i+1 < len(rows) {
			if gap := rows[i+1].begin - r.begin; gap > 0 && gap < opts.LRCMaxGap {
				r.end = rows[i+1].begin
			}
		}
	}
	return rows
}

// LRCToTTML converts line-timed LRC, plus an optional translation LRC matched
// on exact timestamps, into an Apple style TTML document. Both files are read
// at their written timestamps; [offset:] tags are not applied.
func LRCToTTML(lrc, translation string, opts Options) (string, error) {
	rows := parseLRCRows(lrc, opts)
	translations := lyrics.TranslationMap(translation, 0)

	duet := false
	for _, r := range rows {
		duet = duet || r.duet
	}

	doc := newTTMLDocument(duet, lyrics.TagValue(lrc, "by"), lyrics.TagValue(translation, "by"), opts.translationLang())
	if len(rows) > 0 {
		first, last := rows[0].begin, rows[0].end
		for _, r := range rows[1:] {
			first = min(first, r.begin)
			last = max(last, r.end)
		}
		doc.setSpan(first, last)
	}

	for _, r := range rows {
		if r.text == "" {
			continue
		}
		trans := translations[r.begin]
		if !r.background {
			p := doc.addParagraph(r.begin, r.end, r.duet)
			addPlainText(&p.inlineContent, r.text)
			p.setTranslation(trans)
			continue
		}
		bg := doc.hostFor(r.begin, r.end).addBackground(r.begin, r.end, trans)
		addPlainText(&bg.inlineContent, r.text)
	}

	opts.logger().Debugw("converted LRC to TTML", "lines", len(rows), "paragraphs", len(doc.paragraphs))
	return doc.render(), nil
}

// untimed text with its trailing whitespace kept as a separate node
func addPlainText(c *inlineContent, text string) {
	body := strings.TrimRightFunc(text, unicode.IsSpace)
	c.addText(body)
	c.addText(text[len(body):])
}
