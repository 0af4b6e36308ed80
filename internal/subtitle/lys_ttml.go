package subtitle

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mgpai22/lysync/internal/lyrics"
)

var (
	lysLinePattern     = regexp.MustCompile(`^\[([^\]]*)\](.*)`)
	lysSyllablePattern = regexp.MustCompile(`(.*?)\((\d+),(\d+)\)`)
	lysWholeLine       = regexp.MustCompile(`^(.*)\((\d+),(\d+)\)$`)
	repeatedSpace      = regexp.MustCompile(`\s{2,}`)
)

type lysSyllable struct {
	text  string
	start int
	dur   int
}

type lysRow struct {
	syllables  []lysSyllable
	duet       bool
	background bool
	begin      int
	lastEnd    int
	end        int
}

// timed pieces of one LYS content body. Unlike the renderer's parser this
// keeps parentheses, spacing and empty-text syllables as written.
func parseLYSSyllables(body string, offset int) []lysSyllable {
	body = repeatedSpace.ReplaceAllString(body, " ")
	var out []lysSyllable
	for _, m := range lysSyllablePattern.FindAllStringSubmatch(body, -1) {
		start, _ := strconv.Atoi(m[2])
		dur, _ := strconv.Atoi(m[3])
		out = append(out, lysSyllable{text: m[1], start: start + offset, dur: dur})
	}
	if len(out) > 0 {
		return out
	}
	if m := lysWholeLine.FindStringSubmatch(body); m != nil {
		start, _ := strconv.Atoi(m[2])
		dur, _ := strconv.Atoi(m[3])
		start += offset
		if m[1] != "" || start > 0 || dur > 0 {
			out = append(out, lysSyllable{text: m[1], start: start, dur: dur})
		}
	}
	return out
}

func parseLYSRows(content string) []*lysRow {
	offset := lyrics.Offset(content)
	var rows []*lysRow
	for _, raw := range lyrics.SplitLines(content) {
		if strings.TrimSpace(raw) == "" || isSkippedMetaLine(raw) {
			continue
		}
		m := lysLinePattern.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		marker, body := m[1], m[2]
		syllables := parseLYSSyllables(body, offset)
		if len(syllables) == 0 {
			continue
		}
		parenthetical := !lyrics.IsBackgroundMarker(marker) && lyrics.IsParentheticalBackground(body)
		last := syllables[len(syllables)-1]
		rows = append(rows, &lysRow{
			syllables:  syllables,
			duet:       lyrics.IsDuetMarker(marker),
			background: lyrics.IsBackgroundMarker(marker) || parenthetical,
			begin:      syllables[0].start,
			lastEnd:    last.start + last.dur,
		})
	}
	return rows
}

// LYSToTTML converts syllable-timed LYS text, plus an optional translation
// LRC, into an Apple style TTML document.
func LYSToTTML(lys, translation string, opts Options) (string, error) {
	rows := parseLYSRows(lys)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].begin < rows[j].begin })

	pool := newTranslationPool(translation)
	translations := make([]string, len(rows))
	for i, r := range rows {
		translations[i], _ = pool.nearest(r.begin, opts.TranslationTolerance)
	}

	duet := false
	for _, r := range rows {
		duet = duet || r.duet
	}

	for i, r := range rows {
		if i+1 < len(rows) {
			r.end = max(r.lastEnd, rows[i+1].begin)
		} else {
			r.end = max(r.lastEnd, r.begin+opts.FinalLineTail)
		}
	}

	doc := newTTMLDocument(duet, lyrics.TagValue(lys, "by"), lyrics.TagValue(translation, "by"), opts.translationLang())
	if len(rows) > 0 {
		doc.setSpan(rows[0].begin, rows[len(rows)-1].end)
	}

	for i, r := range rows {
		if !r.background {
			p := doc.addParagraph(r.begin, r.end, r.duet)
			for _, s := range r.syllables {
				p.addSyllable(s.text, s.start, s.start+s.dur)
			}
			p.setTranslation(translations[i])
			continue
		}
		bg := doc.hostFor(r.begin, r.end).addBackground(r.begin, r.end, translations[i])
		for _, s := range r.syllables {
			bg.addSyllable(s.text, s.start, s.start+s.dur)
		}
	}

	opts.logger().Debugw("converted LYS to TTML", "lines", len(rows), "paragraphs", len(doc.paragraphs))
	return doc.render(), nil
}

func isSkippedMetaLine(raw string) bool {
	return strings.HasPrefix(raw, "[from:") || strings.HasPrefix(raw, "[id:") || strings.HasPrefix(raw, "[offset:")
}
