package subtitle

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mgpai22/lysync/internal/lyrics"
)

var (
	leadingDoubleParen  = regexp.MustCompile(`^\({2,}`)
	trailingDoubleParen = regexp.MustCompile(`\){2,}$`)
)

// one entry of a paragraph's mixed content
type lysItem struct {
	text     string
	syllable bool
	begin    int
	end      int
}

func (it lysItem) render() string {
	if !it.syllable {
		if lyrics.IsBracketOnly(it.text) {
			return strings.TrimSpace(it.text)
		}
		return it.text
	}
	if lyrics.IsBracketOnly(it.text) {
		return strings.TrimSpace(it.text)
	}
	return it.text + "(" + strconv.Itoa(it.begin) + "," + strconv.Itoa(absInt(it.end-it.begin)) + ")"
}

// paragraph or background span read back from TTML
type ttmlLine struct {
	items       []lysItem
	translation string
	background  *ttmlLine
	isBG        bool
	isDuet      bool
	begin       int
	end         int
}

type ttmlReader struct {
	opts         Options
	haveBG       bool
	haveDuet     bool
	translations map[string]string
}

func (r *ttmlReader) readLine(el *xmlNode, isBG, parentDuet bool) (*ttmlLine, error) {
	line := &ttmlLine{isBG: isBG}
	if isBG {
		r.haveBG = true
		line.isDuet = parentDuet
	} else {
		agent := el.attrOr("agent", "")
		line.isDuet = agent != "" && agent != agentPrimary
	}

	for _, child := range el.children {
		if child.isText() {
			n := len(line.items)
			if n > 0 && utf8.RuneCountInString(child.text) < 2 && strings.TrimSpace(child.text) == "" {
				line.items[n-1].text += child.text
				continue
			}
			line.items = append(line.items, lysItem{text: child.text})
			continue
		}

		switch role := child.attrOr("role", ""); role {
		case "":
			if len(child.children) == 0 {
				continue
			}
			begin, err := spanTime(child, "begin")
			if err != nil {
				return nil, err
			}
			end, err := spanTime(child, "end")
			if err != nil {
				return nil, err
			}
			line.items = append(line.items, lysItem{
				text:     child.leadingText(),
				syllable: true,
				begin:    begin,
				end:      end,
			})
		case roleBackground:
			bg, err := r.readLine(child, true, line.isDuet)
			if err != nil {
				return nil, fmt.Errorf("failed to read background span: %w", err)
			}
			line.background = bg
		case roleTranslation:
			if text := child.leadingText(); text != "" {
				line.translation = text
			}
		case roleRoman:
			// romanization has no LYS representation
		}
	}

	if len(line.items) > 0 && line.items[0].syllable {
		line.begin = line.items[0].begin
		line.end = lastSyllable(line.items).end
	} else {
		line.begin = ParseTTMLTime(el.attrOr("begin", ""))
		line.end = ParseTTMLTime(el.attrOr("end", ""))
		if len(line.items) == 0 {
			line.items = append(line.items, lysItem{})
		}
	}

	if isBG && r.opts.NormalizeDoubleParens {
		normalizeBackgroundParens(line.items)
	}
	return line, nil
}

// collapses "((" on the first syllable and "))" on the last syllable
func normalizeBackgroundParens(items []lysItem) {
	if len(items) == 0 || !items[0].syllable {
		return
	}
	items[0].text = leadingDoubleParen.ReplaceAllString(items[0].text, "(")
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].syllable {
			items[i].text = trailingDoubleParen.ReplaceAllString(items[i].text, ")")
			return
		}
	}
}

func spanTime(el *xmlNode, attr string) (int, error) {
	raw, ok := el.attr(attr)
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	ms, ok := parseTTMLTime(raw)
	if !ok {
		return 0, fmt.Errorf("invalid %s time %q", attr, raw)
	}
	return ms, nil
}

func lastSyllable(items []lysItem) lysItem {
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].syllable {
			return items[i]
		}
	}
	return lysItem{}
}

func (r *ttmlReader) role(l *ttmlLine) int {
	return (boolInt(r.haveBG)+boolInt(l.isBG))*3 + boolInt(r.haveDuet) + boolInt(l.isDuet)
}

// LYS row for the line and, for primary lines, its translation row
func (r *ttmlReader) raw(l *ttmlLine) (string, string) {
	var sb strings.Builder
	hasSyllable := false
	for _, it := range l.items {
		if it.syllable {
			hasSyllable = true
			sb.WriteString(it.render())
			continue
		}
		if strings.TrimSpace(it.text) != "" {
			sb.WriteString(it.render())
		}
	}
	text := sb.String()
	if !hasSyllable && text != "" {
		text += "(" + strconv.Itoa(l.begin) + "," + strconv.Itoa(absInt(l.end-l.begin)) + ")"
	}

	main := "[" + strconv.Itoa(r.role(l)) + "]" + text
	trans := ""
	if !l.isBG && l.translation != "" {
		trans = "[" + lyrics.FormatTimestamp(l.begin) + "]" + l.translation
	}
	return main, trans
}

// TTMLToLYS converts a TTML document into LYS text and a translation LRC.
// The translation is empty when the document carries none.
func TTMLToLYS(ttml string, opts Options) (string, string, error) {
	root, err := parseXMLString(ttml)
	if err != nil {
		return "", "", err
	}

	body, head := root.first("body"), root.first("head")
	if body == nil || head == nil {
		return "", "", fmt.Errorf("%w: missing body or head", ErrMalformedTTML)
	}
	div, metadata := body.first("div"), head.first("metadata")
	if div == nil || metadata == nil {
		return "", "", fmt.Errorf("%w: missing div or metadata", ErrMalformedTTML)
	}
	paragraphs := div.find("p")
	if len(paragraphs) == 0 {
		return "", "", fmt.Errorf("%w: no p elements", ErrMalformedTTML)
	}

	r := &ttmlReader{opts: opts, translations: headTranslations(head)}
	for _, agent := range metadata.find("agent") {
		if agent.attrOr("id", "") != agentPrimary {
			r.haveDuet = true
		}
	}

	log := opts.logger()
	var lines []*ttmlLine
	for i, p := range paragraphs {
		line, err := r.readLine(p, false, false)
		if err != nil {
			log.Warnw("skipping TTML paragraph", "index", i, "error", err)
			continue
		}
		if line.translation == "" {
			line.translation = r.translations[p.attrOr("key", "")]
		}
		lines = append(lines, line)
	}

	var lys, trans strings.Builder
	if author := ttmlAuthor(metadata); author != "" {
		lys.WriteString("[by:" + author + "]\n")
	}
	for _, l := range lines {
		main, t := r.raw(l)
		lys.WriteString(main + "\n")
		if t != "" {
			trans.WriteString(t + "\n")
		}
		if l.background != nil {
			bgMain, _ := r.raw(l.background)
			lys.WriteString(bgMain + "\n")
		}
	}

	log.Debugw("converted TTML to LYS", "paragraphs", len(paragraphs), "lines", len(lines))
	return lys.String(), trans.String(), nil
}

// TTMLToLines reads TTML straight into renderer lines with translations
// attached.
func TTMLToLines(ttml string, opts Options) ([]lyrics.Line, error) {
	lys, trans, err := TTMLToLYS(ttml, opts)
	if err != nil {
		return nil, err
	}
	lines := lyrics.ParseLYS(lys)
	attachTranslations(lines, trans, opts.TranslationTolerance)
	return lines, nil
}

// sets TranslatedText on primary lines from a translation LRC
func attachTranslations(lines []lyrics.Line, translation string, tolerance int) {
	if translation == "" {
		return
	}
	pool := newTranslationPool(translation)
	for i := range lines {
		if lines[i].IsBackground {
			continue
		}
		if text, ok := pool.nearest(lines[i].Start(), tolerance); ok {
			lines[i].TranslatedText = strings.TrimSpace(text)
		}
	}
}

func ttmlAuthor(metadata *xmlNode) string {
	for _, meta := range metadata.find("meta") {
		if meta.attrOr("key", "") == "ttmlAuthorGithubLogin" {
			if v := strings.TrimSpace(meta.attrOr("value", "")); v != "" {
				return v
			}
		}
	}
	return ""
}

// line translations kept in the head as iTunesMetadata, keyed by itunes:key
func headTranslations(head *xmlNode) map[string]string {
	out := map[string]string{}
	for _, tr := range head.find("translation") {
		for _, text := range tr.find("text") {
			key := text.attrOr("for", "")
			if key == "" {
				continue
			}
			var sb strings.Builder
			for _, c := range text.children {
				if c.isText() {
					sb.WriteString(c.text)
					continue
				}
				if c.attrOr("role", "") != roleBackground {
					sb.WriteString(nodeText(c))
				}
			}
			if v := strings.TrimSpace(sb.String()); v != "" {
				out[key] = v
			}
		}
	}
	return out
}

func nodeText(n *xmlNode) string {
	if n.isText() {
		return n.text
	}
	var sb strings.Builder
	for _, c := range n.children {
		sb.WriteString(nodeText(c))
	}
	return sb.String()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
