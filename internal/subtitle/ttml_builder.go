package subtitle

import (
	"encoding/xml"
	"strconv"
	"strings"
	"unicode"
)

const (
	nsTTML   = "http://www.w3.org/ns/ttml"
	nsTTM    = "http://www.w3.org/ns/ttml#metadata"
	nsAMLL   = "http://www.example.com/ns/amll"
	nsITunes = "http://music.apple.com/lyric-ttml-internal"

	agentPrimary = "v1"
	agentDuet    = "v2"

	roleBackground  = "x-bg"
	roleTranslation = "x-translation"
	roleRoman       = "x-roman"
)

// piece of paragraph content: a timed syllable span or a bare text node
type inlinePart struct {
	text  string
	timed bool
	begin int
	end   int
}

type inlineContent struct {
	parts []inlinePart
}

// adds a syllable span; trailing whitespace becomes a text node after it and
// a syllable with nothing but whitespace emits no span
func (c *inlineContent) addSyllable(text string, begin, end int) {
	body := strings.TrimRightFunc(text, unicode.IsSpace)
	tail := text[len(body):]
	if body != "" {
		c.parts = append(c.parts, inlinePart{text: body, timed: true, begin: begin, end: end})
	}
	if tail != "" {
		c.addText(tail)
	}
}

func (c *inlineContent) addText(text string) {
	if text == "" {
		return
	}
	c.parts = append(c.parts, inlinePart{text: text})
}

func (c *inlineContent) render(sb *strings.Builder) {
	for _, part := range c.parts {
		if !part.timed {
			writeEscaped(sb, part.text)
			continue
		}
		sb.WriteString(`<span begin="`)
		sb.WriteString(FormatTTMLTime(part.begin))
		sb.WriteString(`" end="`)
		sb.WriteString(FormatTTMLTime(part.end))
		sb.WriteString(`">`)
		writeEscaped(sb, part.text)
		sb.WriteString(`</span>`)
	}
}

type ttmlBackground struct {
	inlineContent
	begin       int
	end         int
	translation string
}

type ttmlParagraph struct {
	inlineContent
	begin       int
	end         int
	agent       string
	key         string
	translation string
	background  *ttmlBackground
}

func (p *ttmlParagraph) setTranslation(text string) {
	p.translation = strings.TrimSpace(text)
}

// background span of the paragraph. A second background line joins the
// existing span, which is stretched to cover it; the first translation wins.
func (p *ttmlParagraph) addBackground(begin, end int, translation string) *ttmlBackground {
	translation = strings.TrimSpace(translation)
	if p.background == nil {
		p.background = &ttmlBackground{begin: begin, end: end, translation: translation}
		return p.background
	}
	bg := p.background
	if begin < bg.begin {
		bg.begin = begin
	}
	if end > bg.end {
		bg.end = end
	}
	if bg.translation == "" {
		bg.translation = translation
	}
	return bg
}

// Apple style lyric TTML assembled in memory and rendered on one line
type ttmlDocument struct {
	duet        bool
	authors     []string
	divBegin    int
	divEnd      int
	paragraphs  []*ttmlParagraph
	lang        string
	nextLineKey int
}

func newTTMLDocument(duet bool, author, translationAuthor, lang string) *ttmlDocument {
	d := &ttmlDocument{duet: duet, lang: lang, nextLineKey: 1}
	d.addAuthor(author)
	if ta := strings.TrimSpace(translationAuthor); ta != "" {
		switch {
		case author != "" && strings.HasPrefix(ta, author):
			d.addAuthor(ta)
		case author != "":
			d.addAuthor(author + "，" + ta)
		default:
			d.addAuthor(ta)
		}
	}
	return d
}

func (d *ttmlDocument) addAuthor(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	for _, a := range d.authors {
		if a == name {
			return
		}
	}
	d.authors = append(d.authors, name)
}

func (d *ttmlDocument) setSpan(begin, end int) {
	d.divBegin, d.divEnd = begin, end
}

func (d *ttmlDocument) addParagraph(begin, end int, duet bool) *ttmlParagraph {
	agent := agentPrimary
	if duet {
		agent = agentDuet
	}
	p := &ttmlParagraph{
		begin: begin,
		end:   end,
		agent: agent,
		key:   "L" + strconv.Itoa(d.nextLineKey),
	}
	d.nextLineKey++
	d.paragraphs = append(d.paragraphs, p)
	return p
}

// last primary paragraph, creating a v1 paragraph for an orphan background
func (d *ttmlDocument) hostFor(begin, end int) *ttmlParagraph {
	if n := len(d.paragraphs); n > 0 {
		return d.paragraphs[n-1]
	}
	return d.addParagraph(begin, end, false)
}

func (d *ttmlDocument) render() string {
	var sb strings.Builder
	sb.WriteString(`<tt xmlns="` + nsTTML + `" xmlns:ttm="` + nsTTM + `" xmlns:amll="` + nsAMLL + `" xmlns:itunes="` + nsITunes + `">`)
	sb.WriteString(`<head><metadata>`)
	sb.WriteString(`<ttm:agent type="person" xml:id="` + agentPrimary + `"/>`)
	if d.duet {
		sb.WriteString(`<ttm:agent type="other" xml:id="` + agentDuet + `"/>`)
	}
	for _, a := range d.authors {
		sb.WriteString(`<amll:meta key="ttmlAuthorGithubLogin" value="`)
		writeEscaped(&sb, a)
		sb.WriteString(`"/>`)
	}
	sb.WriteString(`</metadata></head>`)

	sb.WriteString(`<body dur="` + FormatTTMLTime(d.divEnd) + `">`)
	sb.WriteString(`<div begin="` + FormatTTMLTime(d.divBegin) + `" end="` + FormatTTMLTime(d.divEnd) + `">`)
	for _, p := range d.paragraphs {
		sb.WriteString(`<p begin="` + FormatTTMLTime(p.begin) + `" end="` + FormatTTMLTime(p.end) +
			`" ttm:agent="` + p.agent + `" itunes:key="` + p.key + `">`)
		p.render(&sb)
		d.renderTranslation(&sb, p.translation)
		if bg := p.background; bg != nil {
			sb.WriteString(`<span ttm:role="` + roleBackground + `" begin="` + FormatTTMLTime(bg.begin) +
				`" end="` + FormatTTMLTime(bg.end) + `">`)
			bg.render(&sb)
			d.renderTranslation(&sb, bg.translation)
			sb.WriteString(`</span>`)
		}
		sb.WriteString(`</p>`)
	}
	sb.WriteString(`</div></body></tt>`)
	return sb.String()
}

func (d *ttmlDocument) renderTranslation(sb *strings.Builder, text string) {
	if text == "" {
		return
	}
	sb.WriteString(`<span ttm:role="` + roleTranslation + `" xml:lang="`)
	writeEscaped(sb, d.lang)
	sb.WriteString(`">`)
	writeEscaped(sb, text)
	sb.WriteString(`</span>`)
}

func writeEscaped(sb *strings.Builder, s string) {
	// strings.Builder writes never fail
	_ = xml.EscapeText(sb, []byte(s))
}
