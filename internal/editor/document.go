package editor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// editable token view of a .lys file
type Document struct {
	ID      string  `json:"id"`
	Version int     `json:"version"`
	Lines   []*Line `json:"lines"`
}

// Line is either a meta line kept verbatim or a lyric line of timed tokens.
// Meta lines hold their raw text in a single untimed token.
type Line struct {
	ID     string   `json:"id"`
	Prefix string   `json:"prefix"`
	IsMeta bool     `json:"is_meta"`
	Tokens []*Token `json:"tokens"`
}

// TS is "start,duration" in milliseconds, or empty for untimed text
type Token struct {
	ID   string `json:"id"`
	TS   string `json:"ts"`
	Text string `json:"text"`
}

var (
	metaTagPattern = regexp.MustCompile(`(?i)^\[(ti|ar|al):`)
	prefixPattern  = regexp.MustCompile(`^\[\d+\]`)
	tokenPattern   = regexp.MustCompile(`(.*?)[(（](\d+),(\d+)[)）]`)
)

func newID() string {
	return uuid.NewString()
}

func newLine() *Line {
	return &Line{ID: newID(), Tokens: []*Token{}}
}

func metaLine(text string) *Line {
	return &Line{
		ID:     newID(),
		IsMeta: true,
		Tokens: []*Token{{ID: newID(), Text: text}},
	}
}

// ParseLYS splits raw .lys text into lines of tokens. Title, artist and
// album tags and any line without timed tokens become meta lines.
func ParseLYS(raw string) *Document {
	doc := &Document{ID: newID(), Lines: []*Line{}}

	for _, s := range splitLines(raw) {
		if s == "" {
			doc.Lines = append(doc.Lines, newLine())
			continue
		}
		if metaTagPattern.MatchString(s) {
			doc.Lines = append(doc.Lines, metaLine(s))
			continue
		}

		prefix, rest := "", s
		if loc := prefixPattern.FindStringIndex(s); loc != nil {
			prefix, rest = s[:loc[1]], s[loc[1]:]
		} else if strings.HasPrefix(s, "[]") {
			prefix, rest = "[]", s[2:]
		}

		var tokens []*Token
		for _, m := range tokenPattern.FindAllStringSubmatch(rest, -1) {
			tokens = append(tokens, &Token{ID: newID(), TS: m[2] + "," + m[3], Text: m[1]})
		}
		if len(tokens) == 0 {
			doc.Lines = append(doc.Lines, metaLine(s))
			continue
		}
		doc.Lines = append(doc.Lines, &Line{ID: newID(), Prefix: prefix, Tokens: tokens})
	}
	return doc
}

// line splitting that drops a single trailing newline, like reading a file
// line by line
func splitLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	raw = strings.TrimSuffix(raw, "\n")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, "\n")
}

// Dump renders the document back to .lys text
func Dump(doc *Document) string {
	out := make([]string, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		var b strings.Builder
		if line.IsMeta {
			for _, tok := range line.Tokens {
				b.WriteString(tok.Text)
			}
			out = append(out, b.String())
			continue
		}

		b.WriteString(line.Prefix)
		for _, tok := range line.Tokens {
			b.WriteString(tok.Text)
			if tok.TS != "" {
				b.WriteString("(" + tok.TS + ")")
			}
		}
		out = append(out, b.String())
	}
	return strings.Join(out, "\n")
}

// deep copy; ids are preserved
func (d *Document) Clone() *Document {
	c := &Document{ID: d.ID, Version: d.Version, Lines: make([]*Line, len(d.Lines))}
	for i, line := range d.Lines {
		c.Lines[i] = line.clone()
	}
	return c
}

func (l *Line) clone() *Line {
	c := *l
	c.Tokens = make([]*Token, len(l.Tokens))
	for i, tok := range l.Tokens {
		t := *tok
		c.Tokens[i] = &t
	}
	return &c
}

func (d *Document) findLine(id string) (int, *Line, bool) {
	for i, line := range d.Lines {
		if line.ID == id {
			return i, line, true
		}
	}
	return -1, nil, false
}

func (l *Line) findToken(id string) (int, bool) {
	for i, tok := range l.Tokens {
		if tok.ID == id {
			return i, true
		}
	}
	return -1, false
}

// parses "start,duration"
func parseTS(ts string) (start, dur int, ok bool) {
	s, d, found := strings.Cut(strings.TrimSpace(ts), ",")
	if !found {
		return 0, 0, false
	}
	start, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, 0, false
	}
	dur, err = strconv.Atoi(strings.TrimSpace(d))
	if err != nil {
		return 0, 0, false
	}
	return start, dur, true
}

func formatTS(start, dur int) string {
	return strconv.Itoa(start) + "," + strconv.Itoa(dur)
}
