package lyrics

import "strings"

// horizontal placement of a rendered line
type Align string

const (
	AlignLeft   Align = "left"
	AlignRight  Align = "right"
	AlignCenter Align = "center"
)

type FontSize string

const (
	FontSizeNormal FontSize = "normal"
	FontSizeSmall  FontSize = "small"
)

// represents smallest timed unit of lyric text, times in milliseconds
type Syllable struct {
	Text       string `json:"text"`
	StartTime  int    `json:"startTime"`
	Duration   int    `json:"duration"`
	FontFamily string `json:"fontFamily,omitempty"`
	Roman      string `json:"roman,omitempty"`
}

func (s Syllable) End() int {
	return s.StartTime + s.Duration
}

// rendering hints attached to a line
type Style struct {
	Align               Align             `json:"align"`
	FontSize            FontSize          `json:"fontSize"`
	FontFamily          string            `json:"fontFamily,omitempty"`
	FontFamilyMap       map[string]string `json:"fontFamilyMap,omitempty"`
	FontFamilySuggested string            `json:"fontFamilySuggested,omitempty"`
}

// word as received from a realtime player, before character expansion
type Word struct {
	Text     string `json:"text"`
	StartMs  int    `json:"start_ms"`
	EndMs    int    `json:"end_ms"`
	Duration int    `json:"duration_ms"`
	Roman    string `json:"roman,omitempty"`
}

// represents one displayed lyric row
type Line struct {
	Text           string     `json:"line"`
	Syllables      []Syllable `json:"syllables"`
	Style          Style      `json:"style"`
	IsBackground   bool       `json:"isBackground"`
	IsDuet         bool       `json:"isDuet"`
	DisappearTime  int        `json:"disappearTime"`
	TranslatedText string     `json:"translatedLyric,omitempty"`
	Words          []Word     `json:"words,omitempty"`
}

// start of the first syllable, 0 for an empty line
func (l Line) Start() int {
	if len(l.Syllables) == 0 {
		return 0
	}
	return l.Syllables[0].StartTime
}

// end of the last syllable, 0 for an empty line
func (l Line) End() int {
	if len(l.Syllables) == 0 {
		return 0
	}
	return l.Syllables[len(l.Syllables)-1].End()
}

// concatenated syllable text
func (l Line) JoinedText() string {
	var sb strings.Builder
	for _, s := range l.Syllables {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// drops lines without syllables, keeping order
func Compact(lines []Line) []Line {
	out := lines[:0:0]
	for _, l := range lines {
		if len(l.Syllables) > 0 {
			out = append(out, l)
		}
	}
	return out
}
