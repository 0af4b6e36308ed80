package subtitle

import (
	"errors"
	"time"
)

// represents single caption entry
type Entry struct {
	Index       int
	StartTime   time.Duration
	EndTime     time.Duration
	Text        string
	Translation string // also present as the last line of Text
	Style       EntryStyle
	Karaoke     []KaraokeSegment
}

// timed piece of an entry, used for karaoke tags
type KaraokeSegment struct {
	Text      string
	StartTime time.Duration
	Duration  time.Duration
}

// caption placement derived from a lyric line
type EntryStyle string

const (
	StyleDefault    EntryStyle = "Default"
	StyleDuet       EntryStyle = "Duet"
	StyleBackground EntryStyle = "Background"
)

// represents complete caption track
type Subtitle struct {
	Entries  []Entry
	Language string
	Format   string
}

// represents supported formats, lyric sources and caption targets
type Format string

const (
	FormatLYS  Format = "lys"
	FormatTTML Format = "ttml"
	FormatLRC  Format = "lrc"

	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
	FormatASS Format = "ass"
)

// interface for writing captions to files
type Writer interface {
	Write(subtitle *Subtitle, path string) error
}

// returned when the XML container structure is unusable
var ErrMalformedTTML = errors.New("malformed TTML document")

// returned when a conversion has no lines to emit
var ErrNoLines = errors.New("no lyric lines found")
