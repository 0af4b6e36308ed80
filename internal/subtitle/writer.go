package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SubRip format
type SRTWriter struct{}

// WebVTT format
type VTTWriter struct{}

// Advanced SubStation Alpha format, with \k karaoke timing per syllable
type ASSWriter struct {
	Title    string
	FontName string
	FontSize int
	Karaoke  bool
}

func NewWriter(format Format) (Writer, error) {
	switch format {
	case FormatSRT:
		return &SRTWriter{}, nil
	case FormatVTT:
		return &VTTWriter{}, nil
	case FormatASS:
		return &ASSWriter{
			Title:    "lysync karaoke",
			FontName: "Arial",
			FontSize: 20,
			Karaoke:  true,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// writes the subtitle to an SRT file
func (w *SRTWriter) Write(sub *Subtitle, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	var sb strings.Builder
	for i, entry := range sub.Entries {
		// index (1-based)
		sb.WriteString(fmt.Sprintf("%d\n", i+1))

		// timestamps: 00:00:00,000 --> 00:00:00,000
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			formatSRTTime(entry.StartTime),
			formatSRTTime(entry.EndTime)))

		// text
		sb.WriteString(entry.Text)
		sb.WriteString("\n\n")
	}

	return os.WriteFile(path, []byte(sb.String()), 0644)
}

// writes the subtitle to a VTT file
func (w *VTTWriter) Write(sub *Subtitle, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	var sb strings.Builder

	// VTT header
	sb.WriteString("WEBVTT\n\n")

	for i, entry := range sub.Entries {
		// optional cue identifier
		sb.WriteString(fmt.Sprintf("%d\n", i+1))

		// timestamps: 00:00:00.000 --> 00:00:00.000
		sb.WriteString(fmt.Sprintf("%s --> %s%s\n",
			formatVTTTime(entry.StartTime),
			formatVTTTime(entry.EndTime),
			vttCueSettings(entry.Style)))

		// text
		sb.WriteString(entry.Text)
		sb.WriteString("\n\n")
	}

	return os.WriteFile(path, []byte(sb.String()), 0644)
}

// writes the subtitle to an ASS file
func (w *ASSWriter) Write(sub *Subtitle, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	var sb strings.Builder

	// script info section
	sb.WriteString("[Script Info]\n")
	sb.WriteString(fmt.Sprintf("Title: %s\n", w.Title))
	sb.WriteString("ScriptType: v4.00+\n")
	sb.WriteString("Collisions: Normal\n")
	sb.WriteString("PlayDepth: 0\n\n")

	// v4+ styles section
	sb.WriteString("[V4+ Styles]\n")
	sb.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	// primary is the sung colour, secondary the colour before the \k sweep
	sb.WriteString(fmt.Sprintf("Style: %s,%s,%d,&H00FFFFFF,&H00A0A0A0,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,2,1,40,40,40,1\n",
		StyleDefault, w.FontName, w.FontSize))
	sb.WriteString(fmt.Sprintf("Style: %s,%s,%d,&H00FFFFFF,&H00A0A0A0,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,2,3,40,40,40,1\n",
		StyleDuet, w.FontName, w.FontSize))
	sb.WriteString(fmt.Sprintf("Style: %s,%s,%d,&H00DDDDDD,&H00808080,&H00000000,&H00000000,0,1,0,0,100,100,0,0,1,2,2,2,40,40,40,1\n\n",
		StyleBackground, w.FontName, w.FontSize*3/4))

	// events section
	sb.WriteString("[Events]\n")
	sb.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	for _, entry := range sub.Entries {
		style := entry.Style
		if style == "" {
			style = StyleDefault
		}
		text := escapeASSText(entry.Text)
		if w.Karaoke && len(entry.Karaoke) > 0 {
			text = karaokeASSText(entry)
		}
		// dialogue line
		sb.WriteString(fmt.Sprintf("Dialogue: 0,%s,%s,%s,,0,0,0,,%s\n",
			formatASSTime(entry.StartTime),
			formatASSTime(entry.EndTime),
			style,
			text))
	}

	return os.WriteFile(path, []byte(sb.String()), 0644)
}

func formatSRTTime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

func formatVTTTime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}

func formatASSTime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	centis := (int(d.Milliseconds()) % 1000) / 10

	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, seconds, centis)
}

// braces become full-width, ASS has no escape for them
var assTextReplacer = strings.NewReplacer("{", "\uff5b", "}", "\uff5d", "\n", "\\N")

func escapeASSText(text string) string {
	return assTextReplacer.Replace(text)
}

// {\kNN} before every syllable, in centiseconds. Gaps between syllables
// become empty \k runs so the sweep stays in sync.
func karaokeASSText(entry Entry) string {
	var sb strings.Builder
	cursor := entry.StartTime
	for _, seg := range entry.Karaoke {
		if gap := seg.StartTime - cursor; gap >= 10*time.Millisecond {
			sb.WriteString(fmt.Sprintf("{\\k%d}", gap.Milliseconds()/10))
		}
		sb.WriteString(fmt.Sprintf("{\\k%d}", seg.Duration.Milliseconds()/10))
		sb.WriteString(escapeASSText(seg.Text))
		cursor = seg.StartTime + seg.Duration
	}
	if entry.Translation != "" {
		sb.WriteString("\\N")
		sb.WriteString(escapeASSText(entry.Translation))
	}
	return sb.String()
}

func vttCueSettings(style EntryStyle) string {
	switch style {
	case StyleDuet:
		return " align:end"
	case StyleBackground:
		return " line:85%"
	default:
		return ""
	}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}

// subtitle format based on file extension
func GetFormatFromExtension(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".srt":
		return FormatSRT
	case ".vtt":
		return FormatVTT
	case ".ass", ".ssa":
		return FormatASS
	default:
		return FormatSRT
	}
}

// file extension for a format
func GetExtensionForFormat(format Format) string {
	switch format {
	case FormatSRT:
		return ".srt"
	case FormatVTT:
		return ".vtt"
	case FormatASS:
		return ".ass"
	default:
		return ".srt"
	}
}
