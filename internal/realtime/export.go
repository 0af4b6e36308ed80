package realtime

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mgpai22/lysync/internal/lyrics"
)

const exportStamp = "20060102_150405"

// writes files received from the player into the export and cover directories
type Exporter struct {
	ExportsDir string
	CoversDir  string
	// url prefix under which CoversDir is served
	CoverURLPrefix string

	now func() time.Time
}

func NewExporter(exportsDir, coversDir string) *Exporter {
	return &Exporter{
		ExportsDir:     exportsDir,
		CoversDir:      coversDir,
		CoverURLPrefix: "/songs/",
		now:            time.Now,
	}
}

func (e *Exporter) stamp() string {
	return e.now().Format(exportStamp)
}

func (e *Exporter) write(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func (e *Exporter) SaveTTML(text string) (string, error) {
	return e.write(e.ExportsDir, "lyrics_ttml_"+e.stamp()+".ttml", []byte(text))
}

func (e *Exporter) SaveBinary(data []byte) (string, error) {
	return e.write(e.ExportsDir, "lyrics_binary_"+e.stamp()+".bin", data)
}

// SaveCover stores image bytes under a unique name and returns the public url
func (e *Exporter) SaveCover(data []byte, mime string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty cover image")
	}
	if err := os.MkdirAll(e.CoversDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", e.CoversDir, err)
	}
	name, err := uniqueName(e.CoversDir, fmt.Sprintf("amll_cover_%d%s", e.now().Unix(), coverExt(mime)))
	if err != nil {
		return "", err
	}
	if _, err := e.write(e.CoversDir, name, data); err != nil {
		return "", err
	}
	return e.CoverURLPrefix + name, nil
}

func coverExt(mime string) string {
	mime = strings.ToLower(mime)
	switch {
	case strings.Contains(mime, "png"):
		return ".png"
	case strings.Contains(mime, "webp"):
		return ".webp"
	case strings.Contains(mime, "gif"):
		return ".gif"
	}
	return ".jpg"
}

// appends _1, _2, ... before the extension until the name is free in dir
func uniqueName(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	candidate := name
	for i := 1; ; i++ {
		_, err := os.Stat(filepath.Join(dir, candidate))
		switch {
		case errors.Is(err, os.ErrNotExist):
			return candidate, nil
		case err != nil:
			return "", fmt.Errorf("failed to check %s: %w", candidate, err)
		}
		candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
	}
}

var charCSVHeader = []string{
	"line_index", "word_index", "char_index", "char", "roman_char",
	"start_ms", "end_ms", "start_ts", "end_ts", "is_bg", "is_duet",
}

// WriteCharCSV exports one row per character with a UTF-8 BOM. Nothing is
// written when the lines hold no words; the returned path is empty then.
func (e *Exporter) WriteCharCSV(lines []RawLine) (string, error) {
	var rows [][]string
	for i, line := range lines {
		for j, w := range line.Words {
			for k, ev := range SplitWord(w) {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					strconv.Itoa(j + 1),
					strconv.Itoa(k + 1),
					ev.Char,
					ev.Roman,
					strconv.Itoa(ev.StartMs),
					strconv.Itoa(ev.EndMs),
					lyrics.FormatTimestamp(ev.StartMs),
					lyrics.FormatTimestamp(ev.EndMs),
					strconv.FormatBool(line.IsBG),
					strconv.FormatBool(line.IsDuet),
				})
			}
		}
	}
	if len(rows) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("\ufeff")
	cw := csv.NewWriter(&sb)
	if err := cw.Write(charCSVHeader); err != nil {
		return "", fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return "", fmt.Errorf("failed to write csv rows: %w", err)
	}
	return e.write(e.ExportsDir, "lyrics_chars_"+e.stamp()+".csv", []byte(sb.String()))
}

// LinesToLYS renders lines as LYS, using word timing when present and the
// per-character syllables otherwise
func LinesToLYS(lines []lyrics.Line) string {
	out := []string{"[from: AMLL]", "[offset:0]"}
	for _, line := range lines {
		marker := "1"
		if line.IsBackground {
			marker = "6"
		}

		var sb strings.Builder
		if len(line.Words) > 0 {
			for _, w := range line.Words {
				if w.Text == "" {
					continue
				}
				fmt.Fprintf(&sb, "%s(%d,%d)", w.Text, w.StartMs, w.Duration)
			}
		} else {
			for _, s := range line.Syllables {
				if s.Text == "" {
					continue
				}
				fmt.Fprintf(&sb, "%s(%d,%d)", s.Text, s.StartTime, s.Duration)
			}
		}
		if sb.Len() > 0 {
			out = append(out, "["+marker+"]"+sb.String())
		}
	}
	return strings.Join(out, "\n")
}

// LinesToLRC renders the translations at the start of each line
func LinesToLRC(lines []lyrics.Line) string {
	out := []string{"[by: AMLL]"}
	for _, line := range lines {
		text := strings.TrimSpace(line.TranslatedText)
		if text == "" {
			continue
		}
		out = append(out, lyrics.FormatLRCTag(line.Start())+text)
	}
	return strings.Join(out, "\n")
}
