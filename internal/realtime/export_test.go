package realtime

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/mgpai22/lysync/internal/lyrics"
)

var fixedNow = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestExporter(t *testing.T) *Exporter {
	t.Helper()
	dir := t.TempDir()
	e := NewExporter(filepath.Join(dir, "exports"), filepath.Join(dir, "songs"))
	e.now = func() time.Time { return fixedNow }
	return e
}

func TestExporterSaveCoverUniqueNames(t *testing.T) {
	e := newTestExporter(t)

	first, err := e.SaveCover(pngBytes, "image/png")
	if err != nil {
		t.Fatalf("SaveCover returned error: %v", err)
	}
	second, err := e.SaveCover(pngBytes, "image/png")
	if err != nil {
		t.Fatalf("SaveCover returned error: %v", err)
	}

	stamp := fixedNow.Unix()
	if want := "/songs/amll_cover_" + strconv.FormatInt(stamp, 10) + ".png"; first != want {
		t.Errorf("expected %s, got %s", want, first)
	}
	if want := "/songs/amll_cover_" + strconv.FormatInt(stamp, 10) + "_1.png"; second != want {
		t.Errorf("expected %s, got %s", want, second)
	}

	data, err := os.ReadFile(filepath.Join(e.CoversDir, strings.TrimPrefix(second, "/songs/")))
	if err != nil {
		t.Fatalf("failed to read stored cover: %v", err)
	}
	if string(data) != string(pngBytes) {
		t.Error("stored cover differs from input")
	}

	if _, err := e.SaveCover(nil, "image/png"); err == nil {
		t.Error("expected error for empty cover")
	}
}

func TestExporterSaveCoverDirIsFile(t *testing.T) {
	e := newTestExporter(t)
	if err := os.WriteFile(e.CoversDir, []byte("not a dir"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := e.SaveCover(pngBytes, "image/png"); err == nil {
		t.Error("expected error when the cover directory is a regular file")
	}
}

func TestUniqueNameStatError(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if name, err := uniqueName(filepath.Join(file, "sub"), "cover.png"); err == nil {
		t.Errorf("expected error, got name %q", name)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cover.png"), nil, 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	name, err := uniqueName(dir, "cover.png")
	if err != nil {
		t.Fatalf("uniqueName returned error: %v", err)
	}
	if name != "cover_1.png" {
		t.Errorf("expected cover_1.png, got %s", name)
	}
}

func TestCoverExt(t *testing.T) {
	tests := map[string]string{
		"image/png":  ".png",
		"IMAGE/WEBP": ".webp",
		"image/gif":  ".gif",
		"image/jpeg": ".jpg",
		"":           ".jpg",
	}
	for mime, want := range tests {
		if got := coverExt(mime); got != want {
			t.Errorf("%q: expected %s, got %s", mime, want, got)
		}
	}
}

func TestWriteCharCSV(t *testing.T) {
	e := newTestExporter(t)
	lines := []RawLine{{
		Words:  []lyrics.Word{{Text: "Hi", StartMs: 1000, EndMs: 1400, Roman: "h i"}},
		IsDuet: true,
	}}

	path, err := e.WriteCharCSV(lines)
	if err != nil {
		t.Fatalf("WriteCharCSV returned error: %v", err)
	}
	if filepath.Base(path) != "lyrics_chars_20240102_030405.csv" {
		t.Errorf("unexpected file name %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read csv: %v", err)
	}
	want := "\ufeffline_index,word_index,char_index,char,roman_char,start_ms,end_ms,start_ts,end_ts,is_bg,is_duet\n" +
		"1,1,1,H,h,1000,1200,00:01.000,00:01.200,false,true\n" +
		"1,1,2,i,i,1200,1400,00:01.200,00:01.400,false,true\n"
	if string(data) != want {
		t.Errorf("unexpected csv:\n%q\nwant:\n%q", data, want)
	}
}

func TestWriteCharCSVSkipsEmpty(t *testing.T) {
	e := newTestExporter(t)
	path, err := e.WriteCharCSV([]RawLine{{}})
	if err != nil || path != "" {
		t.Errorf("expected no file, got %q, %v", path, err)
	}
	if _, err := os.Stat(e.ExportsDir); !os.IsNotExist(err) {
		t.Errorf("expected export dir to stay absent, got %v", err)
	}
}

func TestExporterSaveTTMLAndBinary(t *testing.T) {
	e := newTestExporter(t)

	path, err := e.SaveTTML("<tt/>")
	if err != nil {
		t.Fatalf("SaveTTML returned error: %v", err)
	}
	if filepath.Base(path) != "lyrics_ttml_20240102_030405.ttml" {
		t.Errorf("unexpected ttml name %s", filepath.Base(path))
	}

	path, err = e.SaveBinary([]byte{1, 2, 3})
	if err != nil {
		t.Fatalf("SaveBinary returned error: %v", err)
	}
	if filepath.Base(path) != "lyrics_binary_20240102_030405.bin" {
		t.Errorf("unexpected binary name %s", filepath.Base(path))
	}
}

func TestLinesToLYS(t *testing.T) {
	lines := []lyrics.Line{
		{
			Words: []lyrics.Word{
				{Text: "Hel", StartMs: 1000, Duration: 200},
				{Text: "", StartMs: 1200, Duration: 10},
				{Text: "lo", StartMs: 1200, Duration: 300},
			},
		},
		{
			IsBackground: true,
			Syllables:    []lyrics.Syllable{{Text: "oh", StartTime: 2000, Duration: 150}},
		},
		{},
	}

	want := "[from: AMLL]\n[offset:0]\n[1]Hel(1000,200)lo(1200,300)\n[6]oh(2000,150)"
	if got := LinesToLYS(lines); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestLinesToLRC(t *testing.T) {
	lines := []lyrics.Line{
		{Syllables: []lyrics.Syllable{{Text: "a", StartTime: 61234}}, TranslatedText: " 你好 "},
		{Syllables: []lyrics.Syllable{{Text: "b", StartTime: 70000}}},
	}

	want := "[by: AMLL]\n[01:01.23]你好"
	if got := LinesToLRC(lines); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
