package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mgpai22/lysync/internal/lyrics"
	"github.com/mgpai22/lysync/internal/translate"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const songLYS = "[by:alice]\n" +
	"[1]Hello (1000,500)world(1500,500)\n" +
	"[6](ooh)(2100,400)\n" +
	"[2]Bye(3000,1000)\n"

const songTranslation = "[00:01.100]你好\n[00:03.000]再见\n"

// flags keep their values between Execute calls on the shared command tree
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestParseLyricFormat(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"ttml", false},
		{" TTML ", false},
		{"xml", false},
		{"lys", false},
		{"lrc", true},
		{"srt", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := parseLyricFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLyricFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestIsKnownModel(t *testing.T) {
	tests := []struct {
		provider string
		model    string
		want     bool
	}{
		{"gemini", "gemini-2.5-flash", true},
		{"gemini", " Gemini-2.5-Pro ", true},
		{"gemini", "gpt-5", false},
		{"openai", "gpt-5-mini", true},
		{"anthropic", "claude-haiku-4-5", true},
		{"unknown", "gpt-5", false},
	}
	for _, tt := range tests {
		t.Run(tt.provider+"/"+tt.model, func(t *testing.T) {
			if got := isKnownModel(translate.Provider(tt.provider), tt.model); got != tt.want {
				t.Errorf("isKnownModel(%q, %q) = %v, want %v", tt.provider, tt.model, got, tt.want)
			}
		})
	}
}

func TestParseCommand(t *testing.T) {
	dir := t.TempDir()
	song := writeFile(t, dir, "song.lys", songLYS)
	writeFile(t, dir, "song_trans.lrc", songTranslation)
	out := filepath.Join(dir, "lines.json")

	if _, err := run(t, "parse", song, "--compact", "-o", out); err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	var lines []lyrics.Line
	if err := json.Unmarshal([]byte(readFile(t, out)), &lines); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if got := lines[0].JoinedText(); got != "Hello world" {
		t.Errorf("expected Hello world, got %q", got)
	}
	if lines[0].TranslatedText != "你好" {
		t.Errorf("expected discovered translation, got %q", lines[0].TranslatedText)
	}
	if !lines[1].IsBackground {
		t.Error("expected second line to be background")
	}
	if lines[0].DisappearTime <= 0 {
		t.Errorf("expected a disappear time, got %d", lines[0].DisappearTime)
	}
}

func TestConvertCommandRoundTrip(t *testing.T) {
	dir := t.TempDir()
	song := writeFile(t, dir, "song.lys", songLYS)
	trans := writeFile(t, dir, "zh.lrc", songTranslation)

	stdout, err := run(t, "convert", song, "--to", "ttml", "--translation", trans)
	if err != nil {
		t.Fatalf("convert to ttml failed: %v", err)
	}
	if !strings.Contains(stdout, "Lyrics converted successfully") {
		t.Errorf("expected success message, got %q", stdout)
	}

	ttmlPath := filepath.Join(dir, "song.ttml")
	ttml := readFile(t, ttmlPath)
	if !strings.Contains(ttml, `xml:lang="zh-CN">你好</span>`) {
		t.Errorf("expected translation in TTML, got %s", ttml)
	}

	back := filepath.Join(dir, "out", "back.lys")
	if _, err := run(t, "convert", ttmlPath, "--to", "lys", "-o", back); err != nil {
		t.Fatalf("convert to lys failed: %v", err)
	}
	if got := readFile(t, back); !strings.Contains(got, "Hello (1000,500)world(1500,500)") {
		t.Errorf("expected syllables preserved, got %q", got)
	}
	wantTrans := "[00:01.000]你好\n[00:03.000]再见\n"
	if got := readFile(t, filepath.Join(dir, "out", "back_trans.lrc")); got != wantTrans {
		t.Errorf("expected translation %q, got %q", wantTrans, got)
	}
}

func TestConvertCommandErrors(t *testing.T) {
	dir := t.TempDir()
	song := writeFile(t, dir, "song.lys", songLYS)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing file", []string{"convert", filepath.Join(dir, "nope.lys"), "--to", "ttml"}, "file not found"},
		{"bad target", []string{"convert", song, "--to", "srt"}, "unsupported target format"},
		{"same format", []string{"convert", song, "--to", "lys"}, "already lys"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	song := writeFile(t, dir, "song.lys", songLYS)

	tests := []struct {
		format string
		want   string
	}{
		{"srt", "-->"},
		{"vtt", "WEBVTT"},
		{"ass", `\k`},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			if _, err := run(t, "export", song, "-f", tt.format); err != nil {
				t.Fatalf("export failed: %v", err)
			}
			got := readFile(t, filepath.Join(dir, "song."+tt.format))
			if !strings.Contains(got, tt.want) || !strings.Contains(got, "Bye") {
				t.Errorf("unexpected %s output:\n%s", tt.format, got)
			}
		})
	}

	if _, err := run(t, "export", song, "-f", "txt"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestEditCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"sort", []string{"--op", "sort"}, "[ti:T]\n[1]a(100,100)\n[1]b(500,100)"},
		{"shift", []string{"--op", "shift", "--line", "3", "--delta", "50"}, "[ti:T]\n[1]b(500,100)\n[1]a(150,100)"},
		{"duration", []string{"--op", "duration", "--line", "2", "--ms", "40"}, "[ti:T]\n[1]b(500,40)\n[1]a(100,100)"},
		{"prefix", []string{"--op", "prefix", "--line", "2", "--prefix", "2"}, "[ti:T]\n[2]b(500,100)\n[1]a(100,100)"},
		{"clear prefix", []string{"--op", "prefix", "--line", "2"}, "[ti:T]\n[]b(500,100)\n[1]a(100,100)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			song := writeFile(t, dir, "song.lys", "[ti:T]\n[1]b(500,100)\n[1]a(100,100)\n")

			if _, err := run(t, append([]string{"edit", song}, tt.args...)...); err != nil {
				t.Fatalf("edit failed: %v", err)
			}
			if got := readFile(t, song); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
			backups, _ := filepath.Glob(song + ".*.bak")
			if len(backups) != 1 {
				t.Errorf("expected 1 backup, got %v", backups)
			}
		})
	}
}

func TestEditCommandErrors(t *testing.T) {
	dir := t.TempDir()
	original := "[ti:T]\n[1]a(100,100)\n"
	song := writeFile(t, dir, "song.lys", original)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown op", []string{"--op", "explode"}, "unsupported operation"},
		{"line out of range", []string{"--op", "shift", "--line", "9"}, "--line must be between 1 and 2"},
		{"meta line", []string{"--op", "shift", "--line", "1", "--delta", "5"}, "invalid edit"},
		{"duration without ms", []string{"--op", "duration", "--line", "2"}, "--ms is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, append([]string{"edit", song}, tt.args...)...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}

	if got := readFile(t, song); got != original {
		t.Errorf("expected file untouched, got %q", got)
	}
}

func TestTranslateCommandValidation(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("LYSYNC_TRANSLATE_PROVIDER", "")
	dir := t.TempDir()
	song := writeFile(t, dir, "song.lys", songLYS)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing key", []string{"-t", "english"}, "GEMINI_API_KEY"},
		{"same language", []string{"-t", "english", "-l", "English"}, "cannot be the same"},
		{"unknown provider", []string{"-t", "english", "--provider", "nope"}, "unsupported translation provider"},
		{"unknown model", []string{"-t", "english", "-k", "key", "--model", "gpt-1"}, "unsupported gemini model"},
		{"bad concurrency", []string{"-t", "english", "-k", "key", "--concurrency", "-2"}, "concurrency must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, append([]string{"translate", song}, tt.args...)...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
