package lyrics

import "testing"

func TestParseLRCLine(t *testing.T) {
	tests := []struct {
		line    string
		wantMs  int
		wantTxt string
		wantOK  bool
	}{
		{"[00:01.50]hello", 1500, "hello", true},
		{"[01:02.345] spaced ", 62345, " spaced ", true},
		{"[00:00.000][2]duet\r", 0, "[2]duet", true},
		{"[ti:title]", 0, "", false},
		{"no tag", 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			ms, txt, ok := ParseLRCLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("expected ok %v, got %v", tt.wantOK, ok)
			}
			if ms != tt.wantMs || txt != tt.wantTxt {
				t.Errorf("expected (%d, %q), got (%d, %q)", tt.wantMs, tt.wantTxt, ms, txt)
			}
		})
	}
}

func TestParseLRCAppliesOffset(t *testing.T) {
	entries := ParseLRC("[offset:250]\n[by:someone]\n[00:01.00]one\n[00:02.00]\n[00:03.00] three ")
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].TimeMs != 1250 || entries[0].Text != "one" {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].TimeMs != 3250 || entries[1].Text != "three" {
		t.Errorf("unexpected second entry: %+v", entries[1])
	}
}

func TestTagValue(t *testing.T) {
	text := "[ti:Title]\n[00:01.00]line\n[by: Someone Else ]\n[by:Second]\n"
	tests := []struct {
		tag  string
		want string
	}{
		{"by", "Someone Else"},
		{"ti", "Title"},
		{"ar", ""},
		{"BY", ""},
		{"00", "01.00"},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			if got := TagValue(text, tt.tag); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLRCToLines(t *testing.T) {
	lines := LRCToLines("[00:01.00]a\n[00:03.50]b", 5000)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Syllables[0].Duration != 2500 {
		t.Errorf("expected 2500ms, got %d", lines[0].Syllables[0].Duration)
	}
	if lines[1].Syllables[0].Duration != 5000 {
		t.Errorf("expected default 5000ms, got %d", lines[1].Syllables[0].Duration)
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		ms   int
		want string
	}{
		{0, "00:00.000"},
		{62345, "01:02.345"},
		{-5, "00:00.000"},
	}
	for _, tt := range tests {
		if got := FormatTimestamp(tt.ms); got != tt.want {
			t.Errorf("FormatTimestamp(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
	if got := FormatLRCTag(62345); got != "[01:02.34]" {
		t.Errorf("expected [01:02.34], got %q", got)
	}
}
