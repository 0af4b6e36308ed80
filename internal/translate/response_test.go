package translate

import (
	"strings"
	"testing"
)

func TestExtractItems(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCount int
		wantErr   bool
	}{
		{
			name: "plain valid array",
			input: `[
				{"index": 0, "text": "こんにちは"},
				{"index": 1, "text": "さようなら"}
			]`,
			wantCount: 2,
		},
		{
			name: "preamble with valid array",
			input: `Here is the translation:
			[
				{"index": 0, "text": "Bonjour"},
				{"index": 1, "text": "Au revoir"}
			]`,
			wantCount: 2,
		},
		{
			name: "valid array with trailing text",
			input: `[
				{"index": 0, "text": "Hola"}
			]
			I hope this helps!`,
			wantCount: 1,
		},
		{
			name: "wrapper object with results key",
			input: `{"results": [
				{"index": 0, "text": "Translated"}
			]}`,
			wantCount: 1,
		},
		{
			name: "wrapper object with lines key",
			input: `{"lines": [
				{"index": 0, "text": "Übersetzt"}
			]}`,
			wantCount: 1,
		},
		{
			name: "wrapper object with unknown key",
			input: `{"output": [
				{"index": 0, "text": "Переведено"}
			]}`,
			wantCount: 1,
		},
		{
			name:    "empty array",
			input:   `[]`,
			wantErr: true,
		},
		{
			name:    "no JSON at all",
			input:   `This is just plain text.`,
			wantErr: true,
		},
		{
			name:    "invalid JSON",
			input:   `[{"index": 0, "text": "incomplete"`,
			wantErr: true,
		},
		{
			name:    "array with empty text",
			input:   `[{"index": 0, "text": ""}]`,
			wantErr: true,
		},
		{
			name: "stray backslash in text",
			input: `[
				{"index": 0, "text": "ooh\Nyeah"}
			]`,
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := extractItems(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(results) != tt.wantCount {
				t.Errorf("got %d results, want %d", len(results), tt.wantCount)
			}
		})
	}
}

func TestExtractItemsKeepsStrayBackslash(t *testing.T) {
	results, err := extractItems(`[{"index": 3, "text": "a\Nb"}]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Index != 3 || results[0].Text != `a\Nb` {
		t.Errorf("expected {3 a\\Nb}, got %+v", results[0])
	}
}

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain JSON",
			input: `[{"index": 0, "text": "hello"}]`,
			want:  `[{"index": 0, "text": "hello"}]`,
		},
		{
			name:  "json code fence",
			input: "```json\n[{\"index\": 0, \"text\": \"hello\"}]\n```",
			want:  `[{"index": 0, "text": "hello"}]`,
		},
		{
			name:  "plain code fence",
			input: "```\n[{\"index\": 0, \"text\": \"hello\"}]\n```",
			want:  `[{"index": 0, "text": "hello"}]`,
		},
		{
			name:  "with leading/trailing whitespace",
			input: "  \n\n```json\n[{\"index\": 0}]\n```\n\n  ",
			want:  `[{"index": 0}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanJSONResponse(tt.input); got != tt.want {
				t.Errorf("cleanJSONResponse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHasText(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
		want  bool
	}{
		{"empty slice", []Item{}, false},
		{"nil slice", nil, false},
		{"item with text", []Item{{Index: 0, Text: "hello"}}, true},
		{"item with empty text", []Item{{Index: 0, Text: ""}}, false},
		{
			"multiple items one valid",
			[]Item{{Index: 0, Text: ""}, {Index: 1, Text: "valid"}},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasText(tt.items); got != tt.want {
				t.Errorf("hasText() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseItems(t *testing.T) {
	reply := "```json\n[{\"index\": 0, \"text\": \"uno\"}, {\"index\": 1, \"text\": \"dos\"}]\n```"

	items, err := parseItems("Test", reply, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items[1].Text != "dos" {
		t.Errorf("expected dos, got %q", items[1].Text)
	}

	if _, err := parseItems("Test", reply, 3); err == nil {
		t.Error("expected error for count mismatch")
	}

	_, err = parseItems("Test", "", 1)
	if err == nil || !strings.Contains(err.Error(), "Test") {
		t.Errorf("expected error naming the provider, got %v", err)
	}
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("abcdef", 3); got != "abc..." {
		t.Errorf("expected abc..., got %q", got)
	}
	if got := truncateString("abc", 3); got != "abc" {
		t.Errorf("expected abc, got %q", got)
	}
}
