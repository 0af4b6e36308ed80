package translate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mgpai22/lysync/internal/lyrics"
)

// echoes each item upper-cased, recording batch sizes and peak concurrency
type fakeTranslator struct {
	mu       sync.Mutex
	batches  []int
	inFlight atomic.Int32
	peak     atomic.Int32
	failOn   int // index that makes its batch fail, -1 for none
	drop     bool
}

func (f *fakeTranslator) TranslateBatch(ctx context.Context, items []Item) ([]Item, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.batches = append(f.batches, len(items))
	f.mu.Unlock()

	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Index == f.failOn {
			return nil, errors.New("boom")
		}
		out = append(out, Item{Index: it.Index, Text: strings.ToUpper(it.Text)})
	}
	if f.drop {
		out = out[:len(out)-1]
	}
	// reverse so the caller has to sort
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func makeItems(n int) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{Index: i, Text: fmt.Sprintf("line %d", i)}
	}
	return items
}

func TestFactoryReturnsGeminiTranslator(t *testing.T) {
	ctx := context.Background()
	opts := Options{TargetLanguage: "Japanese"}
	translator, err := Factory(ctx, ProviderGemini, "fake-key", opts)
	if err != nil {
		t.Fatalf("Factory(ProviderGemini) returned error: %v", err)
	}
	if _, ok := translator.(*GeminiTranslator); !ok {
		t.Errorf("expected *GeminiTranslator, got %T", translator)
	}
}

func TestFactoryReturnsOpenAITranslator(t *testing.T) {
	ctx := context.Background()
	opts := Options{TargetLanguage: "Spanish"}
	translator, err := Factory(ctx, ProviderOpenAI, "fake-key", opts)
	if err != nil {
		t.Fatalf("Factory(ProviderOpenAI) returned error: %v", err)
	}
	if _, ok := translator.(*OpenAITranslator); !ok {
		t.Errorf("expected *OpenAITranslator, got %T", translator)
	}
}

func TestFactoryReturnsAnthropicTranslator(t *testing.T) {
	ctx := context.Background()
	opts := Options{TargetLanguage: "German"}
	translator, err := Factory(ctx, ProviderAnthropic, "fake-key", opts)
	if err != nil {
		t.Fatalf("Factory(ProviderAnthropic) returned error: %v", err)
	}
	if _, ok := translator.(*AnthropicTranslator); !ok {
		t.Errorf("expected *AnthropicTranslator, got %T", translator)
	}
}

func TestFactoryRequiresTargetLanguage(t *testing.T) {
	_, err := Factory(context.Background(), ProviderGemini, "fake-key", Options{})
	if err == nil {
		t.Error("expected error for missing target language")
	}
}

func TestFactoryRequiresAPIKey(t *testing.T) {
	opts := Options{TargetLanguage: "French"}
	for _, p := range []Provider{ProviderGemini, ProviderOpenAI, ProviderAnthropic} {
		t.Run(string(p), func(t *testing.T) {
			if _, err := Factory(context.Background(), p, "", opts); err == nil {
				t.Error("expected error for missing API key")
			}
		})
	}
}

func TestFactoryRejectsUnknownProvider(t *testing.T) {
	opts := Options{TargetLanguage: "French"}
	_, err := Factory(context.Background(), Provider("unknown"), "fake-key", opts)
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestTranslateBatchesAndSorts(t *testing.T) {
	f := &fakeTranslator{failOn: -1}
	results, err := Translate(context.Background(), f, makeItems(7), Options{BatchSize: 3, Concurrency: 2})
	if err != nil {
		t.Fatalf("Translate error: %v", err)
	}
	if len(results) != 7 {
		t.Fatalf("expected 7 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Index != i {
			t.Errorf("result %d: expected index %d, got %d", i, i, r.Index)
		}
		if want := fmt.Sprintf("LINE %d", i); r.Text != want {
			t.Errorf("result %d: expected %q, got %q", i, want, r.Text)
		}
	}
	if len(f.batches) != 3 {
		t.Errorf("expected 3 batches, got %d", len(f.batches))
	}
	if p := f.peak.Load(); p > 2 {
		t.Errorf("expected at most 2 batches in flight, got %d", p)
	}
}

func TestTranslateEmpty(t *testing.T) {
	results, err := Translate(context.Background(), &fakeTranslator{failOn: -1}, nil, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", results)
	}
}

func TestTranslateErrors(t *testing.T) {
	tests := []struct {
		name string
		f    *fakeTranslator
		want string
	}{
		{"batch failure", &fakeTranslator{failOn: 4}, "boom"},
		{"count mismatch", &fakeTranslator{failOn: -1, drop: true}, "expected 3 results"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Translate(context.Background(), tt.f, makeItems(6), Options{BatchSize: 3})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	opts := Options{InputLanguage: "English", TargetLanguage: "Japanese", Prompt: "keep names"}
	items := []Item{
		{Index: 0, Text: "Hello world"},
		{Index: 1, Text: "Goodbye"},
	}

	prompt := BuildPrompt(opts, items)

	for _, want := range []string{"English song lyric lines", "to Japanese", "Hello world", `"index": 0`, "keep names"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt should contain %q", want)
		}
	}
}

func TestBuildPromptWithoutInputLanguage(t *testing.T) {
	prompt := BuildPrompt(Options{TargetLanguage: "Spanish"}, []Item{{Index: 0, Text: "Hello"}})

	if strings.Contains(prompt, "English") {
		t.Error("prompt should not contain input language when not specified")
	}
	if strings.Contains(prompt, "Additional instructions") {
		t.Error("prompt should not carry additional instructions when none are set")
	}
	if !strings.Contains(prompt, "to Spanish") {
		t.Error("prompt should contain target language")
	}
}

func syllableLine(text string, start int) lyrics.Line {
	return lyrics.Line{
		Text:      text,
		Syllables: []lyrics.Syllable{{Text: text, StartTime: start, Duration: 500}},
	}
}

func TestTranslateLines(t *testing.T) {
	lines := []lyrics.Line{
		syllableLine("hello", 1000),
		{Text: ""},
		syllableLine("ooh", 1500),
		syllableLine("world", 62345),
	}
	lines[2].IsBackground = true

	n, err := TranslateLines(context.Background(), &fakeTranslator{failOn: -1}, lines, Options{})
	if err != nil {
		t.Fatalf("TranslateLines error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 translated lines, got %d", n)
	}
	if lines[0].TranslatedText != "HELLO" || lines[3].TranslatedText != "WORLD" {
		t.Errorf("unexpected translations: %q, %q", lines[0].TranslatedText, lines[3].TranslatedText)
	}
	if lines[2].TranslatedText != "" {
		t.Errorf("expected background line untouched, got %q", lines[2].TranslatedText)
	}

	want := "[00:01.000]HELLO\n[01:02.345]WORLD\n"
	if got := TranslationLRC(lines); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestTranslateLinesPropagatesError(t *testing.T) {
	lines := []lyrics.Line{syllableLine("hello", 0)}
	_, err := TranslateLines(context.Background(), &fakeTranslator{failOn: 0}, lines, Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	if lines[0].TranslatedText != "" {
		t.Errorf("expected no translation on failure, got %q", lines[0].TranslatedText)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"songs/a.lys", "songs/a_trans.lrc"},
		{"songs/a.b.ttml", "songs/a.b_trans.lrc"},
		{"noext", "noext_trans.lrc"},
	}
	for _, tt := range tests {
		if got := OutputPath(tt.in); got != tt.want {
			t.Errorf("OutputPath(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

// Integration test: only runs if OPENAI_API_KEY is set
func TestOpenAITranslatorIntegration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY not set; skipping integration test")
	}

	ctx := context.Background()
	translator, err := NewOpenAITranslator(ctx, apiKey, Options{TargetLanguage: "Spanish"})
	if err != nil {
		t.Fatalf("NewOpenAITranslator error: %v", err)
	}

	results, err := Translate(ctx, translator, []Item{
		{Index: 0, Text: "Hello"},
		{Index: 1, Text: "Goodbye"},
	}, Options{})
	if err != nil {
		t.Fatalf("Translate error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Text == "" {
			t.Errorf("result index %d has empty text", r.Index)
		}
	}
}
