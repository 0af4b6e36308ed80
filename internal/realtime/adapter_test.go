package realtime

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mgpai22/lysync/internal/lyrics"
)

func newTestAdapter(t *testing.T) (*Adapter, *Hub, *Exporter) {
	t.Helper()
	hub := NewHub(10, nil)
	exporter := newTestExporter(t)
	cfg := lyrics.DefaultAnimationConfig()
	cfg.UseComputedDisappear = true
	return NewAdapter(hub, exporter, lyrics.NewCalculator(cfg), nil), hub, exporter
}

func TestAdapterReplies(t *testing.T) {
	a, _, _ := newTestAdapter(t)

	tests := []struct {
		raw  string
		want string
	}{
		{raw: `{"type":"ping"}`, want: `{"type":"pong"}`},
		{raw: `{"type":"initialize"}`, want: `{"type":"connected"}`},
		{raw: `{"type":"onPaused"}`, want: ""},
	}
	for _, tt := range tests {
		reply, err := a.HandleText([]byte(tt.raw))
		if err != nil {
			t.Fatalf("HandleText(%s) returned error: %v", tt.raw, err)
		}
		if string(reply) != tt.want {
			t.Errorf("%s: expected reply %q, got %q", tt.raw, tt.want, reply)
		}
	}

	if _, err := a.HandleText([]byte("not json")); err == nil {
		t.Error("expected decode error")
	}
}

func TestAdapterLyricsPublishesLines(t *testing.T) {
	a, hub, exporter := newTestAdapter(t)

	_, err := a.HandleText([]byte(`{"type":"setLyric","value":{"data":[
		{"words":[{"word":"Hi","startTime":1000,"endTime":1400}],"translatedLyric":"嗨"}
	]}}`))
	if err != nil {
		t.Fatalf("HandleText returned error: %v", err)
	}

	lines := hub.Snapshot().Lines
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].DisappearTime != 1900 {
		t.Errorf("expected disappear time 1900, got %d", lines[0].DisappearTime)
	}
	if len(lines[0].Syllables) != 2 || lines[0].TranslatedText != "嗨" {
		t.Errorf("unexpected line: %+v", lines[0])
	}

	matches, _ := filepath.Glob(filepath.Join(exporter.ExportsDir, "lyrics_chars_*.csv"))
	if len(matches) != 1 {
		t.Errorf("expected one csv export, got %v", matches)
	}
}

func TestAdapterBinaryCover(t *testing.T) {
	a, hub, exporter := newTestAdapter(t)

	if err := a.HandleBinary(frameBytes(1, uint32(len(pngBytes)), pngBytes)); err != nil {
		t.Fatalf("HandleBinary returned error: %v", err)
	}

	song := hub.Snapshot().Song
	if !strings.HasPrefix(song.CoverDataURL, "data:image/png;base64,") {
		t.Errorf("unexpected data url %q", song.CoverDataURL)
	}
	if song.CoverFileURL == "" || song.Cover != song.CoverFileURL || song.AlbumImgSrc != song.CoverFileURL {
		t.Errorf("expected cover to point at stored file, got %+v", song)
	}
	name := strings.TrimPrefix(song.CoverFileURL, "/songs/")
	if _, err := os.Stat(filepath.Join(exporter.CoversDir, name)); err != nil {
		t.Errorf("expected stored cover file: %v", err)
	}
}

func TestAdapterCoverWithUnusableCoversDir(t *testing.T) {
	a, hub, exporter := newTestAdapter(t)
	if err := os.MkdirAll(filepath.Dir(exporter.CoversDir), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(exporter.CoversDir, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if err := a.HandleBinary(frameBytes(1, uint32(len(pngBytes)), pngBytes)); err != nil {
		t.Fatalf("HandleBinary returned error: %v", err)
	}

	song := hub.Snapshot().Song
	if song.CoverFileURL != "" {
		t.Errorf("expected no stored cover, got %q", song.CoverFileURL)
	}
	if !strings.HasPrefix(song.Cover, "data:image/png;base64,") {
		t.Errorf("expected data url cover, got %q", song.Cover)
	}
}

func TestAdapterBinaryRouting(t *testing.T) {
	t.Run("ttml text", func(t *testing.T) {
		a, _, exporter := newTestAdapter(t)
		if err := a.HandleBinary([]byte("  \n<tt xmlns=\"http://www.w3.org/ns/ttml\"></tt>")); err != nil {
			t.Fatalf("HandleBinary returned error: %v", err)
		}
		matches, _ := filepath.Glob(filepath.Join(exporter.ExportsDir, "lyrics_ttml_*.ttml"))
		if len(matches) != 1 {
			t.Errorf("expected saved ttml, got %v", matches)
		}
	})

	t.Run("unknown bytes", func(t *testing.T) {
		a, _, exporter := newTestAdapter(t)
		if err := a.HandleBinary([]byte{0xFF, 0x00, 0x01}); err != nil {
			t.Fatalf("HandleBinary returned error: %v", err)
		}
		matches, _ := filepath.Glob(filepath.Join(exporter.ExportsDir, "lyrics_binary_*.bin"))
		if len(matches) != 1 {
			t.Errorf("expected saved binary, got %v", matches)
		}
	})

	t.Run("cover frame without image", func(t *testing.T) {
		a, _, exporter := newTestAdapter(t)
		err := a.HandleBinary(frameBytes(1, 4, []byte("text")))
		var decodeErr *DecodeError
		if !errors.As(err, &decodeErr) || decodeErr.Stage != "cover" {
			t.Errorf("expected cover DecodeError, got %v", err)
		}
		if _, err := os.Stat(exporter.ExportsDir); !os.IsNotExist(err) {
			t.Error("expected nothing exported")
		}
	})

	t.Run("magic 4 frame without image", func(t *testing.T) {
		a, _, exporter := newTestAdapter(t)
		if err := a.HandleBinary(frameBytes(4, 4, []byte("text"))); err != nil {
			t.Fatalf("HandleBinary returned error: %v", err)
		}
		matches, _ := filepath.Glob(filepath.Join(exporter.ExportsDir, "lyrics_binary_*.bin"))
		if len(matches) != 1 {
			t.Errorf("expected saved binary, got %v", matches)
		}
	})

	t.Run("audio frame", func(t *testing.T) {
		a, _, exporter := newTestAdapter(t)
		if err := a.HandleBinary(frameBytes(0, 3, []byte{1, 2, 3})); err != nil {
			t.Fatalf("HandleBinary returned error: %v", err)
		}
		if _, err := os.Stat(exporter.ExportsDir); !os.IsNotExist(err) {
			t.Error("expected audio frame to be dropped")
		}
	})
}

func TestAdapterCoverURLWithoutExporter(t *testing.T) {
	hub := NewHub(10, nil)
	a := NewAdapter(hub, nil, nil, nil)

	if _, err := a.HandleText([]byte(`{"type":"setCover","value":{"url":"http://x/c.jpg"}}`)); err != nil {
		t.Fatalf("HandleText returned error: %v", err)
	}
	song := hub.Snapshot().Song
	if song.Cover != "http://x/c.jpg" || song.AlbumImgSrc != "http://x/c.jpg" || song.CoverFileURL != "" {
		t.Errorf("unexpected song: %+v", song)
	}
}
