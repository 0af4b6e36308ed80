package realtime

import (
	"errors"
	"testing"
)

func frameBytes(magic uint16, size uint32, payload []byte) []byte {
	b := []byte{
		byte(magic), byte(magic >> 8),
		byte(size), byte(size >> 8), byte(size >> 16), byte(size >> 24),
	}
	return append(b, payload...)
}

func TestDecodeFrame(t *testing.T) {
	buf := frameBytes(1, 3, []byte("abcx"))

	frame, err := DecodeFrame(buf)
	if err != nil {
		t.Fatalf("DecodeFrame returned error: %v", err)
	}
	if frame.Magic != MagicCover || frame.Size != 3 {
		t.Errorf("expected magic 1 size 3, got %d/%d", frame.Magic, frame.Size)
	}
	if string(frame.Payload) != "abc" {
		t.Errorf("expected payload abc, got %q", frame.Payload)
	}
}

func TestDecodeFrameInvalid(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
	}{
		{name: "short header", buf: []byte{1, 0, 0, 0, 0}},
		{name: "size exceeds buffer", buf: frameBytes(1, 10, []byte("abc"))},
		{name: "empty", buf: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFrame(tt.buf)
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected DecodeError, got %v", err)
			}
			if decodeErr.Stage != "frame" {
				t.Errorf("expected stage frame, got %s", decodeErr.Stage)
			}
		})
	}
}

func TestDecodeFrameEmptyPayload(t *testing.T) {
	frame, err := DecodeFrame(frameBytes(0, 0, nil))
	if err != nil {
		t.Fatalf("DecodeFrame returned error: %v", err)
	}
	if len(frame.Payload) != 0 {
		t.Errorf("expected empty payload, got %d bytes", len(frame.Payload))
	}
}

var (
	pngBytes  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}
)

func TestSniffImage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{name: "png", data: pngBytes, want: "image/png"},
		{name: "jpeg", data: jpegBytes, want: "image/jpeg"},
		{name: "gif87", data: []byte("GIF87a...."), want: "image/gif"},
		{name: "gif89", data: []byte("GIF89a...."), want: "image/gif"},
		{name: "webp", data: []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), want: "image/webp"},
		{name: "riff without webp", data: []byte("RIFF\x00\x00\x00\x00WAVE"), want: ""},
		{name: "text", data: []byte("<tt>"), want: ""},
		{name: "too short", data: []byte{0xFF, 0xD8, 0xFF}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SniffImage(tt.data); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCoverFromBinary(t *testing.T) {
	t.Run("payload", func(t *testing.T) {
		msg := frameBytes(1, uint32(len(pngBytes)), pngBytes)
		frame, err := DecodeFrame(msg)
		img, mime := coverFromBinary(msg, frame, err)
		if mime != "image/png" || string(img) != string(pngBytes) {
			t.Errorf("expected png payload, got %q (%d bytes)", mime, len(img))
		}
	})

	t.Run("bare image", func(t *testing.T) {
		frame, err := DecodeFrame(jpegBytes)
		img, mime := coverFromBinary(jpegBytes, frame, err)
		if mime != "image/jpeg" || len(img) != len(jpegBytes) {
			t.Errorf("expected whole message as jpeg, got %q (%d bytes)", mime, len(img))
		}
	})

	t.Run("not an image", func(t *testing.T) {
		msg := frameBytes(1, 4, []byte("text"))
		frame, err := DecodeFrame(msg)
		if img, _ := coverFromBinary(msg, frame, err); img != nil {
			t.Errorf("expected no image, got %d bytes", len(img))
		}
	})
}
