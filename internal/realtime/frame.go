package realtime

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// frame magic values sent by the player
const (
	MagicAudio uint16 = 0
	MagicCover uint16 = 1
)

const frameHeaderSize = 6

// binary websocket message: u16 magic, u32 size, then size bytes of payload
type Frame struct {
	Magic   uint16
	Size    uint32
	Payload []byte
}

// per-message failure. Stage names the decoding step, Offset the byte
// position inside the message where it went wrong.
type DecodeError struct {
	Stage   string
	Offset  int
	Message string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s decode failed at offset %d: %s", e.Stage, e.Offset, e.Message)
}

// parses the little-endian frame header. Trailing bytes after the payload are
// ignored.
func DecodeFrame(buf []byte) (Frame, error) {
	if len(buf) < frameHeaderSize {
		return Frame{}, &DecodeError{
			Stage:   "frame",
			Offset:  len(buf),
			Message: fmt.Sprintf("need %d header bytes, got %d", frameHeaderSize, len(buf)),
		}
	}

	magic := binary.LittleEndian.Uint16(buf[0:2])
	size := binary.LittleEndian.Uint32(buf[2:6])
	if uint64(size) > uint64(len(buf)-frameHeaderSize) {
		return Frame{}, &DecodeError{
			Stage:   "frame",
			Offset:  2,
			Message: fmt.Sprintf("declared size %d exceeds %d available bytes", size, len(buf)-frameHeaderSize),
		}
	}

	return Frame{
		Magic:   magic,
		Size:    size,
		Payload: buf[frameHeaderSize : frameHeaderSize+int(size)],
	}, nil
}

var (
	pngSignature  = []byte("\x89PNG\r\n\x1a\n")
	jpegSignature = []byte{0xFF, 0xD8, 0xFF}
)

// image mime type from magic bytes, empty when b is not a known image
func SniffImage(b []byte) string {
	if len(b) < 4 {
		return ""
	}
	switch {
	case bytes.HasPrefix(b, pngSignature):
		return "image/png"
	case bytes.HasPrefix(b, jpegSignature):
		return "image/jpeg"
	case bytes.HasPrefix(b, []byte("GIF87a")), bytes.HasPrefix(b, []byte("GIF89a")):
		return "image/gif"
	case bytes.HasPrefix(b, []byte("RIFF")) && len(b) >= 12 && string(b[8:12]) == "WEBP":
		return "image/webp"
	}
	return ""
}

// finds cover image bytes in a binary message. The payload is tried first,
// then the whole message for players that send bare images.
func coverFromBinary(msg []byte, frame Frame, frameErr error) ([]byte, string) {
	if frameErr == nil {
		if mime := SniffImage(frame.Payload); mime != "" {
			return frame.Payload, mime
		}
	}
	if mime := SniffImage(msg); mime != "" {
		return msg, mime
	}
	return nil, ""
}
