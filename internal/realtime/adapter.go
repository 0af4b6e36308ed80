package realtime

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"github.com/mgpai22/lysync/internal/logging"
	"github.com/mgpai22/lysync/internal/lyrics"
)

var (
	replyPong      = []byte(`{"type":"pong"}`)
	replyConnected = []byte(`{"type":"connected"}`)
)

// Adapter turns player messages into hub updates
type Adapter struct {
	hub      *Hub
	exporter *Exporter
	calc     *lyrics.Calculator
	log      *logging.Logger

	// write a per-character CSV for every lyrics message
	ExportCSV bool
}

// exporter and calc may be nil; covers are then not stored as files and
// disappear times are left unset
func NewAdapter(hub *Hub, exporter *Exporter, calc *lyrics.Calculator, log *logging.Logger) *Adapter {
	return &Adapter{
		hub:       hub,
		exporter:  exporter,
		calc:      calc,
		log:       logging.OrNop(log).Named("adapter"),
		ExportCSV: exporter != nil,
	}
}

// HandleText decodes and applies a text message. The reply, when not nil,
// should be sent back to the player.
func (a *Adapter) HandleText(data []byte) ([]byte, error) {
	msg, err := DecodeMessage(data)
	if err != nil {
		return nil, err
	}
	return a.Handle(msg), nil
}

func (a *Adapter) Handle(msg Message) []byte {
	switch m := msg.(type) {
	case PingMessage:
		return replyPong
	case InitializeMessage:
		a.log.Infow("player initialized")
		return replyConnected
	case SongMessage:
		a.log.Infow("received song info", "name", m.Song.MusicName, "artists", m.Song.Artists)
		a.hub.PublishSong(m.Song)
	case CoverMessage:
		a.publishCover(m)
	case LyricsMessage:
		a.publishLyrics(m.Lines)
	case ProgressMessage:
		a.hub.PublishProgress(m.Ms)
	case PlayStateMessage:
		a.log.Debugw("play state changed", "state", m.State)
	case UnknownMessage:
		a.log.Debugw("ignored message", "type", m.Type)
	}
	return nil
}

// HandleBinary routes a binary message: cover images are published, TTML
// text and anything unrecognized are saved to the export directory. A cover
// frame (magic 1) without an image is rejected; other frames without an
// image, magic 4 included, take the save path.
func (a *Adapter) HandleBinary(data []byte) error {
	frame, frameErr := DecodeFrame(data)

	if img, mime := coverFromBinary(data, frame, frameErr); img != nil {
		a.publishCover(CoverMessage{
			Data:    img,
			Mime:    mime,
			DataURL: dataURL(mime, base64.StdEncoding.EncodeToString(img)),
		})
		return nil
	}

	if frameErr == nil {
		switch {
		case frame.Magic == MagicAudio:
			return nil
		case frame.Magic == MagicCover:
			return &DecodeError{Stage: "cover", Offset: frameHeaderSize, Message: "payload is not a known image format"}
		}
	}

	if a.exporter == nil {
		a.log.Debugw("dropped binary message", "bytes", len(data))
		return nil
	}

	if utf8.Valid(data) && strings.HasPrefix(strings.TrimLeft(string(data), " \t\r\n"), "<") {
		path, err := a.exporter.SaveTTML(string(data))
		if err != nil {
			return err
		}
		a.log.Infow("saved binary TTML", "path", path)
		return nil
	}

	path, err := a.exporter.SaveBinary(data)
	if err != nil {
		return err
	}
	a.log.Infow("saved binary message", "path", path, "bytes", len(data))
	return nil
}

func (a *Adapter) publishCover(m CoverMessage) {
	var patch Song
	if m.URL != "" {
		patch.Cover = m.URL
		patch.AlbumImgSrc = m.URL
	}
	if m.DataURL != "" {
		patch.CoverDataURL = m.DataURL
		if patch.Cover == "" {
			patch.Cover = m.DataURL
			patch.AlbumImgSrc = m.DataURL
		}
	}

	if len(m.Data) > 0 && a.exporter != nil {
		mime := SniffImage(m.Data)
		if mime == "" {
			mime = m.Mime
		}
		fileURL, err := a.exporter.SaveCover(m.Data, mime)
		if err != nil {
			a.log.Warnw("failed to store cover", "error", err)
		} else {
			patch.CoverFileURL = fileURL
			patch.Cover = fileURL
			patch.AlbumImgSrc = fileURL
		}
	}

	if patch.IsZero() {
		a.log.Debugw("cover message without usable image")
		return
	}
	a.log.Infow("received cover", "url", patch.Cover, "bytes", len(m.Data))
	a.hub.PublishSong(patch)
}

func (a *Adapter) publishLyrics(raw []RawLine) {
	if a.ExportCSV && a.exporter != nil {
		if path, err := a.exporter.WriteCharCSV(raw); err != nil {
			a.log.Warnw("failed to export character csv", "error", err)
		} else if path != "" {
			a.log.Infow("exported character csv", "path", path)
		}
	}

	lines := ToLines(raw)
	if a.calc != nil {
		a.calc.Apply(lines)
	}

	syllables := 0
	for _, l := range lines {
		syllables += len(l.Syllables)
	}
	a.log.Infow("received lyrics", "lines", len(lines), "syllables", syllables)
	a.hub.PublishLyrics(lines)
}
