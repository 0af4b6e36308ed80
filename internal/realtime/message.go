package realtime

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"math"
	"strings"

	"github.com/mgpai22/lysync/internal/lyrics"
)

// decoded player message, one of the *Message types below
type Message interface {
	Kind() string
}

type PingMessage struct{}

type InitializeMessage struct{}

type SongMessage struct {
	Song Song
}

// cover update. Data holds raw image bytes when the player sent them.
type CoverMessage struct {
	URL     string
	DataURL string
	Data    []byte
	Mime    string
}

type LyricsMessage struct {
	Lines []RawLine
}

type ProgressMessage struct {
	Ms int
}

type PlayStateMessage struct {
	State string
}

type UnknownMessage struct {
	Type string
}

func (PingMessage) Kind() string       { return "ping" }
func (InitializeMessage) Kind() string { return "initialize" }
func (SongMessage) Kind() string       { return "song" }
func (CoverMessage) Kind() string      { return "cover" }
func (LyricsMessage) Kind() string     { return "lyrics" }
func (ProgressMessage) Kind() string   { return "progress" }
func (PlayStateMessage) Kind() string  { return "playstate" }
func (UnknownMessage) Kind() string    { return "unknown" }

// lyric line as sent by the player, word times already normalized
type RawLine struct {
	Words           []lyrics.Word
	StartTime       int
	EndTime         int
	IsBG            bool
	IsDuet          bool
	TranslatedLyric string
}

// lowercases t and drops underscores and hyphens
func NormType(t string) string {
	t = strings.ReplaceAll(t, "_", "")
	t = strings.ReplaceAll(t, "-", "")
	return strings.ToLower(t)
}

func typeOf(v any) string {
	s, _ := v.(string)
	return NormType(s)
}

var (
	songUpdates     = setOf("setmusic", "music", "musicinfo", "song", "songinfo", "track", "trackinfo")
	coverTypes      = setOf("setmusicalbumcoverimagedata", "setalbumcover", "setcover")
	coverUpdates    = setOf("setcover", "cover", "albumcover", "artwork")
	lyricUpdates    = setOf("setlyric", "lyrics", "lyric")
	progressUpdates = setOf("progress", "playprogress", "onplayprogress", "setprogress", "position", "time")
	playUpdates     = setOf("resumed", "resume", "playing", "paused", "pause", "stopped", "stop")
)

func setOf(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

// DecodeMessage decodes a JSON text message from the player
func DecodeMessage(raw []byte) (Message, error) {
	var env map[string]any
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &DecodeError{Stage: "json", Offset: jsonErrorOffset(err), Message: err.Error()}
	}
	if env == nil {
		return nil, &DecodeError{Stage: "json", Message: "message is not an object"}
	}

	typ := typeOf(env["type"])
	switch {
	case typ == "ping":
		return PingMessage{}, nil
	case typ == "initializev2" || typ == "initialize" || typ == "init":
		return InitializeMessage{}, nil
	case typ == "setmusicinfo":
		info, _ := env["value"].(map[string]any)
		return SongMessage{Song: NormalizeSong(info)}, nil
	case coverTypes[typ]:
		return decodeCoverValue(env["value"]), nil
	case typ == "state":
		return decodeState(env["value"]), nil
	case typ == "onplayprogress":
		value, _ := env["value"].(map[string]any)
		return ProgressMessage{Ms: millisOf(value["progress"])}, nil
	case typ == "onresumed" || typ == "onpaused":
		return PlayStateMessage{State: typ}, nil
	case typ == "setlyric":
		value, _ := env["value"].(map[string]any)
		items, _ := value["data"].([]any)
		return LyricsMessage{Lines: parseRawLines(items)}, nil
	}

	name, _ := env["type"].(string)
	return UnknownMessage{Type: name}, nil
}

func jsonErrorOffset(err error) int {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return int(syntaxErr.Offset)
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return int(typeErr.Offset)
	}
	return 0
}

func decodeState(value any) Message {
	val, ok := value.(map[string]any)
	if !ok {
		val = map[string]any{}
		if truthy(value) {
			val["value"] = value
		}
	}

	update := typeOf(firstTruthy(val, "update", "type"))
	content := val["value"]
	if content == nil {
		content = firstTruthy(val, "data")
	}

	switch {
	case songUpdates[update]:
		payload := songPayloadFromState(val)
		if len(payload) == 0 {
			payload, _ = content.(map[string]any)
		}
		return SongMessage{Song: NormalizeSong(payload)}
	case coverUpdates[update]:
		payload := coverPayloadFromState(val)
		if payload == nil {
			switch c := content.(type) {
			case map[string]any:
				payload = c
			case string:
				if strings.TrimSpace(c) != "" {
					payload = map[string]any{"url": c}
				}
			}
		}
		return decodeStateCover(payload)
	case lyricUpdates[update]:
		items := linesFromState(val)
		if len(items) == 0 {
			switch c := content.(type) {
			case map[string]any:
				items, _ = c["lines"].([]any)
			case []any:
				items = c
			}
		}
		return LyricsMessage{Lines: parseRawLines(items)}
	case progressUpdates[update]:
		if ms, ok := progressFromState(val); ok {
			return ProgressMessage{Ms: ms}
		}
		return UnknownMessage{Type: "state." + update}
	case playUpdates[update]:
		return PlayStateMessage{State: update}
	}
	return UnknownMessage{Type: "state." + update}
}

// picks the map inside a state message that actually carries song fields
func songPayloadFromState(val map[string]any) map[string]any {
	candidates := []map[string]any{val}
	for _, k := range []string{
		"value", "data", "song", "music", "meta", "metadata", "info",
		"payload", "musicInfo", "songInfo", "track", "trackInfo",
	} {
		if m, ok := val[k].(map[string]any); ok {
			candidates = append(candidates, m)
		}
	}
	for _, c := range append([]map[string]any(nil), candidates...) {
		for _, k := range []string{"song", "music", "meta", "metadata", "info", "payload"} {
			if m, ok := c[k].(map[string]any); ok {
				candidates = append(candidates, m)
			}
		}
	}

	for _, c := range candidates {
		if hasAnyKey(c, songIdentityKeys...) {
			return c
		}
	}
	return val
}

func coverPayloadFromState(val map[string]any) map[string]any {
	for _, k := range []string{"value", "data", "cover", "image", "payload"} {
		switch c := val[k].(type) {
		case map[string]any:
			if len(c) > 0 {
				return c
			}
		case string:
			if strings.TrimSpace(c) != "" {
				return map[string]any{"url": c}
			}
		case []any:
			return map[string]any{"data": c, "mime": firstTruthy(val, "mime", "contentType")}
		}
	}
	return nil
}

func decodeStateCover(payload map[string]any) CoverMessage {
	var msg CoverMessage
	if payload == nil {
		return msg
	}

	switch strings.ToLower(stringOf(payload["source"])) {
	case "uri":
		msg.URL = stringOf(firstTruthy(payload, "url", "uri"))
	case "data":
		img, _ := payload["image"].(map[string]any)
		msg.Mime = stringOf(firstTruthy(img, "mimeType"))
		if msg.Mime == "" {
			msg.Mime = "image/jpeg"
		}
		switch d := img["data"].(type) {
		case string:
			msg.DataURL = dataURL(msg.Mime, d)
			msg.Data = decodeBase64(d)
		case []any:
			if b, ok := bytesOf(d); ok {
				msg.Data = b
				msg.DataURL = dataURL(msg.Mime, base64.StdEncoding.EncodeToString(b))
			}
		}
	default:
		msg.URL = stringOf(firstTruthy(payload, "url", "cover", "coverUrl"))
		if d, ok := firstTruthy(payload, "data", "imageData", "buffer").([]any); ok {
			if b, ok := bytesOf(d); ok {
				msg.Mime = stringOf(firstTruthy(payload, "mime", "contentType"))
				msg.Data = b
				msg.DataURL = dataURL(msg.Mime, base64.StdEncoding.EncodeToString(b))
			}
		}
	}
	return msg
}

// value of a setcover style message: a url, a data url, or an object
// carrying either plus raw image data
func decodeCoverValue(value any) CoverMessage {
	var msg CoverMessage
	switch v := value.(type) {
	case string:
		if strings.HasPrefix(v, "data:") {
			msg.DataURL = v
			msg.Mime, msg.Data = splitDataURL(v)
		} else {
			msg.URL = v
		}
	case map[string]any:
		msg.DataURL = stringOf(firstTruthy(v, "dataUrl", "dataURL"))
		msg.URL = stringOf(firstTruthy(v, "url", "cover", "coverUrl"))
		msg.Mime = stringOf(firstTruthy(v, "mime", "contentType"))
		if msg.DataURL != "" {
			mime, data := splitDataURL(msg.DataURL)
			msg.Data = data
			if msg.Mime == "" {
				msg.Mime = mime
			}
			break
		}
		switch raw := firstTruthy(v, "imageData", "data", "buffer", "blob").(type) {
		case string:
			msg.DataURL = dataURL(msg.Mime, raw)
			msg.Data = decodeBase64(raw)
		case []any:
			if b, ok := bytesOf(raw); ok {
				msg.Data = b
				msg.DataURL = dataURL(msg.Mime, base64.StdEncoding.EncodeToString(b))
			}
		}
	}
	return msg
}

// mime type and decoded bytes of a base64 data url
func splitDataURL(u string) (string, []byte) {
	header, body, ok := strings.Cut(strings.TrimPrefix(u, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return "", nil
	}
	return strings.TrimSuffix(header, ";base64"), decodeBase64(body)
}

func decodeBase64(s string) []byte {
	s = strings.TrimSpace(s)
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b
	}
	if b, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "=")); err == nil {
		return b
	}
	return nil
}

// JSON array of byte values
func bytesOf(items []any) ([]byte, bool) {
	out := make([]byte, len(items))
	for i, it := range items {
		f, ok := it.(float64)
		if !ok || f < 0 || f > 255 || f != math.Trunc(f) {
			return nil, false
		}
		out[i] = byte(f)
	}
	return out, len(out) > 0
}

func linesFromState(val map[string]any) []any {
	for _, k := range []string{"value", "data", "lyrics", "lyric", "lines", "payload"} {
		if lines, ok := digLines(val[k]); ok {
			return lines
		}
	}
	return nil
}

func digLines(v any) ([]any, bool) {
	switch c := v.(type) {
	case []any:
		return c, true
	case map[string]any:
		for _, k := range []string{"lines", "data", "lyrics", "lyric"} {
			if lines, ok := digLines(c[k]); ok {
				return lines, true
			}
		}
	}
	return nil, false
}

var progressKeys = []string{
	"progress_ms", "progressMs", "progress", "position", "positionMs", "position_ms",
	"time_ms", "timeMs", "time", "ms",
}

func progressFromState(val map[string]any) (int, bool) {
	for _, c := range []any{val["value"], val["data"], val["payload"], val} {
		if ms, ok := digProgress(c); ok {
			return ms, true
		}
	}
	return 0, false
}

func digProgress(v any) (int, bool) {
	if m, ok := v.(map[string]any); ok {
		for _, k := range progressKeys {
			if ms, ok := digProgress(m[k]); ok {
				return ms, true
			}
		}
		return 0, false
	}
	f, ok := numberOf(v)
	return int(math.Round(f)), ok
}

// loosely typed number rounded to whole milliseconds, 0 when not numeric
func millisOf(v any) int {
	f, _ := numberOf(v)
	return int(math.Round(f))
}

func parseRawLines(items []any) []RawLine {
	lines := make([]RawLine, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		line := RawLine{
			StartTime:       millisOf(m["startTime"]),
			EndTime:         millisOf(m["endTime"]),
			IsBG:            truthy(m["isBG"]),
			IsDuet:          truthy(m["isDuet"]),
			TranslatedLyric: stringOf(m["translatedLyric"]),
		}
		words, _ := m["words"].([]any)
		for _, w := range words {
			if wm, ok := w.(map[string]any); ok {
				line.Words = append(line.Words, parseRawWord(wm))
			}
		}
		lines = append(lines, line)
	}
	return lines
}

// word timing from whichever key spelling is present. A missing duration is
// derived from the end and a missing end from the duration.
func parseRawWord(m map[string]any) lyrics.Word {
	w := lyrics.Word{
		Text:     stringOf(m["word"]),
		Roman:    stringOf(firstTruthy(m, "romanWord", "roman_word")),
		StartMs:  millisOf(firstTruthy(m, "start_ms", "startMs", "startTime")),
		EndMs:    millisOf(firstTruthy(m, "end_ms", "endMs", "endTime")),
		Duration: millisOf(firstTruthy(m, "duration_ms", "durationMs", "duration")),
	}
	if w.Duration <= 0 && w.EndMs != 0 {
		w.Duration = max(0, w.EndMs-w.StartMs)
	}
	if w.EndMs == 0 && w.Duration != 0 {
		w.EndMs = w.StartMs + w.Duration
	}
	return w
}
