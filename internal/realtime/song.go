package realtime

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// now-playing metadata as shown to subscribers
type Song struct {
	MusicName    string   `json:"musicName,omitempty"`
	Artists      []string `json:"artists,omitempty"`
	Duration     int      `json:"duration,omitempty"`
	Album        string   `json:"album,omitempty"`
	Cover        string   `json:"cover,omitempty"`
	AlbumImgSrc  string   `json:"albumImgSrc,omitempty"`
	CoverDataURL string   `json:"cover_data_url,omitempty"`
	CoverFileURL string   `json:"cover_file_url,omitempty"`
}

// Merge returns s with every non-empty field of patch applied
func (s Song) Merge(patch Song) Song {
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setString(&s.MusicName, patch.MusicName)
	setString(&s.Album, patch.Album)
	setString(&s.Cover, patch.Cover)
	setString(&s.AlbumImgSrc, patch.AlbumImgSrc)
	setString(&s.CoverDataURL, patch.CoverDataURL)
	setString(&s.CoverFileURL, patch.CoverFileURL)
	if len(patch.Artists) > 0 {
		s.Artists = append([]string(nil), patch.Artists...)
	}
	if patch.Duration != 0 {
		s.Duration = patch.Duration
	}
	return s
}

func (s Song) IsZero() bool {
	return s.MusicName == "" && len(s.Artists) == 0 && s.Duration == 0 && s.Album == "" &&
		s.Cover == "" && s.AlbumImgSrc == "" && s.CoverDataURL == "" && s.CoverFileURL == ""
}

var (
	songNameKeys = []string{
		"musicName", "music", "title", "name", "songName", "trackName", "song", "musicTitle",
		"songTitle", "trackTitle", "titleName", "musicTitleName", "music_name", "song_title",
		"track_title", "song_name",
	}
	songArtistKeys = []string{
		"artists", "artist", "artistName", "singer", "singers", "performer", "artistNames",
		"artist_names", "singerName", "singerNames", "singer_name", "singer_names",
	}
	artistNameKeys = []string{"name", "artistName", "singerName", "singer"}
	songAlbumKeys  = []string{
		"album", "albumName", "albumTitle", "record", "collection", "disc", "discName",
		"discTitle", "album_name", "album_title",
	}
	songCoverKeys = []string{
		"albumImgSrc", "cover", "coverUrl", "coverURL", "artworkUrl", "artworkUrl100", "artwork",
		"artworkURL", "picUrl", "image", "img", "albumArt", "albumArtUrl", "albumCover", "coverUri",
		"coverURI", "artUri", "artworkUri", "imageUrl", "imageURL", "artUri100",
	}
	songCoverDataURLKeys = []string{
		"coverDataUrl", "cover_data_url", "coverDataURL", "coverDataURI", "coverData", "cover_data",
	}
	songCoverRawKeys  = []string{"coverData", "coverBase64", "albumImgData", "imageData", "artworkData"}
	songCoverMimeKeys = []string{"coverMime", "mime", "contentType"}
	songDurationKeys  = []string{
		"duration", "durationMs", "duration_ms", "durationMS", "durationSeconds", "durationSec",
		"length", "lengthMs", "length_ms", "songDuration", "songDurationMs", "musicDuration",
	}

	// keys that mark a map as song metadata rather than a wrapper around it
	songIdentityKeys = []string{
		"musicName", "music", "title", "name", "songName", "trackName",
		"artist", "artistName", "artists", "singer", "singers", "performer",
		"artist_name", "artist_names", "singer_name", "singer_names",
		"album", "albumName", "albumTitle", "album_name",
		"duration", "durationMs", "duration_ms", "durationMS", "durationSeconds", "durationSec",
		"length", "lengthMs", "length_ms", "cover", "coverUrl", "coverURL", "albumImgSrc",
	}
)

// NormalizeSong reads song metadata from any of the key spellings players use
func NormalizeSong(info map[string]any) Song {
	if info == nil {
		return Song{}
	}

	s := Song{
		MusicName: strings.TrimSpace(stringOf(firstTruthy(info, songNameKeys...))),
		Artists:   normalizeArtists(firstTruthy(info, songArtistKeys...)),
		Album:     strings.TrimSpace(stringOf(firstTruthy(info, songAlbumKeys...))),
	}

	if cover := coverFromInfo(info); cover != "" {
		s.Cover = cover
		s.AlbumImgSrc = cover
	}

	// some players put bare base64 under the data url keys
	s.CoverDataURL = strings.TrimSpace(stringOf(firstTruthy(info, songCoverDataURLKeys...)))
	if s.CoverDataURL != "" && !strings.HasPrefix(s.CoverDataURL, "data:") {
		s.CoverDataURL = dataURL(stringOf(firstTruthy(info, songCoverMimeKeys...)), s.CoverDataURL)
	}
	if s.CoverDataURL == "" {
		if raw, ok := firstTruthy(info, songCoverRawKeys...).(string); ok && strings.TrimSpace(raw) != "" {
			mime := stringOf(firstTruthy(info, songCoverMimeKeys...))
			s.CoverDataURL = dataURL(mime, strings.TrimSpace(raw))
		}
	}

	if d, ok := numberOf(firstTruthy(info, songDurationKeys...)); ok {
		s.Duration = int(d)
	}
	return s
}

func normalizeArtists(v any) []string {
	var out []string
	add := func(name string) {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}

	switch a := v.(type) {
	case []any:
		for _, item := range a {
			switch it := item.(type) {
			case map[string]any:
				add(stringOf(firstTruthy(it, artistNameKeys...)))
			case nil:
			default:
				add(stringOf(it))
			}
		}
	case map[string]any:
		add(stringOf(firstTruthy(a, artistNameKeys...)))
	case nil:
	default:
		add(stringOf(a))
	}
	return out
}

func coverFromInfo(info map[string]any) string {
	for _, k := range songCoverKeys {
		if s, ok := info[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return strings.TrimSpace(stringOf(firstTruthy(info, "url")))
}

func hasAnyKey(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

// value of the first key whose value is not empty, zero or false
func firstTruthy(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && truthy(v) {
			return v
		}
	}
	return nil
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	return true
}

func stringOf(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case []any, map[string]any:
		return ""
	}
	return fmt.Sprint(v)
}

// numeric value of a JSON number or numeric string; booleans don't count
func numberOf(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x) && !math.IsInf(x, 0)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func dataURL(mime, b64 string) string {
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + b64
}
