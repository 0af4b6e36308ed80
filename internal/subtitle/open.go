package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/lysync/internal/lyrics"
)

// lyric file loaded from disk together with its translation, if any
type File interface {
	Format() Format
	Path() string
	Lines() ([]lyrics.Line, error)
	SetTranslation(content string)
	// returns the converted document and, for LYS output, its translation LRC
	Convert(target Format) (string, string, error)
}

type lyricFile struct {
	path        string
	format      Format
	content     string
	translation string
	opts        Options
}

// lyric format based on file extension
func DetectLyricFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".lys":
		return FormatLYS, nil
	case ".ttml", ".xml":
		return FormatTTML, nil
	case ".lrc":
		return FormatLRC, nil
	default:
		return "", fmt.Errorf("unsupported lyric format: %s", ext)
	}
}

// reads a lyric file. LYS and LRC files pick up a neighbouring translation
// LRC when one exists.
func Open(path string, opts Options) (File, error) {
	format, err := DetectLyricFormat(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lyric file: %w", err)
	}

	f := &lyricFile{
		path:    path,
		format:  format,
		content: strings.TrimPrefix(string(data), "\ufeff"),
		opts:    opts,
	}

	if format != FormatTTML {
		if tp := FindTranslationFile(path); tp != "" {
			trans, err := os.ReadFile(tp)
			if err != nil {
				opts.logger().Warnw("failed to read translation file", "path", tp, "error", err)
			} else {
				f.translation = strings.TrimPrefix(string(trans), "\ufeff")
				opts.logger().Debugw("found translation file", "path", tp)
			}
		}
	}
	return f, nil
}

// NewFile wraps lyric text that did not come from disk, such as an upload
func NewFile(format Format, content, translation string, opts Options) File {
	return &lyricFile{
		format:      format,
		content:     strings.TrimPrefix(content, "\ufeff"),
		translation: strings.TrimPrefix(translation, "\ufeff"),
		opts:        opts,
	}
}

func (f *lyricFile) Format() Format {
	return f.format
}

func (f *lyricFile) Path() string {
	return f.path
}

func (f *lyricFile) SetTranslation(content string) {
	f.translation = strings.TrimPrefix(content, "\ufeff")
}

func (f *lyricFile) Lines() ([]lyrics.Line, error) {
	switch f.format {
	case FormatLYS:
		lines := lyrics.ParseLYS(f.content)
		attachTranslations(lines, f.translation, f.opts.TranslationTolerance)
		return lines, nil
	case FormatLRC:
		lines := lyrics.LRCToLines(f.content, f.opts.LRCDefaultDuration)
		attachTranslations(lines, f.translation, 0)
		return lines, nil
	case FormatTTML:
		return TTMLToLines(f.content, f.opts)
	default:
		return nil, fmt.Errorf("unsupported lyric format: %s", f.format)
	}
}

func (f *lyricFile) Convert(target Format) (string, string, error) {
	if target == f.format {
		return f.content, f.translation, nil
	}

	switch {
	case f.format == FormatLYS && target == FormatTTML:
		out, err := LYSToTTML(f.content, f.translation, f.opts)
		return out, "", err
	case f.format == FormatLRC && target == FormatTTML:
		out, err := LRCToTTML(f.content, f.translation, f.opts)
		return out, "", err
	case f.format == FormatTTML && target == FormatLYS:
		return TTMLToLYS(f.content, f.opts)
	default:
		return "", "", fmt.Errorf("unsupported conversion: %s to %s", f.format, target)
	}
}

// file extension for a lyric or caption format
func ExtensionFor(format Format) string {
	switch format {
	case FormatLYS:
		return ".lys"
	case FormatTTML:
		return ".ttml"
	case FormatLRC:
		return ".lrc"
	default:
		return GetExtensionForFormat(format)
	}
}
