package server

import (
	"net/http"
	"strings"

	"github.com/mgpai22/lysync/internal/lyrics"
	"github.com/mgpai22/lysync/internal/realtime"
	"github.com/mgpai22/lysync/internal/subtitle"
)

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Hub.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"song":        snap.Song,
		"progress_ms": snap.ProgressMs,
		"lines":       snap.Lines,
	})
}

// current live lines as LYS or as a translation LRC
func (s *Server) handleSnapshotExport(w http.ResponseWriter, r *http.Request) {
	lines := s.deps.Hub.Snapshot().Lines

	var text string
	switch r.PathValue("format") {
	case "lys":
		text = realtime.LinesToLYS(lines)
	case "lrc":
		text = realtime.LinesToLRC(lines)
	default:
		s.writeError(w, r, &statusError{status: http.StatusNotFound, msg: "unknown export format"})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(text))
}

func (s *Server) handleGetAnimation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Calculator.Config())
}

// applies the valid fields of the body and returns the full config
func (s *Server) handleUpdateAnimation(w http.ResponseWriter, r *http.Request) {
	var patch lyrics.AnimationPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	cfg := s.deps.Calculator.Update(patch)
	s.log.Infow("animation config updated",
		"exit_duration", cfg.ExitDuration,
		"use_computed_disappear", cfg.UseComputedDisappear,
	)
	writeJSON(w, http.StatusOK, cfg)
}

var conversions = map[string][2]subtitle.Format{
	"lys-to-ttml": {subtitle.FormatLYS, subtitle.FormatTTML},
	"ttml-to-lys": {subtitle.FormatTTML, subtitle.FormatLYS},
	"lrc-to-ttml": {subtitle.FormatLRC, subtitle.FormatTTML},
}

type lyricRequest struct {
	Content     string          `json:"content"`
	Translation string          `json:"translation"`
	Format      subtitle.Format `json:"format"`
}

type convertResponse struct {
	Format      subtitle.Format `json:"format"`
	Output      string          `json:"output"`
	Translation string          `json:"translation,omitempty"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	pair, ok := conversions[r.PathValue("conversion")]
	if !ok {
		s.writeError(w, r, &statusError{status: http.StatusNotFound, msg: "unknown conversion"})
		return
	}

	var req lyricRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		s.writeError(w, r, badRequest("content is required"))
		return
	}

	out, trans, err := subtitle.NewFile(pair[0], req.Content, req.Translation, s.deps.Convert).Convert(pair[1])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convertResponse{Format: pair[1], Output: out, Translation: trans})
}

// parses LYS, LRC or TTML into renderer lines with disappear times. The
// format is guessed from the content when not given.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req lyricRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	format := req.Format
	if format == "" {
		format = subtitle.FormatLYS
		if strings.HasPrefix(strings.TrimSpace(strings.TrimPrefix(req.Content, "\ufeff")), "<") {
			format = subtitle.FormatTTML
		}
	}
	switch format {
	case subtitle.FormatLYS, subtitle.FormatLRC, subtitle.FormatTTML:
	default:
		s.writeError(w, r, badRequest("unsupported format %q", format))
		return
	}

	lines, err := subtitle.NewFile(format, req.Content, req.Translation, s.deps.Convert).Lines()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if lines == nil {
		lines = []lyrics.Line{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"format": format,
		"lines":  s.deps.Calculator.Apply(lines),
	})
}
