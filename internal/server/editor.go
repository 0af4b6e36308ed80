package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/lysync/internal/editor"
)

type loadRequest struct {
	Content string `json:"content"`
	// relative to the songs directory; read when content is empty and
	// used as the save target
	Path string `json:"path"`
}

type editRequest struct {
	BaseVersion       *int           `json:"base_version"`
	Selection         []editor.Range `json:"selection"`
	Target            editor.Target  `json:"target"`
	LineID            string         `json:"line_id"`
	InsertAt          int            `json:"insert_at"`
	Tokens            []editor.Token `json:"tokens"`
	PrefixInt         *int           `json:"prefix_int"`
	DeltaMs           int            `json:"delta_ms"`
	DurationMs        *int           `json:"duration_ms"`
	InsertAfterLineID string         `json:"insert_after_line_id"`
	Path              string         `json:"path"`
}

// resolves a path below the songs directory
func (s *Server) songPath(rel string) (string, error) {
	if s.deps.SongsDir == "" {
		return "", badRequest("no songs directory configured")
	}
	full := filepath.Join(s.deps.SongsDir, filepath.FromSlash(rel))
	inside, err := filepath.Rel(s.deps.SongsDir, full)
	if err != nil || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", badRequest("path %q is outside the songs directory", rel)
	}
	return full, nil
}

func (s *Server) handleEditorLoad(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	var path string
	if req.Path != "" {
		p, err := s.songPath(req.Path)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		path = p
	}

	content := req.Content
	if content == "" {
		if path == "" {
			s.writeError(w, r, badRequest("content or path is required"))
			return
		}
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			s.writeError(w, r, &statusError{status: http.StatusNotFound, msg: "lyric file not found"})
			return
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		content = strings.TrimPrefix(string(data), "\ufeff")
	}

	writeJSON(w, http.StatusOK, s.deps.Documents.Load(r.Context(), content, path))
}

func (s *Server) handleEditorGet(w http.ResponseWriter, r *http.Request) {
	doc, err := s.deps.Documents.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleEditorClose(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Documents.Close(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEditorExport(w http.ResponseWriter, r *http.Request) {
	text, err := s.deps.Documents.Export(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(text))
}

// dispatches the editor mutations, undo/redo and save
func (s *Server) handleEditorOp(w http.ResponseWriter, r *http.Request) {
	id, op := r.PathValue("id"), r.PathValue("op")

	var req editRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	docs, ctx := s.deps.Documents, r.Context()
	var (
		doc *editor.Document
		err error
	)

	switch op {
	case "undo":
		doc, err = docs.Undo(ctx, id)
	case "redo":
		doc, err = docs.Redo(ctx, id)
	case "save":
		s.handleEditorSave(w, r, id, req.Path)
		return
	default:
		if req.BaseVersion == nil {
			s.writeError(w, r, badRequest("base_version is required"))
			return
		}
		base := *req.BaseVersion

		switch op {
		case "move":
			doc, err = docs.Move(ctx, id, base, req.Selection, req.Target)
		case "insert":
			doc, err = docs.InsertTokens(ctx, id, base, req.LineID, req.InsertAt, req.Tokens)
		case "prefix":
			doc, err = docs.SetPrefix(ctx, id, base, req.LineID, req.PrefixInt)
		case "shift":
			doc, err = docs.ShiftLine(ctx, id, base, req.LineID, req.DeltaMs)
		case "duration":
			if req.DurationMs == nil {
				s.writeError(w, r, badRequest("duration_ms is required"))
				return
			}
			doc, err = docs.SetLastTokenDuration(ctx, id, base, req.LineID, *req.DurationMs)
		case "sort":
			doc, err = docs.SortLines(ctx, id, base)
		case "newline":
			doc, err = docs.InsertNewline(ctx, id, base, req.InsertAfterLineID)
		default:
			s.writeError(w, r, &statusError{status: http.StatusNotFound, msg: "unknown editor operation " + op})
			return
		}
	}

	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleEditorSave(w http.ResponseWriter, r *http.Request, id, rel string) {
	var path string
	if rel != "" {
		p, err := s.songPath(rel)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		path = p
	}

	saved, err := s.deps.Documents.Save(id, path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": saved})
}
