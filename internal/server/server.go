package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mgpai22/lysync/internal/editor"
	"github.com/mgpai22/lysync/internal/logging"
	"github.com/mgpai22/lysync/internal/lyrics"
	"github.com/mgpai22/lysync/internal/realtime"
	"github.com/mgpai22/lysync/internal/subtitle"
)

const maxBodyBytes = 16 << 20

// Deps are the shared components the HTTP API exposes
type Deps struct {
	Hub        *realtime.Hub
	Calculator *lyrics.Calculator
	Documents  *editor.Registry
	Convert    subtitle.Options
	// lyric files and stored covers are served from and saved under here
	SongsDir string
}

// HTTP API for the live state stream, conversions and the document editor
type Server struct {
	Addr      string
	KeepAlive time.Duration

	deps Deps
	log  *logging.Logger
}

func New(addr string, deps Deps, log *logging.Logger) *Server {
	return &Server{
		Addr:      addr,
		KeepAlive: realtime.DefaultKeepAlive,
		deps:      deps,
		log:       logging.OrNop(log).Named("http"),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /amll/state", s.handleState)
	mux.Handle("GET /amll/stream", realtime.NewSSEHandler(s.deps.Hub, s.KeepAlive, s.log))
	mux.HandleFunc("GET /amll/export/{format}", s.handleSnapshotExport)

	mux.HandleFunc("GET /api/animation-config", s.handleGetAnimation)
	mux.HandleFunc("POST /api/animation-config", s.handleUpdateAnimation)
	mux.HandleFunc("POST /api/convert/{conversion}", s.handleConvert)
	mux.HandleFunc("POST /api/parse", s.handleParse)

	mux.HandleFunc("POST /api/editor/load", s.handleEditorLoad)
	mux.HandleFunc("GET /api/editor/{id}", s.handleEditorGet)
	mux.HandleFunc("DELETE /api/editor/{id}", s.handleEditorClose)
	mux.HandleFunc("GET /api/editor/{id}/export", s.handleEditorExport)
	mux.HandleFunc("POST /api/editor/{id}/{op}", s.handleEditorOp)

	if s.deps.SongsDir != "" {
		mux.Handle("GET /songs/", http.StripPrefix("/songs/", http.FileServer(http.Dir(s.deps.SongsDir))))
	}

	return s.logRequests(mux)
}

// ListenAndServe serves until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts end with ctx so open event streams return
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("http server listening", "addr", s.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// keeps streaming responses working through the wrapper
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debugw("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
