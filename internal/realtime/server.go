package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mgpai22/lysync/internal/logging"
)

const DefaultMaxMessageBytes = 64 << 20

// Server accepts player websocket connections and feeds every message to
// the adapter. A message that fails to decode is logged and skipped; the
// connection stays open.
type Server struct {
	Addr            string
	MaxMessageBytes int64

	adapter  *Adapter
	upgrader websocket.Upgrader
	log      *logging.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewServer(addr string, maxMessageBytes int64, adapter *Adapter, log *logging.Logger) *Server {
	if maxMessageBytes <= 0 {
		maxMessageBytes = DefaultMaxMessageBytes
	}
	return &Server{
		Addr:            addr,
		MaxMessageBytes: maxMessageBytes,
		adapter:         adapter,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 << 10,
			WriteBufferSize: 64 << 10,
			// players connect from desktop apps and local pages
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log:   logging.OrNop(log).Named("ws"),
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// ListenAndServe serves until ctx is cancelled, then closes open connections
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("websocket server listening", "addr", s.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("websocket server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.closeAll()
	if err != nil {
		return fmt.Errorf("failed to shut down websocket server: %w", err)
	}
	return nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("failed to upgrade connection", "remote", r.RemoteAddr, "error", err)
		return
	}
	s.track(conn, true)
	defer s.track(conn, false)

	s.serveConn(conn, r.RemoteAddr)
}

func (s *Server) track(conn *websocket.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
		return
	}
	delete(s.conns, conn)
	_ = conn.Close()
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
}

func (s *Server) serveConn(conn *websocket.Conn, remote string) {
	log := s.log.With("remote", remote)
	log.Infow("player connected")
	conn.SetReadLimit(s.MaxMessageBytes)

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnw("connection closed", "error", err)
			} else {
				log.Infow("player disconnected")
			}
			return
		}

		reply, err := s.handle(kind, data)
		if err != nil {
			var decodeErr *DecodeError
			if errors.As(err, &decodeErr) {
				log.Warnw("failed to decode message", "stage", decodeErr.Stage, "offset", decodeErr.Offset, "error", decodeErr.Message)
			} else {
				log.Warnw("failed to handle message", "error", err)
			}
			continue
		}
		if reply != nil {
			if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
				log.Warnw("failed to send reply", "error", err)
				return
			}
		}
	}
}

// handle isolates a single message, a panic while decoding is reported as
// an error for that message only
func (s *Server) handle(kind int, data []byte) (reply []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while handling message: %v", r)
		}
	}()

	switch kind {
	case websocket.TextMessage:
		return s.adapter.HandleText(data)
	case websocket.BinaryMessage:
		return nil, s.adapter.HandleBinary(data)
	}
	return nil, nil
}
