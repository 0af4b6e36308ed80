package realtime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mgpai22/lysync/internal/logging"
)

const DefaultKeepAlive = 15 * time.Second

// streams hub events as server-sent events
type SSEHandler struct {
	Hub       *Hub
	KeepAlive time.Duration
	Log       *logging.Logger
}

func NewSSEHandler(hub *Hub, keepAlive time.Duration, log *logging.Logger) *SSEHandler {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	return &SSEHandler{Hub: hub, KeepAlive: keepAlive, Log: logging.OrNop(log).Named("sse")}
}

// ServeHTTP sends the full snapshot first, then every event as it arrives.
// A comment line goes out when nothing happened for KeepAlive.
func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, unsubscribe := h.Hub.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	snap := h.Hub.Snapshot()
	state := map[string]any{
		"song":        snap.Song,
		"progress_ms": snap.ProgressMs,
		"lines":       snap.Lines,
	}
	if err := WriteEvent(w, EventState, state); err != nil {
		h.Log.Debugw("failed to write initial state", "error", err)
		return
	}
	flusher.Flush()

	keepAlive := time.NewTimer(h.KeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := WriteEvent(w, ev.Type, ev.Data); err != nil {
				h.Log.Debugw("subscriber went away", "error", err)
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
		keepAlive.Reset(h.KeepAlive)
	}
}

// writes one event as "event:<name>\ndata:<json>\n\n"
func WriteEvent(w io.Writer, name string, data any) error {
	payload, err := marshalJSON(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", name, err)
	}
	_, err = fmt.Fprintf(w, "event:%s\ndata:%s\n\n", name, payload)
	return err
}

// JSON without HTML escaping and without the trailing newline
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
