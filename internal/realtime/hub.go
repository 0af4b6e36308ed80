package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/mgpai22/lysync/internal/logging"
	"github.com/mgpai22/lysync/internal/lyrics"
)

const (
	EventState    = "state"
	EventLyrics   = "lyrics"
	EventProgress = "progress"
	EventSong     = "song"
)

const DefaultBacklog = 1000

// event delivered to subscribers, Data is sent as the SSE payload
type Event struct {
	Type string
	Data any
}

// current playback state as seen by a newly connected subscriber
type Snapshot struct {
	Song       Song          `json:"song"`
	ProgressMs int           `json:"progress_ms"`
	Lines      []lyrics.Line `json:"lines"`
	LastUpdate time.Time     `json:"last_update"`
}

// persists snapshots, implemented by store.Store
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, v any) error
	LoadSnapshot(ctx context.Context, v any) (bool, error)
}

// Hub owns the snapshot and fans events out to subscribers. Each subscriber
// has its own bounded channel; a subscriber that falls behind loses events
// instead of slowing the player connection down.
type Hub struct {
	mu      sync.RWMutex
	snap    Snapshot
	subs    map[uint64]chan Event
	nextID  uint64
	backlog int

	store SnapshotStore
	dirty chan struct{}
	log   *logging.Logger
	now   func() time.Time
}

func NewHub(backlog int, log *logging.Logger) *Hub {
	if backlog <= 0 {
		backlog = DefaultBacklog
	}
	return &Hub{
		snap:    Snapshot{Lines: []lyrics.Line{}},
		subs:    make(map[uint64]chan Event),
		backlog: backlog,
		dirty:   make(chan struct{}, 1),
		log:     logging.OrNop(log).Named("hub"),
		now:     time.Now,
	}
}

// enables snapshot persistence, call before Run
func (h *Hub) SetStore(s SnapshotStore) {
	h.store = s
}

// loads the persisted snapshot, if any
func (h *Hub) Restore(ctx context.Context) error {
	if h.store == nil {
		return nil
	}
	var snap Snapshot
	ok, err := h.store.LoadSnapshot(ctx, &snap)
	if err != nil || !ok {
		return err
	}
	if snap.Lines == nil {
		snap.Lines = []lyrics.Line{}
	}

	h.mu.Lock()
	h.snap = snap
	h.mu.Unlock()
	h.log.Infow("restored snapshot", "lines", len(snap.Lines), "song", snap.Song.MusicName)
	return nil
}

// saves the snapshot after changes until ctx is done. Bursts of updates
// collapse into a single write.
func (h *Hub) Run(ctx context.Context) error {
	if h.store == nil {
		<-ctx.Done()
		return nil
	}
	for {
		select {
		case <-h.dirty:
			snap := h.Snapshot()
			saveCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := h.store.SaveSnapshot(saveCtx, snap); err != nil {
				h.log.Warnw("failed to persist snapshot", "error", err)
			}
			cancel()
		case <-ctx.Done():
			return nil
		}
	}
}

// copy of the current snapshot
func (h *Hub) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	snap := h.snap
	snap.Lines = append([]lyrics.Line{}, h.snap.Lines...)
	snap.Song.Artists = append([]string(nil), h.snap.Song.Artists...)
	return snap
}

// Subscribe registers a subscriber. The returned func unregisters it and
// closes the channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.backlog)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// replaces the lines
func (h *Hub) PublishLyrics(lines []lyrics.Line) {
	if lines == nil {
		lines = []lyrics.Line{}
	}
	h.publish(Event{Type: EventLyrics, Data: map[string]any{"lines": lines}}, func(s *Snapshot) {
		s.Lines = lines
	}, true)
}

func (h *Hub) PublishProgress(ms int) {
	h.publish(Event{Type: EventProgress, Data: map[string]any{"progress_ms": ms}}, func(s *Snapshot) {
		s.ProgressMs = ms
	}, false)
}

// merges patch into the current song, empty fields are ignored
func (h *Hub) PublishSong(patch Song) {
	h.publish(Event{Type: EventSong, Data: map[string]any{"song": patch}}, func(s *Snapshot) {
		s.Song = s.Song.Merge(patch)
	}, true)
}

func (h *Hub) publish(ev Event, apply func(*Snapshot), persist bool) {
	h.mu.Lock()
	apply(&h.snap)
	h.snap.LastUpdate = h.now()

	dropped := 0
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			dropped++
		}
	}
	h.mu.Unlock()

	if dropped > 0 {
		h.log.Debugw("dropped event for slow subscribers", "type", ev.Type, "subscribers", dropped)
	}
	if persist && h.store != nil {
		select {
		case h.dirty <- struct{}{}:
		default:
		}
	}
}
