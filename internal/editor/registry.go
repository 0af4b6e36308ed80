package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mgpai22/lysync/internal/logging"
)

const persistTimeout = 5 * time.Second

// DocumentStore persists documents between restarts
type DocumentStore interface {
	SaveDocument(ctx context.Context, id string, v any) error
	LoadDocuments(ctx context.Context) (map[string][]byte, error)
	DeleteDocument(ctx context.Context, id string) error
}

type entry struct {
	doc  *Document
	path string
	undo []*Document
	redo []*Document
}

type record struct {
	Document *Document `json:"document"`
	Path     string    `json:"path,omitempty"`
}

// Registry holds the open documents and their undo/redo history. Every
// mutation names the version it was based on and is rejected when the
// document has moved on. Documents handed out are copies.
type Registry struct {
	mu    sync.Mutex
	docs  map[string]*entry
	store DocumentStore
	// bumped on every accepted change, under mu
	seq   uint64
	log   *logging.Logger
	now   func() time.Time

	// serializes store writes; persisted holds the last written seq per
	// document so a slower older write cannot land after a newer one
	persistMu sync.Mutex
	persisted map[string]uint64
}

func NewRegistry(log *logging.Logger) *Registry {
	return &Registry{
		docs:      make(map[string]*entry),
		persisted: make(map[string]uint64),
		log:       logging.OrNop(log).Named("editor"),
		now:       time.Now,
	}
}

// SetStore enables persistence of every accepted change
func (r *Registry) SetStore(s DocumentStore) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store = s
}

// Restore loads previously persisted documents. Undo history is not kept
// across restarts.
func (r *Registry) Restore(ctx context.Context) (int, error) {
	r.mu.Lock()
	store := r.store
	r.mu.Unlock()
	if store == nil {
		return 0, nil
	}

	all, err := store.LoadDocuments(ctx)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, data := range all {
		var rec record
		if err := json.Unmarshal(data, &rec); err != nil || rec.Document == nil {
			r.log.Warnw("skipping stored document", "id", id, "error", err)
			continue
		}
		r.docs[rec.Document.ID] = &entry{doc: rec.Document, path: rec.Path}
		n++
	}
	r.log.Infow("restored documents", "count", n)
	return n, nil
}

// Load parses raw .lys text into a new document. path is where Save writes
// it back and may be empty.
func (r *Registry) Load(ctx context.Context, raw, path string) *Document {
	doc := ParseLYS(raw)

	r.mu.Lock()
	r.docs[doc.ID] = &entry{doc: doc, path: path}
	out := doc.Clone()
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	r.log.Debugw("loaded document", "id", doc.ID, "lines", len(doc.Lines), "path", path)
	r.persist(ctx, seq, out, path)
	return out
}

// Close drops a document and its history, and removes it from the store
func (r *Registry) Close(ctx context.Context, id string) error {
	r.mu.Lock()
	if _, ok := r.docs[id]; !ok {
		r.mu.Unlock()
		return docNotFound(id)
	}
	delete(r.docs, id)
	r.seq++
	seq := r.seq
	store := r.store
	r.mu.Unlock()

	r.persistMu.Lock()
	defer r.persistMu.Unlock()
	r.persisted[id] = seq
	r.log.Debugw("closed document", "id", id)
	if store == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	return store.DeleteDocument(ctx, id)
}

func (r *Registry) Get(id string) (*Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.docs[id]
	if !ok {
		return nil, docNotFound(id)
	}
	return e.doc.Clone(), nil
}

// Export renders the current state of a document as .lys text
func (r *Registry) Export(id string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.docs[id]
	if !ok {
		return "", docNotFound(id)
	}
	return Dump(e.doc), nil
}

func docNotFound(id string) error {
	return fmt.Errorf("%w: document %s", ErrNotFound, id)
}

// mutate runs fn on a copy of the document and installs the copy only when
// fn succeeds, so a failed edit leaves no trace.
func (r *Registry) mutate(ctx context.Context, id string, base int, fn func(*Document) error) (*Document, error) {
	r.mu.Lock()
	e, ok := r.docs[id]
	if !ok {
		r.mu.Unlock()
		return nil, docNotFound(id)
	}
	if e.doc.Version != base {
		current := e.doc.Version
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: document %s is at version %d, not %d", ErrVersionConflict, id, current, base)
	}

	next := e.doc.Clone()
	if err := fn(next); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	next.Version++
	e.undo = append(e.undo, e.doc)
	e.redo = nil
	e.doc = next
	out := next.Clone()
	path := e.path
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	r.persist(ctx, seq, out, path)
	return out, nil
}

func (r *Registry) Move(ctx context.Context, id string, base int, selection []Range, target Target) (*Document, error) {
	return r.mutate(ctx, id, base, func(doc *Document) error {
		return applyMove(doc, selection, target)
	})
}

// InsertTokens inserts copies of tokens at position at of the line. The
// copies get fresh ids.
func (r *Registry) InsertTokens(ctx context.Context, id string, base int, lineID string, at int, tokens []Token) (*Document, error) {
	return r.mutate(ctx, id, base, func(doc *Document) error {
		return insertTokens(doc, lineID, at, tokens)
	})
}

func (r *Registry) SetPrefix(ctx context.Context, id string, base int, lineID string, n *int) (*Document, error) {
	return r.mutate(ctx, id, base, func(doc *Document) error {
		return setPrefix(doc, lineID, n)
	})
}

func (r *Registry) ShiftLine(ctx context.Context, id string, base int, lineID string, deltaMs int) (*Document, error) {
	return r.mutate(ctx, id, base, func(doc *Document) error {
		return shiftLine(doc, lineID, deltaMs)
	})
}

func (r *Registry) SetLastTokenDuration(ctx context.Context, id string, base int, lineID string, ms int) (*Document, error) {
	return r.mutate(ctx, id, base, func(doc *Document) error {
		return setLastTokenDuration(doc, lineID, ms)
	})
}

func (r *Registry) SortLines(ctx context.Context, id string, base int) (*Document, error) {
	return r.mutate(ctx, id, base, func(doc *Document) error {
		sortLines(doc)
		return nil
	})
}

// InsertNewline adds an empty lyric line after afterLineID, or at the top
// when afterLineID is empty
func (r *Registry) InsertNewline(ctx context.Context, id string, base int, afterLineID string) (*Document, error) {
	return r.mutate(ctx, id, base, func(doc *Document) error {
		return insertLine(doc, afterLineID, newLine())
	})
}

// Undo reinstates the state before the last accepted edit, version included
func (r *Registry) Undo(ctx context.Context, id string) (*Document, error) {
	return r.step(ctx, id, true)
}

func (r *Registry) Redo(ctx context.Context, id string) (*Document, error) {
	return r.step(ctx, id, false)
}

func (r *Registry) step(ctx context.Context, id string, undo bool) (*Document, error) {
	r.mu.Lock()
	e, ok := r.docs[id]
	if !ok {
		r.mu.Unlock()
		return nil, docNotFound(id)
	}

	from, to, empty := &e.undo, &e.redo, ErrNothingToUndo
	if !undo {
		from, to, empty = &e.redo, &e.undo, ErrNothingToRedo
	}
	if len(*from) == 0 {
		r.mu.Unlock()
		return nil, empty
	}

	last := len(*from) - 1
	prev := (*from)[last]
	*from = (*from)[:last]
	*to = append(*to, e.doc)
	e.doc = prev
	out := prev.Clone()
	path := e.path
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	r.persist(ctx, seq, out, path)
	return out, nil
}

// Save writes the document to path, or to the path it was loaded with when
// path is empty. An existing file is first copied to <path>.<unix>.bak.
func (r *Registry) Save(id, path string) (string, error) {
	r.mu.Lock()
	e, ok := r.docs[id]
	if !ok {
		r.mu.Unlock()
		return "", docNotFound(id)
	}
	if path == "" {
		path = e.path
	}
	text := Dump(e.doc)
	r.mu.Unlock()

	if path == "" {
		return "", fmt.Errorf("%w: document %s has no save path", ErrInvalid, id)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if prev, err := os.ReadFile(path); err == nil {
		backup := fmt.Sprintf("%s.%d.bak", path, r.now().Unix())
		if err := os.WriteFile(backup, prev, 0o644); err != nil {
			return "", fmt.Errorf("failed to write backup: %w", err)
		}
		r.log.Debugw("backed up lyrics", "path", backup)
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read existing file: %w", err)
	}

	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("failed to write lyrics: %w", err)
	}
	r.log.Infow("saved document", "id", id, "path", path)
	return path, nil
}

// failures are logged; the in-memory document stays authoritative
func (r *Registry) persist(ctx context.Context, seq uint64, doc *Document, path string) {
	r.mu.Lock()
	store := r.store
	r.mu.Unlock()
	if store == nil {
		return
	}

	r.persistMu.Lock()
	defer r.persistMu.Unlock()
	if seq <= r.persisted[doc.ID] {
		r.log.Debugw("skipping stale document write", "id", doc.ID, "version", doc.Version)
		return
	}
	r.persisted[doc.ID] = seq

	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	if err := store.SaveDocument(ctx, doc.ID, record{Document: doc, Path: path}); err != nil {
		r.log.Warnw("failed to persist document", "id", doc.ID, "error", err)
	}
}
