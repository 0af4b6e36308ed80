package editor

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrInvalid         = errors.New("invalid edit")
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrNothingToRedo   = errors.New("nothing to redo")
)

// move target kinds
const (
	TargetAnchor  = "anchor"
	TargetNewline = "newline"
	TargetLine    = "line"
)

const (
	PositionBefore = "before"
	PositionAfter  = "after"
	PositionStart  = "start"
	PositionEnd    = "end"
)

// Range selects the tokens between two token ids of one line, inclusive.
// The ids may be given in either order.
type Range struct {
	LineID       string `json:"line_id"`
	StartTokenID string `json:"start_token_id"`
	EndTokenID   string `json:"end_token_id"`
}

type Target struct {
	Type              string `json:"type"`
	LineID            string `json:"line_id,omitempty"`
	AnchorTokenID     string `json:"anchor_token_id,omitempty"`
	Position          string `json:"position,omitempty"`
	InsertAfterLineID string `json:"insert_after_line_id,omitempty"`
}

type selected struct {
	line, token int
	tok         *Token
}

func lineNotFound(id string) error {
	return fmt.Errorf("%w: line %s", ErrNotFound, id)
}

// resolves ranges to tokens in document order without duplicates
func normalizeSelection(doc *Document, selection []Range) ([]selected, error) {
	var out []selected
	seen := make(map[string]bool)
	for _, rng := range selection {
		li, line, ok := doc.findLine(rng.LineID)
		if !ok {
			return nil, lineNotFound(rng.LineID)
		}
		a, ok := line.findToken(rng.StartTokenID)
		if !ok {
			return nil, fmt.Errorf("%w: token %s in line %s", ErrNotFound, rng.StartTokenID, line.ID)
		}
		b, ok := line.findToken(rng.EndTokenID)
		if !ok {
			return nil, fmt.Errorf("%w: token %s in line %s", ErrNotFound, rng.EndTokenID, line.ID)
		}
		if a > b {
			a, b = b, a
		}
		for ti := a; ti <= b; ti++ {
			tok := line.Tokens[ti]
			if seen[tok.ID] {
				continue
			}
			seen[tok.ID] = true
			out = append(out, selected{line: li, token: ti, tok: tok})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].line != out[j].line {
			return out[i].line < out[j].line
		}
		return out[i].token < out[j].token
	})
	return out, nil
}

// applyMove relocates the selected tokens to target. Lines left without
// tokens are dropped afterwards; meta lines are always kept.
func applyMove(doc *Document, selection []Range, target Target) error {
	collected, err := normalizeSelection(doc, selection)
	if err != nil {
		return err
	}
	if len(collected) == 0 {
		return fmt.Errorf("%w: empty selection", ErrInvalid)
	}

	if target.Type == TargetAnchor {
		for _, s := range collected {
			if s.tok.ID == target.AnchorTokenID {
				return fmt.Errorf("%w: anchor token is within the selection", ErrInvalid)
			}
		}
	}

	// remove back to front so earlier indices stay valid
	for i := len(collected) - 1; i >= 0; i-- {
		s := collected[i]
		line := doc.Lines[s.line]
		line.Tokens = slices.Delete(line.Tokens, s.token, s.token+1)
	}

	var (
		dest *Line
		at   int
	)
	switch target.Type {
	case TargetAnchor:
		_, line, ok := doc.findLine(target.LineID)
		if !ok {
			return lineNotFound(target.LineID)
		}
		idx, ok := line.findToken(target.AnchorTokenID)
		if !ok {
			return fmt.Errorf("%w: anchor token %s", ErrNotFound, target.AnchorTokenID)
		}
		dest, at = line, idx+1
		if target.Position == PositionBefore {
			at = idx
		}
	case TargetNewline:
		dest = newLine()
		if err := insertLine(doc, target.InsertAfterLineID, dest); err != nil {
			return err
		}
	case TargetLine:
		_, line, ok := doc.findLine(target.LineID)
		if !ok {
			return lineNotFound(target.LineID)
		}
		switch target.Position {
		case PositionStart:
			at = 0
		case PositionEnd, "":
			at = len(line.Tokens)
		default:
			return fmt.Errorf("%w: line position %q", ErrInvalid, target.Position)
		}
		dest = line
	default:
		return fmt.Errorf("%w: target type %q", ErrInvalid, target.Type)
	}

	moving := make([]*Token, len(collected))
	for i, s := range collected {
		moving[i] = s.tok
	}
	dest.Tokens = slices.Insert(dest.Tokens, at, moving...)

	doc.Lines = slices.DeleteFunc(doc.Lines, func(l *Line) bool {
		return !l.IsMeta && len(l.Tokens) == 0
	})
	return nil
}

// inserts line after the line with id afterID, or first when afterID is empty
func insertLine(doc *Document, afterID string, line *Line) error {
	if afterID == "" {
		doc.Lines = slices.Insert(doc.Lines, 0, line)
		return nil
	}
	idx, _, ok := doc.findLine(afterID)
	if !ok {
		return lineNotFound(afterID)
	}
	doc.Lines = slices.Insert(doc.Lines, idx+1, line)
	return nil
}

// finds a lyric line for editing
func editableLine(doc *Document, lineID string) (*Line, error) {
	_, line, ok := doc.findLine(lineID)
	if !ok {
		return nil, lineNotFound(lineID)
	}
	if line.IsMeta {
		return nil, fmt.Errorf("%w: line %s is a meta line", ErrInvalid, lineID)
	}
	return line, nil
}

func insertTokens(doc *Document, lineID string, at int, tokens []Token) error {
	line, err := editableLine(doc, lineID)
	if err != nil {
		return err
	}
	if at < 0 || at > len(line.Tokens) {
		return fmt.Errorf("%w: insert position %d", ErrInvalid, at)
	}

	fresh := make([]*Token, len(tokens))
	for i, t := range tokens {
		fresh[i] = &Token{ID: newID(), TS: t.TS, Text: t.Text}
	}
	line.Tokens = slices.Insert(line.Tokens, at, fresh...)
	return nil
}

// a nil n clears the number and leaves the bare "[]" prefix
func setPrefix(doc *Document, lineID string, n *int) error {
	line, err := editableLine(doc, lineID)
	if err != nil {
		return err
	}
	if n == nil {
		line.Prefix = "[]"
		return nil
	}
	if *n < 0 {
		return fmt.Errorf("%w: prefix must be >= 0", ErrInvalid)
	}
	line.Prefix = fmt.Sprintf("[%d]", *n)
	return nil
}

// moves every timed token of the line by delta, clamping starts at zero
func shiftLine(doc *Document, lineID string, delta int) error {
	line, err := editableLine(doc, lineID)
	if err != nil {
		return err
	}
	for _, tok := range line.Tokens {
		start, dur, ok := parseTS(tok.TS)
		if !ok {
			continue
		}
		if shifted := max(0, start+delta); shifted != start {
			tok.TS = formatTS(shifted, dur)
		}
	}
	return nil
}

// overwrites the duration of the last token that carries a timestamp
func setLastTokenDuration(doc *Document, lineID string, dur int) error {
	if dur < 0 {
		return fmt.Errorf("%w: duration must be >= 0", ErrInvalid)
	}
	line, err := editableLine(doc, lineID)
	if err != nil {
		return err
	}
	if len(line.Tokens) == 0 {
		return fmt.Errorf("%w: line has no tokens", ErrInvalid)
	}
	for i := len(line.Tokens) - 1; i >= 0; i-- {
		if start, _, ok := parseTS(line.Tokens[i].TS); ok {
			line.Tokens[i].TS = formatTS(start, dur)
			return nil
		}
	}
	return fmt.Errorf("%w: no timed token in line", ErrInvalid)
}

// meta lines first in their current order, then lyric lines by the start of
// their first token. Lines without a readable start sort last.
func sortLines(doc *Document) {
	meta := make([]*Line, 0, len(doc.Lines))
	var lyric []*Line
	for _, line := range doc.Lines {
		if line.IsMeta {
			meta = append(meta, line)
		} else {
			lyric = append(lyric, line)
		}
	}
	slices.SortStableFunc(lyric, func(a, b *Line) int {
		return lineStart(a) - lineStart(b)
	})
	doc.Lines = append(meta, lyric...)
}

func lineStart(l *Line) int {
	if len(l.Tokens) == 0 {
		return math.MaxInt32
	}
	start, _, ok := parseTS(l.Tokens[0].TS)
	if !ok {
		return math.MaxInt32
	}
	return start
}
