package subtitle

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/lysync/internal/lyrics"
)

// translation lines keyed by millisecond, consumed as paragraphs claim them.
// Keys keep the order in which they first appeared in the file.
type translationPool struct {
	keys  []int
	texts map[int]string
}

func newTranslationPool(content string) *translationPool {
	p := &translationPool{texts: map[int]string{}}
	if content == "" {
		return p
	}
	shift := lyrics.Offset(content)
	for _, raw := range lyrics.SplitLines(content) {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		ms, text, ok := lyrics.ParseLRCLine(raw)
		if !ok {
			continue
		}
		ms += shift
		if _, seen := p.texts[ms]; !seen {
			p.keys = append(p.keys, ms)
		}
		p.texts[ms] = text
	}
	return p
}

func (p *translationPool) remove(key int) string {
	text := p.texts[key]
	delete(p.texts, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
	return text
}

// exact key match, no tolerance
func (p *translationPool) exact(ms int) (string, bool) {
	if _, ok := p.texts[ms]; !ok {
		return "", false
	}
	return p.remove(ms), true
}

// exact key first, then the closest key within tolerance. Ties go to the
// key that appeared first. A matched entry is removed from the pool.
func (p *translationPool) nearest(ms, tolerance int) (string, bool) {
	if text, ok := p.exact(ms); ok {
		return text, true
	}
	best, bestDiff := 0, -1
	for _, k := range p.keys {
		diff := k - ms
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			continue
		}
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = k, diff
		}
	}
	if bestDiff < 0 {
		return "", false
	}
	return p.remove(best), true
}

// locates the translation LRC next to a lyric file: <stem>_trans.lrc first,
// then any other .lrc in the same directory whose name starts with the stem
func FindTranslationFile(path string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	preferred := filepath.Join(dir, stem+"_trans.lrc")
	if info, err := os.Stat(preferred); err == nil && !info.IsDir() {
		return preferred
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == base {
			continue
		}
		if strings.HasPrefix(name, stem) && strings.EqualFold(filepath.Ext(name), ".lrc") {
			return filepath.Join(dir, name)
		}
	}
	return ""
}
