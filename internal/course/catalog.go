package course

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

var (
	ErrInvalidIndex = errors.New("index out of range")
	ErrBadQuestion  = errors.New("question must have variants and an in-range correct index")
)

// Catalog hands out immutable course snapshots to readers and serializes
// admin edits. Every edit clones the current snapshot, mutates the clone and
// swaps it in atomically, so a learner holding an older snapshot keeps a
// consistent view for the rest of their session.
type Catalog struct {
	mu   sync.Mutex // writers only
	cur  atomic.Pointer[Course]
	path string
}

func NewCatalog(c *Course, path string) *Catalog {
	cat := &Catalog{path: path}
	cat.cur.Store(c)
	return cat
}

// Snapshot returns the current immutable course. Callers must not mutate it.
func (cat *Catalog) Snapshot() *Course { return cat.cur.Load() }

// Persist writes the current snapshot to the catalog's course file.
func (cat *Catalog) Persist() error {
	cat.mu.Lock()
	defer cat.mu.Unlock()
	return cat.cur.Load().Save(cat.path)
}

func (cat *Catalog) Replace(c *Course) error {
	if c == nil || len(c.Topics) == 0 {
		return ErrEmptyCourse
	}
	cat.mu.Lock()
	defer cat.mu.Unlock()
	cat.cur.Store(c)
	return nil
}

func (cat *Catalog) edit(fn func(c *Course) error) error {
	cat.mu.Lock()
	defer cat.mu.Unlock()
	next := cat.cur.Load().Clone()
	if err := fn(next); err != nil {
		return err
	}
	cat.cur.Store(next)
	return nil
}

func (cat *Catalog) AddTopic(t Topic) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("topic title required")
	}
	for _, q := range t.Questions {
		if !editableQuestion(q) {
			return ErrBadQuestion
		}
	}
	return cat.edit(func(c *Course) error {
		c.Topics = append(c.Topics, t)
		return nil
	})
}

func (cat *Catalog) UpdateTopic(i int, title, content string) error {
	return cat.edit(func(c *Course) error {
		if i < 0 || i >= len(c.Topics) {
			return ErrInvalidIndex
		}
		if strings.TrimSpace(title) == "" {
			return fmt.Errorf("topic title required")
		}
		c.Topics[i].Title = title
		c.Topics[i].Content = content
		return nil
	})
}

func (cat *Catalog) DeleteTopic(i int) error {
	return cat.edit(func(c *Course) error {
		if i < 0 || i >= len(c.Topics) {
			return ErrInvalidIndex
		}
		if len(c.Topics) == 1 {
			return ErrEmptyCourse
		}
		c.Topics = append(c.Topics[:i], c.Topics[i+1:]...)
		return nil
	})
}

func (cat *Catalog) AddQuestion(topic int, q Question) error {
	if !editableQuestion(q) {
		return ErrBadQuestion
	}
	return cat.edit(func(c *Course) error {
		if topic < 0 || topic >= len(c.Topics) {
			return ErrInvalidIndex
		}
		c.Topics[topic].Questions = append(c.Topics[topic].Questions, q)
		return nil
	})
}

func (cat *Catalog) UpdateQuestion(topic, idx int, q Question) error {
	if !editableQuestion(q) {
		return ErrBadQuestion
	}
	return cat.edit(func(c *Course) error {
		if topic < 0 || topic >= len(c.Topics) {
			return ErrInvalidIndex
		}
		if idx < 0 || idx >= len(c.Topics[topic].Questions) {
			return ErrInvalidIndex
		}
		c.Topics[topic].Questions[idx] = q
		return nil
	})
}

func (cat *Catalog) DeleteQuestion(topic, idx int) error {
	return cat.edit(func(c *Course) error {
		if topic < 0 || topic >= len(c.Topics) {
			return ErrInvalidIndex
		}
		qs := c.Topics[topic].Questions
		if idx < 0 || idx >= len(qs) {
			return ErrInvalidIndex
		}
		c.Topics[topic].Questions = append(qs[:idx], qs[idx+1:]...)
		return nil
	})
}

// The runtime engine tolerates corrupt questions; the editor does not create
// them in the first place.
func editableQuestion(q Question) bool {
	return strings.TrimSpace(q.Text) != "" && len(q.Variants) >= 2 && q.HasValidKey()
}
