package tree

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/skelly-dev/marktree/internal/annotation"
	"github.com/skelly-dev/marktree/internal/store"
)

// Item is one row of the tree as a presentation layer sees it.
type Item struct {
	Node        annotation.Node
	Label       string
	Description string
	Tooltip     string
	Collapsible bool
}

// Producer answers hierarchy queries by reading the store on every call.
// It never mutates the store and only signals when Refresh is called.
type Producer struct {
	store store.Store

	mu          sync.Mutex
	nextID      int
	subscribers map[int]func()
}

func NewProducer(s store.Store) *Producer {
	return &Producer{
		store:       s,
		subscribers: make(map[int]func()),
	}
}

// Roots returns one item per file group in persisted order.
func (p *Producer) Roots() []Item {
	h := p.store.Load()
	items := make([]Item, 0, len(h.Groups))
	for _, g := range h.Groups {
		items = append(items, groupItem(g))
	}
	return items
}

// Children returns the records of a group item. Record items have none.
func (p *Producer) Children(parent Item) []Item {
	switch parent.Node.Kind {
	case annotation.KindGroup:
		if parent.Node.Group == nil {
			return nil
		}
		return p.childrenOf(parent.Node.Group.FilePath)
	case annotation.KindRecord:
		return nil
	default:
		return nil
	}
}

func (p *Producer) childrenOf(path string) []Item {
	h := p.store.Load()
	// Group paths are stored cleaned, so exact identity finds the same group
	// the roots query produced.
	g, ok := h.Group(annotation.IdentityExact, path)
	if !ok {
		return nil
	}
	items := make([]Item, 0, len(g.Children))
	for _, rec := range g.Children {
		items = append(items, recordItem(rec))
	}
	return items
}

// Subscribe registers fn for refresh signals and returns a function that
// removes it.
func (p *Producer) Subscribe(fn func()) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.subscribers[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subscribers, id)
	}
}

// Refresh tells every subscriber to re-query.
func (p *Producer) Refresh() {
	p.mu.Lock()
	ids := make([]int, 0, len(p.subscribers))
	for id := range p.subscribers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, p.subscribers[id])
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func groupItem(g annotation.FileGroup) Item {
	return Item{
		Node:        annotation.GroupNode(g),
		Label:       BaseName(g.FilePath),
		Tooltip:     g.FilePath,
		Collapsible: true,
	}
}

// recordItem trims the description for display only; captured records keep
// the raw line text.
func recordItem(rec annotation.Record) Item {
	desc := strings.TrimSpace(rec.Description)
	return Item{
		Node:        annotation.RecordNode(rec),
		Label:       fmt.Sprintf("Line %d: %s", rec.Line+1, desc),
		Description: desc,
		Tooltip:     fmt.Sprintf("%s:%d", rec.FilePath, rec.Line+1),
	}
}

// BaseName returns the last path segment, treating both separators alike so
// paths recorded on another OS still label correctly.
func BaseName(path string) string {
	trimmed := strings.TrimRight(path, `/\`)
	if trimmed == "" {
		return path
	}
	if idx := strings.LastIndexAny(trimmed, `/\`); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}
