package store

import (
	"fmt"
	"log"
	"sync"

	"github.com/skelly-dev/marktree/internal/annotation"
	"github.com/skelly-dev/marktree/internal/state"
)

const (
	// HierarchyKey names the persisted hierarchy inside the workspace state.
	HierarchyKey = "marktree.hierarchy"
	// LegacyKey is the key older releases stored their tree under.
	LegacyKey = "TODO_LIST_ITEMS"
)

// Store owns the canonical hierarchy.
type Store interface {
	// Load returns a fresh copy of the hierarchy. Missing or malformed state
	// yields an empty hierarchy.
	Load() annotation.Hierarchy
	// Save replaces the whole persisted hierarchy.
	Save(annotation.Hierarchy) error
}

// WorkspaceStore persists the hierarchy under HierarchyKey.
type WorkspaceStore struct {
	ws       *state.Workspace
	identity annotation.PathIdentity
	logger   *log.Logger
}

func NewWorkspaceStore(ws *state.Workspace, identity annotation.PathIdentity, logger *log.Logger) *WorkspaceStore {
	if logger == nil {
		logger = log.New(log.Writer(), "", 0)
	}
	return &WorkspaceStore{ws: ws, identity: identity, logger: logger}
}

func (s *WorkspaceStore) Load() annotation.Hierarchy {
	var h annotation.Hierarchy
	ok, err := s.ws.Get(HierarchyKey, &h)
	if !ok {
		return annotation.Hierarchy{}
	}
	if err != nil {
		s.logger.Printf("warning: ignoring unreadable annotation state: %v", err)
		return annotation.Hierarchy{}
	}
	if err := h.Validate(s.identity); err != nil {
		s.logger.Printf("warning: ignoring invalid annotation state: %v", err)
		return annotation.Hierarchy{}
	}
	if len(h.Groups) == 0 {
		return annotation.Hierarchy{}
	}
	return h
}

func (s *WorkspaceStore) Save(h annotation.Hierarchy) error {
	if err := s.ws.Update(HierarchyKey, h); err != nil {
		return fmt.Errorf("failed to save annotations: %w", err)
	}
	return nil
}

// MemoryStore keeps the hierarchy in memory. It copies on every load and
// save so callers never share slices with it.
type MemoryStore struct {
	mu    sync.Mutex
	h     annotation.Hierarchy
	saves int
}

func NewMemoryStore(initial annotation.Hierarchy) *MemoryStore {
	return &MemoryStore{h: initial.Clone()}
}

func (m *MemoryStore) Load() annotation.Hierarchy {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.h.Clone()
}

func (m *MemoryStore) Save(h annotation.Hierarchy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.h = h.Clone()
	m.saves++
	return nil
}

// Saves reports how many times Save has been called.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
