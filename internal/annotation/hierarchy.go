package annotation

import "fmt"

// Hierarchy is the ordered list of file groups. Each group holds at least one
// record and no two groups share a path key.
type Hierarchy struct {
	Groups []FileGroup `json:"groups" msgpack:"groups"`
}

func (h Hierarchy) Len() int {
	n := 0
	for _, g := range h.Groups {
		n += len(g.Children)
	}
	return n
}

func (h Hierarchy) IsEmpty() bool {
	return len(h.Groups) == 0
}

// Records flattens the hierarchy in display order.
func (h Hierarchy) Records() []Record {
	out := make([]Record, 0, h.Len())
	for _, g := range h.Groups {
		out = append(out, g.Children...)
	}
	return out
}

// Clone returns a deep copy so callers never share child slices with the store.
func (h Hierarchy) Clone() Hierarchy {
	if h.Groups == nil {
		return Hierarchy{}
	}
	out := Hierarchy{Groups: make([]FileGroup, len(h.Groups))}
	for i, g := range h.Groups {
		out.Groups[i] = FileGroup{
			FilePath: g.FilePath,
			Children: append([]Record(nil), g.Children...),
		}
	}
	return out
}

func (h Hierarchy) indexOf(id PathIdentity, path string) int {
	key := id.Key(path)
	for i, g := range h.Groups {
		if id.Key(g.FilePath) == key {
			return i
		}
	}
	return -1
}

// Group looks up the group for path.
func (h Hierarchy) Group(id PathIdentity, path string) (FileGroup, bool) {
	idx := h.indexOf(id, path)
	if idx < 0 {
		return FileGroup{}, false
	}
	return h.Groups[idx], true
}

// Insert appends rec to the group for its path, creating the group at the end
// of the roots when none exists yet.
func (h *Hierarchy) Insert(id PathIdentity, rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	rec.FilePath = cleanPath(rec.FilePath)
	idx := h.indexOf(id, rec.FilePath)
	if idx < 0 {
		h.Groups = append(h.Groups, FileGroup{FilePath: rec.FilePath})
		idx = len(h.Groups) - 1
	}
	h.Groups[idx].Children = append(h.Groups[idx].Children, rec)
	return nil
}

// RemoveGroup drops the whole group for path.
func (h *Hierarchy) RemoveGroup(id PathIdentity, path string) bool {
	idx := h.indexOf(id, path)
	if idx < 0 {
		return false
	}
	h.Groups = append(h.Groups[:idx], h.Groups[idx+1:]...)
	return true
}

// RemoveRecord drops the first record on line in path's group and prunes the
// group once it is empty.
func (h *Hierarchy) RemoveRecord(id PathIdentity, path string, line int) bool {
	idx := h.indexOf(id, path)
	if idx < 0 {
		return false
	}
	group := &h.Groups[idx]
	for i, child := range group.Children {
		if child.Line != line {
			continue
		}
		group.Children = append(group.Children[:i], group.Children[i+1:]...)
		if len(group.Children) == 0 {
			h.Groups = append(h.Groups[:idx], h.Groups[idx+1:]...)
		}
		return true
	}
	return false
}

// Remove deletes whatever node names. Unknown kinds and missing targets are
// no-ops.
func (h *Hierarchy) Remove(id PathIdentity, node Node) bool {
	switch node.Kind {
	case KindGroup:
		if node.Group == nil {
			return false
		}
		return h.RemoveGroup(id, node.Group.FilePath)
	case KindRecord:
		if node.Record == nil {
			return false
		}
		return h.RemoveRecord(id, node.Record.FilePath, node.Record.Line)
	default:
		return false
	}
}

// Validate reports the first structural violation.
func (h Hierarchy) Validate(id PathIdentity) error {
	seen := make(map[string]bool, len(h.Groups))
	for i, g := range h.Groups {
		if cleanPath(g.FilePath) == "" {
			return fmt.Errorf("group %d: %w", i, ErrEmptyPath)
		}
		key := id.Key(g.FilePath)
		if seen[key] {
			return fmt.Errorf("group %d: duplicate group for %s", i, g.FilePath)
		}
		seen[key] = true
		if len(g.Children) == 0 {
			return fmt.Errorf("group %d: %s has no children", i, g.FilePath)
		}
		for j, child := range g.Children {
			if err := child.Validate(); err != nil {
				return fmt.Errorf("group %d child %d: %w", i, j, err)
			}
			if id.Key(child.FilePath) != key {
				return fmt.Errorf("group %d child %d: path %s does not match group %s", i, j, child.FilePath, g.FilePath)
			}
		}
	}
	return nil
}
