package store

import (
	"fmt"
	"strings"

	"github.com/skelly-dev/marktree/internal/annotation"
)

// legacyItem is the tree node shape written under LegacyKey. Parents carry
// children, leaves carry a line.
type legacyItem struct {
	Name     string       `json:"name" msgpack:"name"`
	Desc     string       `json:"desc" msgpack:"desc"`
	FullPath string       `json:"fullPath" msgpack:"fullPath"`
	FileLine int          `json:"fileLine" msgpack:"fileLine"`
	Children []legacyItem `json:"children" msgpack:"children"`
}

// MigrationResult summarizes a legacy import.
type MigrationResult struct {
	Migrated bool
	Records  int
	Dropped  int
}

// MigrateLegacy converts the value under LegacyKey into the current layout.
// It runs only when the current key is absent, and removes the legacy key
// once the converted hierarchy has been saved.
func (s *WorkspaceStore) MigrateLegacy() (MigrationResult, error) {
	if s.ws.Has(HierarchyKey) || !s.ws.Has(LegacyKey) {
		return MigrationResult{}, nil
	}

	var items []legacyItem
	if _, err := s.ws.Get(LegacyKey, &items); err != nil {
		s.logger.Printf("warning: discarding unreadable legacy annotations: %v", err)
		if err := s.ws.Delete(LegacyKey); err != nil {
			return MigrationResult{}, fmt.Errorf("failed to remove legacy annotations: %w", err)
		}
		return MigrationResult{}, nil
	}

	h, dropped := convertLegacy(items, s.identity)
	if err := s.Save(h); err != nil {
		return MigrationResult{}, err
	}
	if err := s.ws.Delete(LegacyKey); err != nil {
		return MigrationResult{}, fmt.Errorf("failed to remove legacy annotations: %w", err)
	}
	if dropped > 0 {
		s.logger.Printf("warning: dropped %d invalid legacy annotations", dropped)
	}
	return MigrationResult{Migrated: true, Records: h.Len(), Dropped: dropped}, nil
}

func convertLegacy(items []legacyItem, identity annotation.PathIdentity) (annotation.Hierarchy, int) {
	var h annotation.Hierarchy
	dropped := 0
	for _, parent := range items {
		parentPath := strings.TrimSpace(parent.FullPath)
		if parentPath == "" {
			parentPath = strings.TrimSpace(parent.Name)
		}
		for _, child := range parent.Children {
			path := strings.TrimSpace(child.FullPath)
			if path == "" {
				path = parentPath
			}
			desc := child.Desc
			if strings.TrimSpace(desc) == "" {
				desc = child.Name
			}
			rec, err := annotation.NewRecord(desc, path, child.FileLine)
			if err != nil {
				dropped++
				continue
			}
			if err := h.Insert(identity, rec); err != nil {
				dropped++
			}
		}
	}
	return h, dropped
}
