package annotation

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrEmptyDescription = errors.New("annotation description is empty")
	ErrNegativeLine     = errors.New("annotation line is negative")
	ErrEmptyPath        = errors.New("annotation file path is empty")
)

// Record is a single tracked line. Line is zero-based.
type Record struct {
	Description string `json:"description" msgpack:"description"`
	FilePath    string `json:"file_path" msgpack:"file_path"`
	Line        int    `json:"line" msgpack:"line"`
}

// NewRecord validates its input and returns a record with a cleaned path.
func NewRecord(description, filePath string, line int) (Record, error) {
	rec := Record{
		Description: description,
		FilePath:    cleanPath(filePath),
		Line:        line,
	}
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (r Record) Validate() error {
	if strings.TrimSpace(r.Description) == "" {
		return ErrEmptyDescription
	}
	if r.Line < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeLine, r.Line)
	}
	if strings.TrimSpace(r.FilePath) == "" {
		return ErrEmptyPath
	}
	return nil
}

func (r Record) String() string {
	return fmt.Sprintf("%s:%d: %s", r.FilePath, r.Line+1, r.Description)
}

// FileGroup holds every record for one file in creation order.
type FileGroup struct {
	FilePath string   `json:"file_path" msgpack:"file_path"`
	Children []Record `json:"children" msgpack:"children"`
}

// NodeKind discriminates the two levels of the hierarchy.
type NodeKind int

const (
	KindGroup NodeKind = iota + 1
	KindRecord
)

func (k NodeKind) String() string {
	switch k {
	case KindGroup:
		return "file"
	case KindRecord:
		return "item"
	default:
		return "unknown"
	}
}

// Node is either a file group or a record. Exactly one pointer is set,
// matching Kind.
type Node struct {
	Kind   NodeKind
	Group  *FileGroup
	Record *Record
}

func GroupNode(g FileGroup) Node {
	return Node{Kind: KindGroup, Group: &g}
}

func RecordNode(r Record) Node {
	return Node{Kind: KindRecord, Record: &r}
}

// FilePath returns the path the node belongs to.
func (n Node) FilePath() string {
	switch n.Kind {
	case KindGroup:
		if n.Group != nil {
			return n.Group.FilePath
		}
	case KindRecord:
		if n.Record != nil {
			return n.Record.FilePath
		}
	}
	return ""
}

// PathIdentity decides when two paths name the same file group.
type PathIdentity int

const (
	// IdentityExact compares cleaned paths byte for byte.
	IdentityExact PathIdentity = iota
	// IdentityFold additionally ignores case, for case-insensitive filesystems.
	IdentityFold
)

func ParsePathIdentity(value string) (PathIdentity, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "exact":
		return IdentityExact, nil
	case "fold":
		return IdentityFold, nil
	default:
		return IdentityExact, fmt.Errorf("unsupported path identity %q (supported: exact, fold)", value)
	}
}

func (p PathIdentity) String() string {
	if p == IdentityFold {
		return "fold"
	}
	return "exact"
}

// Key returns the grouping key for path.
func (p PathIdentity) Key(path string) string {
	key := cleanPath(path)
	if p == IdentityFold {
		key = strings.ToLower(key)
	}
	return key
}

func (p PathIdentity) Same(a, b string) bool {
	return p.Key(a) == p.Key(b)
}

func cleanPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	return filepath.Clean(path)
}
