package state

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/skelly-dev/marktree/internal/fileutil"
)

const (
	DefaultDir          = ".marktree"
	CurrentStateVersion = "2"
)

// Workspace is a key/value store scoped to one workspace. Values live in
// memory and every update is written through to disk.
type Workspace struct {
	mu        sync.RWMutex
	path      string
	codec     Codec
	version   string
	updatedAt time.Time
	values    map[string][]byte
}

// Open reads the state file in dir, creating an empty workspace when none exists.
func Open(dir string, codec Codec) (*Workspace, error) {
	ws := Fresh(dir, codec)

	data, err := os.ReadFile(ws.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ws, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	doc, err := ws.codec.decodeDocument(data)
	if err != nil {
		return nil, &CorruptError{Path: ws.path, Err: err}
	}
	migrateState(&doc)

	ws.version = doc.Version
	ws.updatedAt = doc.UpdatedAt
	ws.values = doc.Values
	return ws, nil
}

// Fresh returns an empty workspace for dir without reading the existing file.
// The first update overwrites whatever is on disk.
func Fresh(dir string, codec Codec) *Workspace {
	if codec == nil {
		codec = JSONCodec{}
	}
	return &Workspace{
		path:    filepath.Join(dir, codec.FileName()),
		codec:   codec,
		version: CurrentStateVersion,
		values:  make(map[string][]byte),
	}
}

// NewMemory returns a workspace that never touches disk.
func NewMemory() *Workspace {
	return &Workspace{
		codec:   JSONCodec{},
		version: CurrentStateVersion,
		values:  make(map[string][]byte),
	}
}

func (w *Workspace) Path() string {
	return w.path
}

func (w *Workspace) Codec() Codec {
	return w.codec
}

func (w *Workspace) UpdatedAt() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.updatedAt
}

// Get decodes the value stored under key into out.
func (w *Workspace) Get(key string, out any) (bool, error) {
	w.mu.RLock()
	raw, ok := w.values[key]
	w.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := w.codec.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// Has reports whether key holds a value.
func (w *Workspace) Has(key string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.values[key]
	return ok
}

// Update replaces the value under key and persists the workspace.
func (w *Workspace) Update(key string, value any) error {
	raw, err := w.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	prev, hadPrev := w.values[key]
	w.values[key] = raw
	if err := w.saveLocked(); err != nil {
		if hadPrev {
			w.values[key] = prev
		} else {
			delete(w.values, key)
		}
		return err
	}
	return nil
}

// Delete removes key. Deleting a missing key is a no-op.
func (w *Workspace) Delete(key string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	prev, ok := w.values[key]
	if !ok {
		return nil
	}
	delete(w.values, key)
	if err := w.saveLocked(); err != nil {
		w.values[key] = prev
		return err
	}
	return nil
}

// Keys returns the stored keys in sorted order.
func (w *Workspace) Keys() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	keys := make([]string, 0, len(w.values))
	for key := range w.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (w *Workspace) saveLocked() error {
	w.updatedAt = time.Now().UTC()
	if w.path == "" {
		return nil
	}
	if w.version == "" {
		w.version = CurrentStateVersion
	}

	data, err := w.codec.encodeDocument(document{
		Version:   w.version,
		UpdatedAt: w.updatedAt,
		Values:    w.values,
	})
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := fileutil.WriteFileAtomic(w.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}

// CorruptError reports a state file that exists but cannot be decoded.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt state file %s: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

func migrateState(doc *document) {
	if doc.Values == nil {
		doc.Values = make(map[string][]byte)
	}

	switch doc.Version {
	case "", "1":
		// Version 1 files carried the same value layout without a version stamp.
		doc.Version = CurrentStateVersion
	case CurrentStateVersion:
		// no-op
	default:
		// Keep unknown versions untouched but ensure required maps are initialized.
	}
}
