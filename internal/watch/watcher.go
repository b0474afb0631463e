package watch

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/skelly-dev/marktree/internal/fileutil"
	"github.com/skelly-dev/marktree/internal/host"
	"github.com/skelly-dev/marktree/internal/ignore"
)

// MaxFileSize bounds the files the watcher snapshots.
const MaxFileSize = 1 << 20

type Options struct {
	Root     string
	Debounce time.Duration
	// Include limits watched files to these doublestar globs, relative to Root.
	// Empty means every file.
	Include []string
	Exclude []string
	// IgnoreRules are gitignore-style rules applied before the globs.
	IgnoreRules []string
	Logger      *log.Logger
}

type fileState struct {
	hash  string
	lines []string
}

// Watcher turns file writes under a root into line changes. It keeps the last
// seen content of every watched file and, once a path has been quiet for the
// debounce interval, emits the lines that changed since then.
type Watcher struct {
	opts    Options
	matcher *ignore.Matcher
	logger  *log.Logger

	snapshots map[string]fileState
	changes   chan []host.LineChange
	ready     chan struct{}
}

func New(opts Options) (*Watcher, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch root: %w", err)
	}
	opts.Root = root
	for _, pattern := range append(append([]string(nil), opts.Include...), opts.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid watch pattern %q", pattern)
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "", 0)
	}
	return &Watcher{
		opts:      opts,
		matcher:   ignore.NewMatcher(opts.IgnoreRules),
		logger:    logger,
		snapshots: make(map[string]fileState),
		changes:   make(chan []host.LineChange),
		ready:     make(chan struct{}),
	}, nil
}

// Changes delivers one batch per settled file. It is closed when Run returns.
func (w *Watcher) Changes() <-chan []host.LineChange {
	return w.changes
}

// Ready is closed once the initial snapshot is taken and writes are being
// observed.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run snapshots the tree, then watches it until ctx ends.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.changes)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addTree(fsw, w.opts.Root); err != nil {
		return err
	}
	close(w.ready)

	pending := make(map[string]struct{})
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(fsw, event) {
				pending[event.Name] = struct{}{}
				timer.Reset(w.opts.Debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Printf("warning: watcher error: %v", err)

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for path := range pending {
				paths = append(paths, path)
			}
			clear(pending)
			sort.Strings(paths)
			for _, path := range paths {
				changes := w.refresh(path)
				if len(changes) == 0 {
					continue
				}
				select {
				case w.changes <- changes:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}

// handleEvent reports whether event should schedule a refresh of its path.
func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event) bool {
	path := event.Name
	// Editors that save by renaming a temp file over the original remove the
	// path first. The snapshot stays until refresh finds the path gone.
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		_, known := w.snapshots[path]
		return known
	}

	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			if err := w.addTree(fsw, path); err != nil {
				w.logger.Printf("warning: %v", err)
			}
		}
		return false
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	return w.shouldWatch(path, false)
}

// addTree watches every directory under dir and snapshots its files.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	visited := make(map[string]bool)
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path != w.opts.Root && !w.shouldWatch(path, true) {
				return filepath.SkipDir
			}
			real, err := filepath.EvalSymlinks(path)
			if err != nil || visited[real] {
				return filepath.SkipDir
			}
			visited[real] = true
			if err := fsw.Add(path); err != nil {
				w.logger.Printf("warning: failed to watch %s: %v", path, err)
			}
			return nil
		}
		if w.shouldWatch(path, false) {
			if err := w.snapshot(path); err != nil {
				w.logger.Printf("warning: failed to read %s: %v", path, err)
			}
		}
		return nil
	})
}

func (w *Watcher) shouldWatch(path string, isDir bool) bool {
	rel, err := filepath.Rel(w.opts.Root, path)
	if err != nil || rel == "." {
		return isDir
	}
	rel = filepath.ToSlash(rel)
	if w.matcher.ShouldIgnore(rel, isDir) {
		return false
	}
	for _, pattern := range w.opts.Exclude {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return false
		}
	}
	if isDir || len(w.opts.Include) == 0 {
		return true
	}
	for _, pattern := range w.opts.Include {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

// snapshot records the current content of path. Binary and oversized files
// are skipped.
func (w *Watcher) snapshot(path string) error {
	data, ok, err := readText(path)
	if err != nil || !ok {
		return err
	}
	w.snapshots[path] = fileState{hash: fileutil.HashBytes(data), lines: fileutil.SplitLines(string(data))}
	return nil
}

// refresh rereads path and diffs it against the stored snapshot.
func (w *Watcher) refresh(path string) []host.LineChange {
	data, ok, err := readText(path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.logger.Printf("warning: failed to read %s: %v", path, err)
		}
		delete(w.snapshots, path)
		return nil
	}
	if !ok {
		return nil
	}

	hash := fileutil.HashBytes(data)
	prev, known := w.snapshots[path]
	if known && prev.hash == hash {
		return nil
	}
	lines := fileutil.SplitLines(string(data))
	w.snapshots[path] = fileState{hash: hash, lines: lines}
	return Diff(path, prev.lines, lines)
}

func readText(path string) ([]byte, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false, err
	}
	if info.IsDir() || info.Size() > MaxFileSize {
		return nil, false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return nil, false, nil
	}
	return data, true, nil
}
