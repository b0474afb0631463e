package host

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/skelly-dev/marktree/internal/fileutil"
	"github.com/skelly-dev/marktree/internal/languages"
)

// Files is a TextHost backed by files on disk. The active document is
// whatever was last focused or revealed.
type Files struct {
	mu     sync.Mutex
	active string
	line   int

	editor string
	run    func(ctx context.Context, argv []string) error
}

// NewFiles returns a host that launches editor to reveal locations. The
// editor template may use {file} and {line} (one-based); an empty template
// only checks that the location exists.
func NewFiles(editor string) *Files {
	return &Files{editor: strings.TrimSpace(editor), run: runEditor}
}

// Focus makes path the active document with the cursor on line.
func (f *Files) Focus(path string, line int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = path
	f.line = line
}

func (f *Files) CurrentSelectionLine() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.line
}

func (f *Files) ActiveDocument() (string, string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active == "" {
		return "", "", false
	}
	return f.active, languages.FromPath(f.active), true
}

// OpenAndReveal fails only when path cannot be read. A line past the end of
// the file reveals the last line, so a truncated file still opens.
func (f *Files) OpenAndReveal(ctx context.Context, path string, line int) error {
	lines, err := readLines(path)
	if err != nil {
		return err
	}
	if line < 0 {
		return fmt.Errorf("%s:%d: %w", path, line+1, ErrLineOutOfRange)
	}
	if line >= len(lines) {
		line = max(len(lines)-1, 0)
	}
	if f.editor != "" {
		if err := f.run(ctx, EditorCommand(f.editor, path, line)); err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
	}
	f.Focus(path, line)
	return nil
}

func (f *Files) LineText(_ context.Context, path string, line int) (string, error) {
	lines, err := readLines(path)
	if err != nil {
		return "", err
	}
	if line < 0 || line >= len(lines) {
		return "", fmt.Errorf("%s:%d: %w", path, line+1, ErrLineOutOfRange)
	}
	return lines[line], nil
}

func (f *Files) InsertTextAtLineStart(_ context.Context, line int, text string) error {
	path, _, ok := f.ActiveDocument()
	if !ok {
		return ErrNoActiveDocument
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	updated := InsertAtLine(string(content), line, text)
	if err := fileutil.WriteFileAtomic(path, []byte(updated), info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// InsertAtLine inserts text at the start of line. Lines past the end append
// to the content, adding a newline first when the content lacks one.
func InsertAtLine(content string, line int, text string) string {
	if line < 0 {
		line = 0
	}
	offset := 0
	for i := 0; i < line; i++ {
		next := strings.IndexByte(content[offset:], '\n')
		if next < 0 {
			if content != "" && !strings.HasSuffix(content, "\n") {
				return content + "\n" + text
			}
			return content + text
		}
		offset += next + 1
	}
	return content[:offset] + text + content[offset:]
}

// EditorCommand expands an editor template into argv.
func EditorCommand(template, path string, line int) []string {
	fields := strings.Fields(template)
	hasFile := false
	for i, field := range fields {
		if strings.Contains(field, "{file}") {
			hasFile = true
		}
		field = strings.ReplaceAll(field, "{file}", path)
		field = strings.ReplaceAll(field, "{line}", strconv.Itoa(line+1))
		fields[i] = field
	}
	if !hasFile {
		fields = append(fields, path)
	}
	return fields
}

func runEditor(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("empty editor command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func readLines(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return fileutil.SplitLines(string(content)), nil
}
