package host

import (
	"context"
	"errors"
)

var (
	ErrNoActiveDocument = errors.New("no active document")
	ErrLineOutOfRange   = errors.New("line out of range")
)

// TextHost is the editing surface annotations live in. Lines are zero-based.
type TextHost interface {
	// OpenAndReveal opens path and moves the cursor to line.
	OpenAndReveal(ctx context.Context, path string, line int) error
	// CurrentSelectionLine is the cursor line in the active document.
	CurrentSelectionLine() int
	// ActiveDocument reports the focused file and its language id.
	ActiveDocument() (path, languageID string, ok bool)
	// InsertTextAtLineStart inserts text before line in the active document.
	InsertTextAtLineStart(ctx context.Context, line int, text string) error
	// LineText returns the live text of one line.
	LineText(ctx context.Context, path string, line int) (string, error)
}

// LineChange reports that one line of a document now reads NewText.
type LineChange struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	OldText string `json:"old_text,omitempty"`
	NewText string `json:"new_text"`
}
