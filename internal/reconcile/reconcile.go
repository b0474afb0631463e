package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/skelly-dev/marktree/internal/annotation"
	"github.com/skelly-dev/marktree/internal/host"
	"github.com/skelly-dev/marktree/internal/prompt"
)

const (
	DefaultMarker       = "todo"
	DefaultGeneratedTag = "[generated]"
)

// Mutator applies hierarchy changes on the reconciler's behalf. The command
// facade implements it so every change goes through the same insert and
// delete paths as explicit commands.
type Mutator interface {
	Insert(ctx context.Context, rec annotation.Record) error
	Delete(ctx context.Context, node annotation.Node) (bool, error)
}

// LineReader reads live document text.
type LineReader interface {
	LineText(ctx context.Context, path string, line int) (string, error)
}

// Options configures marker recognition. Matching is case-insensitive.
type Options struct {
	Marker       string
	GeneratedTag string
}

// Outcome is the result of a staleness check.
type Outcome int

const (
	Fresh Outcome = iota
	Kept
	Deleted
)

func (o Outcome) String() string {
	switch o {
	case Kept:
		return "kept"
	case Deleted:
		return "deleted"
	default:
		return "fresh"
	}
}

type Reconciler struct {
	marker  string
	tag     string
	text    LineReader
	prompt  prompt.Host
	mutator Mutator
}

func New(opts Options, text LineReader, p prompt.Host, m Mutator) *Reconciler {
	marker := strings.ToLower(strings.TrimSpace(opts.Marker))
	if marker == "" {
		marker = DefaultMarker
	}
	tag := strings.ToLower(strings.TrimSpace(opts.GeneratedTag))
	if tag == "" {
		tag = DefaultGeneratedTag
	}
	return &Reconciler{marker: marker, tag: tag, text: text, prompt: p, mutator: m}
}

// Marker returns the lowercased marker token.
func (r *Reconciler) Marker() string {
	return r.marker
}

// IsStale reports whether a record's line lost its marker. Line 0 is never
// stale.
func (r *Reconciler) IsStale(lineText string, line int) bool {
	if line <= 0 {
		return false
	}
	return !strings.Contains(strings.ToLower(lineText), r.marker)
}

// Inspect reads the record's line and reports staleness without prompting.
// A line past the end of the file reads as empty.
func (r *Reconciler) Inspect(ctx context.Context, rec annotation.Record) (bool, error) {
	text, err := r.text.LineText(ctx, rec.FilePath, rec.Line)
	if err != nil {
		if !errors.Is(err, host.ErrLineOutOfRange) {
			return false, err
		}
		text = ""
	}
	return r.IsStale(text, rec.Line), nil
}

// CheckStale offers to delete rec when its line no longer carries the marker.
func (r *Reconciler) CheckStale(ctx context.Context, rec annotation.Record) (Outcome, error) {
	stale, err := r.Inspect(ctx, rec)
	if err != nil {
		return Fresh, fmt.Errorf("failed to check %s: %w", rec, err)
	}
	if !stale {
		return Fresh, nil
	}

	message := fmt.Sprintf("Line %d of %s no longer contains %s. Delete \"%s\" from the list?",
		rec.Line+1, rec.FilePath, strings.ToUpper(r.marker), rec.Description)
	answer, err := r.prompt.Confirm(ctx, message)
	if err != nil {
		return Kept, err
	}
	if answer != prompt.Yes {
		return Kept, nil
	}
	if _, err := r.mutator.Delete(ctx, annotation.RecordNode(rec)); err != nil {
		return Kept, err
	}
	return Deleted, nil
}

// ShouldCapture reports whether text carries the marker and was not written
// by marktree itself.
func (r *Reconciler) ShouldCapture(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, r.marker) && !strings.Contains(lower, r.tag)
}

// Capture offers to track the changed line. It returns true when a record was
// added.
func (r *Reconciler) Capture(ctx context.Context, change host.LineChange) (bool, error) {
	if !r.ShouldCapture(change.NewText) {
		return false, nil
	}

	message := fmt.Sprintf("Add \"%s\" (%s:%d) to the %s list?",
		strings.TrimSpace(change.NewText), change.Path, change.Line+1, strings.ToUpper(r.marker))
	answer, err := r.prompt.Confirm(ctx, message)
	if err != nil {
		return false, err
	}
	if answer != prompt.Yes {
		return false, nil
	}

	rec, err := annotation.NewRecord(change.NewText, change.Path, change.Line)
	if err != nil {
		return false, err
	}
	if err := r.mutator.Insert(ctx, rec); err != nil {
		return false, err
	}
	return true, nil
}

// CaptureAll runs Capture over changes in order and returns how many were
// added. It stops at the first error or when ctx ends.
func (r *Reconciler) CaptureAll(ctx context.Context, changes []host.LineChange) (int, error) {
	added := 0
	for _, change := range changes {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		ok, err := r.Capture(ctx, change)
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}
	return added, nil
}
