package facade

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/skelly-dev/marktree/internal/annotation"
	"github.com/skelly-dev/marktree/internal/host"
	"github.com/skelly-dev/marktree/internal/languages"
	"github.com/skelly-dev/marktree/internal/prompt"
	"github.com/skelly-dev/marktree/internal/reconcile"
	"github.com/skelly-dev/marktree/internal/store"
)

const (
	AddQuestion      = "Add TODO?"
	DescriptionQuery = "What do you need TODO?"
	DescriptionHint  = "Description"
)

// Refresher is signaled after every successful mutation.
type Refresher interface {
	Refresh()
}

type Options struct {
	Identity     annotation.PathIdentity
	Marker       string
	GeneratedTag string
	Logger       *log.Logger
}

// Facade runs the user-facing commands. Every load-modify-save cycle holds
// mu. Refresh signals are delivered after mu is released, one per applied
// mutation, by whichever caller is draining. Prompts never run under mu.
type Facade struct {
	mu        sync.Mutex
	pending   int
	signaling bool

	store      store.Store
	refresher  Refresher
	text       host.TextHost
	prompt     prompt.Host
	reconciler *reconcile.Reconciler
	identity   annotation.PathIdentity
	marker     string
	tag        string
	logger     *log.Logger
}

func New(s store.Store, r Refresher, text host.TextHost, p prompt.Host, opts Options) *Facade {
	marker := strings.TrimSpace(opts.Marker)
	if marker == "" {
		marker = reconcile.DefaultMarker
	}
	tag := strings.TrimSpace(opts.GeneratedTag)
	if tag == "" {
		tag = reconcile.DefaultGeneratedTag
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "", 0)
	}

	f := &Facade{
		store:     s,
		refresher: r,
		text:      text,
		prompt:    p,
		identity:  opts.Identity,
		marker:    strings.ToUpper(marker),
		tag:       strings.ToUpper(tag),
		logger:    logger,
	}
	f.reconciler = reconcile.New(reconcile.Options{Marker: marker, GeneratedTag: tag}, text, p, f)
	return f
}

func (f *Facade) Reconciler() *reconcile.Reconciler {
	return f.reconciler
}

// Snapshot returns a read copy of the current hierarchy.
func (f *Facade) Snapshot() annotation.Hierarchy {
	return f.store.Load()
}

// CommentText is the literal line Add writes into a document.
func (f *Facade) CommentText(languageID, description string) string {
	body := fmt.Sprintf("%s %s: %s", f.tag, f.marker, description)
	return languages.DelimiterFor(languageID).Wrap(body) + "\n"
}

// Add asks for confirmation and a description, writes the comment above the
// cursor line of the active document and records it. It returns false when
// the user backs out.
func (f *Facade) Add(ctx context.Context) (annotation.Record, bool, error) {
	path, languageID, ok := f.text.ActiveDocument()
	if !ok {
		return annotation.Record{}, false, host.ErrNoActiveDocument
	}

	answer, err := f.prompt.Confirm(ctx, AddQuestion)
	if err != nil || answer != prompt.Yes {
		return annotation.Record{}, false, err
	}
	desc, ok, err := f.prompt.InputText(ctx, DescriptionQuery, DescriptionHint)
	if err != nil || !ok {
		return annotation.Record{}, false, err
	}
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return annotation.Record{}, false, nil
	}

	line := f.text.CurrentSelectionLine()
	rec, err := annotation.NewRecord(desc, path, line)
	if err != nil {
		return annotation.Record{}, false, err
	}
	if err := f.text.InsertTextAtLineStart(ctx, line, f.CommentText(languageID, desc)); err != nil {
		return annotation.Record{}, false, fmt.Errorf("failed to insert comment: %w", err)
	}
	if err := f.Insert(ctx, rec); err != nil {
		f.logger.Printf("warning: comment written to %s:%d but not tracked: %v", path, line+1, err)
		return annotation.Record{}, false, err
	}
	return rec, true, nil
}

// Insert adds rec under its file group, creating the group if needed.
func (f *Facade) Insert(_ context.Context, rec annotation.Record) error {
	_, err := f.mutate(func(h *annotation.Hierarchy) (bool, error) {
		if err := h.Insert(f.identity, rec); err != nil {
			return false, err
		}
		return true, nil
	})
	return err
}

// Delete removes a group or a record. A missing target changes nothing and
// is not an error.
func (f *Facade) Delete(_ context.Context, node annotation.Node) (bool, error) {
	return f.mutate(func(h *annotation.Hierarchy) (bool, error) {
		return h.Remove(f.identity, node), nil
	})
}

// Clear empties the hierarchy without asking.
func (f *Facade) Clear(_ context.Context) error {
	_, err := f.mutate(func(h *annotation.Hierarchy) (bool, error) {
		*h = annotation.Hierarchy{}
		return true, nil
	})
	return err
}

// NavigateResult describes what Navigate did.
type NavigateResult struct {
	Opened  bool
	Outcome reconcile.Outcome
}

// Navigate reveals rec in the host and then checks it for staleness. A file
// that cannot be opened is reported to the user and leaves rec untouched.
func (f *Facade) Navigate(ctx context.Context, rec annotation.Record) (NavigateResult, error) {
	if err := f.text.OpenAndReveal(ctx, rec.FilePath, rec.Line); err != nil {
		f.prompt.Notify(ctx, prompt.LevelError, fmt.Sprintf("Cannot open %s: %v", rec.FilePath, err))
		return NavigateResult{}, nil
	}
	outcome, err := f.reconciler.CheckStale(ctx, rec)
	if err != nil {
		return NavigateResult{Opened: true}, err
	}
	return NavigateResult{Opened: true, Outcome: outcome}, nil
}

// HandleEdit offers every changed line that carries the marker for capture.
func (f *Facade) HandleEdit(ctx context.Context, changes []host.LineChange) (int, error) {
	return f.reconciler.CaptureAll(ctx, changes)
}

// Untracked drops changes whose file and line already have a record.
func (f *Facade) Untracked(changes []host.LineChange) []host.LineChange {
	h := f.store.Load()
	out := make([]host.LineChange, 0, len(changes))
	for _, change := range changes {
		if !f.tracked(h, change.Path, change.Line) {
			out = append(out, change)
		}
	}
	return out
}

func (f *Facade) tracked(h annotation.Hierarchy, path string, line int) bool {
	g, ok := h.Group(f.identity, path)
	if !ok {
		return false
	}
	for _, rec := range g.Children {
		if rec.Line == line {
			return true
		}
	}
	return false
}

// Finding is the staleness verdict for one record.
type Finding struct {
	Record annotation.Record `json:"record"`
	Stale  bool              `json:"stale"`
	Error  string            `json:"error,omitempty"`
}

// Audit inspects every record without prompting.
func (f *Facade) Audit(ctx context.Context) []Finding {
	records := f.store.Load().Records()
	findings := make([]Finding, 0, len(records))
	for _, rec := range records {
		stale, err := f.reconciler.Inspect(ctx, rec)
		finding := Finding{Record: rec, Stale: stale}
		if err != nil {
			finding.Error = err.Error()
		}
		findings = append(findings, finding)
	}
	return findings
}

func (f *Facade) mutate(fn func(h *annotation.Hierarchy) (bool, error)) (bool, error) {
	f.mu.Lock()
	h := f.store.Load()
	changed, err := fn(&h)
	if err == nil && changed {
		err = f.store.Save(h)
	}
	if err != nil || !changed {
		f.mu.Unlock()
		return false, err
	}
	f.pending++
	draining := f.signaling
	f.signaling = true
	f.mu.Unlock()

	if !draining {
		f.drainRefreshes()
	}
	return true, nil
}

// drainRefreshes delivers queued signals without holding mu, so a subscriber
// may read or mutate through the facade. Mutations made while draining are
// signaled by the same loop.
func (f *Facade) drainRefreshes() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for f.pending > 0 {
		f.pending--
		f.mu.Unlock()
		if f.refresher != nil {
			f.refresher.Refresh()
		}
		f.mu.Lock()
	}
	f.signaling = false
}
