package facade

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skelly-dev/marktree/internal/annotation"
	"github.com/skelly-dev/marktree/internal/host"
	"github.com/skelly-dev/marktree/internal/prompt"
	"github.com/skelly-dev/marktree/internal/reconcile"
	"github.com/skelly-dev/marktree/internal/store"
	"github.com/skelly-dev/marktree/internal/tree"
)

type scriptedPrompt struct {
	mu      sync.Mutex
	answers []prompt.Answer
	inputs  []string
	asked   []string
	notices []string
}

func (p *scriptedPrompt) Confirm(_ context.Context, message string) (prompt.Answer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.asked = append(p.asked, message)
	if len(p.answers) == 0 {
		return prompt.Dismissed, nil
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}

func (p *scriptedPrompt) InputText(_ context.Context, message, _ string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.asked = append(p.asked, message)
	if len(p.inputs) == 0 {
		return "", false, nil
	}
	text := p.inputs[0]
	p.inputs = p.inputs[1:]
	return text, true, nil
}

func (p *scriptedPrompt) Notify(_ context.Context, _ prompt.Level, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notices = append(p.notices, message)
}

type fixture struct {
	facade    *Facade
	store     *store.MemoryStore
	producer  *tree.Producer
	files     *host.Files
	prompt    *scriptedPrompt
	refreshes *int
	dir       string
}

func newFixture(t *testing.T, initial annotation.Hierarchy) fixture {
	t.Helper()
	s := store.NewMemoryStore(initial)
	producer := tree.NewProducer(s)
	refreshes := 0
	unsubscribe := producer.Subscribe(func() { refreshes++ })
	t.Cleanup(unsubscribe)

	files := host.NewFiles("")
	p := &scriptedPrompt{}
	return fixture{
		facade:    New(s, producer, files, p, Options{}),
		store:     s,
		producer:  producer,
		files:     files,
		prompt:    p,
		refreshes: &refreshes,
		dir:       t.TempDir(),
	}
}

func (f fixture) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func record(desc, path string, line int) annotation.Record {
	return annotation.Record{Description: desc, FilePath: path, Line: line}
}

func TestAddInsertsCommentAndRecord(t *testing.T) {
	f := newFixture(t, annotation.Hierarchy{})
	path := f.writeFile(t, "main.go", "package main\n\nfunc main() {}\n")
	f.files.Focus(path, 2)
	f.prompt.answers = []prompt.Answer{prompt.Yes}
	f.prompt.inputs = []string{"  wire flags  "}

	rec, added, err := f.facade.Add(context.Background())
	require.NoError(t, err)
	require.True(t, added)
	assert.Equal(t, record("wire flags", path, 2), rec)
	assert.Equal(t, []string{AddQuestion, DescriptionQuery}, f.prompt.asked)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "package main\n\n// [GENERATED] TODO: wire flags\nfunc main() {}\n", string(data))

	h := f.store.Load()
	require.Len(t, h.Groups, 1)
	assert.Equal(t, []annotation.Record{rec}, h.Groups[0].Children)
	assert.Equal(t, 1, *f.refreshes)
}

func TestAddUsesLanguageDelimiters(t *testing.T) {
	f := newFixture(t, annotation.Hierarchy{})
	assert.Equal(t, "# [GENERATED] TODO: x\n", f.facade.CommentText("python", "x"))
	assert.Equal(t, "<!-- [GENERATED] TODO: x -->\n", f.facade.CommentText("html", "x"))
	assert.Equal(t, "// [GENERATED] TODO: x\n", f.facade.CommentText("unknown-lang", "x"))
}

func TestAddBacksOutSilently(t *testing.T) {
	cases := map[string]struct {
		answers []prompt.Answer
		inputs  []string
	}{
		"declined":          {answers: []prompt.Answer{prompt.No}},
		"dismissed":         {answers: []prompt.Answer{prompt.Dismissed}},
		"input cancelled":   {answers: []prompt.Answer{prompt.Yes}},
		"empty description": {answers: []prompt.Answer{prompt.Yes}, inputs: []string{"   "}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, annotation.Hierarchy{})
			content := "package main\n"
			path := f.writeFile(t, "main.go", content)
			f.files.Focus(path, 0)
			f.prompt.answers = tc.answers
			f.prompt.inputs = tc.inputs

			_, added, err := f.facade.Add(context.Background())
			require.NoError(t, err)
			assert.False(t, added)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, content, string(data))
			assert.True(t, f.store.Load().IsEmpty())
			assert.Zero(t, f.store.Saves())
			assert.Zero(t, *f.refreshes)
		})
	}
}

func TestAddWithoutActiveDocument(t *testing.T) {
	f := newFixture(t, annotation.Hierarchy{})
	_, added, err := f.facade.Add(context.Background())
	assert.ErrorIs(t, err, host.ErrNoActiveDocument)
	assert.False(t, added)
	assert.Empty(t, f.prompt.asked)
}

func TestInsertDeleteScenario(t *testing.T) {
	f := newFixture(t, annotation.Hierarchy{})
	ctx := context.Background()
	first := record("fix bug", "/ws/a.ts", 3)
	second := record("cleanup", "/ws/a.ts", 10)

	require.NoError(t, f.facade.Insert(ctx, first))
	require.NoError(t, f.facade.Insert(ctx, second))
	roots := f.producer.Roots()
	require.Len(t, roots, 1)
	assert.Len(t, f.producer.Children(roots[0]), 2)

	removed, err := f.facade.Delete(ctx, annotation.RecordNode(first))
	require.NoError(t, err)
	assert.True(t, removed)
	children := f.producer.Children(f.producer.Roots()[0])
	require.Len(t, children, 1)
	assert.Equal(t, "Line 11: cleanup", children[0].Label)

	removed, err = f.facade.Delete(ctx, annotation.RecordNode(second))
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, f.producer.Roots())
	assert.Equal(t, 4, *f.refreshes)
}

func TestDeleteGroupRemovesAllRecords(t *testing.T) {
	initial := annotation.Hierarchy{Groups: []annotation.FileGroup{
		{FilePath: "/ws/a.ts", Children: []annotation.Record{record("one", "/ws/a.ts", 1), record("two", "/ws/a.ts", 2)}},
		{FilePath: "/ws/b.ts", Children: []annotation.Record{record("three", "/ws/b.ts", 1)}},
	}}
	f := newFixture(t, initial)

	removed, err := f.facade.Delete(context.Background(), annotation.GroupNode(initial.Groups[0]))
	require.NoError(t, err)
	assert.True(t, removed)

	h := f.store.Load()
	require.Len(t, h.Groups, 1)
	assert.Equal(t, "/ws/b.ts", h.Groups[0].FilePath)
}

func TestDeleteMissingTargetDoesNotSave(t *testing.T) {
	f := newFixture(t, annotation.Hierarchy{})
	removed, err := f.facade.Delete(context.Background(), annotation.RecordNode(record("ghost", "/ws/x.ts", 1)))
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Zero(t, f.store.Saves())
	assert.Zero(t, *f.refreshes)
}

func TestClearFiresOneRefresh(t *testing.T) {
	initial := annotation.Hierarchy{Groups: []annotation.FileGroup{
		{FilePath: "/ws/a.ts", Children: []annotation.Record{record("one", "/ws/a.ts", 1)}},
		{FilePath: "/ws/b.ts", Children: []annotation.Record{record("two", "/ws/b.ts", 4)}},
	}}
	f := newFixture(t, initial)

	require.NoError(t, f.facade.Clear(context.Background()))
	assert.True(t, f.store.Load().IsEmpty())
	assert.Equal(t, 1, *f.refreshes)
	assert.Equal(t, 1, f.store.Saves())
}

func TestNavigateOpensAndOffersStaleDeletion(t *testing.T) {
	f := newFixture(t, annotation.Hierarchy{})
	path := f.writeFile(t, "a.go", "package a\n\nvar x = 1\n")
	rec := record("gone", path, 2)
	require.NoError(t, f.facade.Insert(context.Background(), rec))
	f.prompt.answers = []prompt.Answer{prompt.Yes}

	result, err := f.facade.Navigate(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, result.Opened)
	assert.Equal(t, reconcile.Deleted, result.Outcome)
	assert.True(t, f.store.Load().IsEmpty())

	active, _, ok := f.files.ActiveDocument()
	require.True(t, ok)
	assert.Equal(t, path, active)
	assert.Equal(t, 2, f.files.CurrentSelectionLine())
}

func TestNavigateFreshRecordDoesNotPrompt(t *testing.T) {
	f := newFixture(t, annotation.Hierarchy{})
	path := f.writeFile(t, "a.go", "package a\n// TODO: keep\n")

	result, err := f.facade.Navigate(context.Background(), record("keep", path, 1))
	require.NoError(t, err)
	assert.Equal(t, reconcile.Fresh, result.Outcome)
	assert.Empty(t, f.prompt.asked)
}

func TestNavigateMissingFileNotifies(t *testing.T) {
	f := newFixture(t, annotation.Hierarchy{})
	rec := record("lost", filepath.Join(f.dir, "missing.go"), 3)
	require.NoError(t, f.facade.Insert(context.Background(), rec))

	result, err := f.facade.Navigate(context.Background(), rec)
	require.NoError(t, err)
	assert.False(t, result.Opened)
	require.Len(t, f.prompt.notices, 1)
	assert.Contains(t, f.prompt.notices[0], "missing.go")
	assert.Equal(t, 1, f.store.Load().Len())
}

func TestHandleEditCapturesMarkedLines(t *testing.T) {
	f := newFixture(t, annotation.Hierarchy{})
	f.prompt.answers = []prompt.Answer{prompt.Yes}

	added, err := f.facade.HandleEdit(context.Background(), []host.LineChange{
		{Path: "/ws/a.go", Line: 4, NewText: "// TODO: handle errors"},
		{Path: "/ws/a.go", Line: 5, NewText: "// [GENERATED] TODO: mine"},
		{Path: "/ws/a.go", Line: 6, NewText: "x := 1"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Len(t, f.prompt.asked, 1)
	assert.Equal(t, []annotation.Record{record("// TODO: handle errors", "/ws/a.go", 4)}, f.store.Load().Records())
}

func TestUntrackedFiltersKnownLines(t *testing.T) {
	f := newFixture(t, annotation.Hierarchy{})
	require.NoError(t, f.facade.Insert(context.Background(), record("known", "/ws/a.go", 4)))

	got := f.facade.Untracked([]host.LineChange{
		{Path: "/ws/a.go", Line: 4, NewText: "// TODO: known"},
		{Path: "/ws/a.go", Line: 8, NewText: "// TODO: new"},
		{Path: "/ws/b.go", Line: 4, NewText: "// TODO: other"},
	})
	require.Len(t, got, 2)
	assert.Equal(t, 8, got[0].Line)
	assert.Equal(t, "/ws/b.go", got[1].Path)
}

func TestAuditReportsStaleRecords(t *testing.T) {
	f := newFixture(t, annotation.Hierarchy{})
	path := f.writeFile(t, "a.go", "// TODO: header\npackage a\n// todo: lower\n")
	ctx := context.Background()
	require.NoError(t, f.facade.Insert(ctx, record("header", path, 0)))
	require.NoError(t, f.facade.Insert(ctx, record("moved", path, 1)))
	require.NoError(t, f.facade.Insert(ctx, record("lower", path, 2)))
	require.NoError(t, f.facade.Insert(ctx, record("past end", path, 40)))

	findings := f.facade.Audit(ctx)
	require.Len(t, findings, 4)
	stale := map[string]bool{}
	for _, finding := range findings {
		assert.Empty(t, finding.Error)
		stale[finding.Record.Description] = finding.Stale
	}
	assert.Equal(t, map[string]bool{"header": false, "moved": true, "lower": false, "past end": true}, stale)
	assert.Empty(t, f.prompt.asked)
}

func TestNavigatePastEndOfFileOffersStaleDeletion(t *testing.T) {
	f := newFixture(t, annotation.Hierarchy{})
	path := f.writeFile(t, "a.go", "package a\n\n// TODO: moved up\n")
	rec := record("truncated", path, 5)
	ctx := context.Background()
	require.NoError(t, f.facade.Insert(ctx, rec))
	require.True(t, f.facade.Audit(ctx)[0].Stale)
	f.prompt.answers = []prompt.Answer{prompt.Yes}

	result, err := f.facade.Navigate(ctx, rec)
	require.NoError(t, err)
	assert.True(t, result.Opened)
	assert.Equal(t, reconcile.Deleted, result.Outcome)
	assert.Empty(t, f.prompt.notices)
	require.Len(t, f.prompt.asked, 1)
	assert.True(t, f.store.Load().IsEmpty())
	assert.Equal(t, 2, f.files.CurrentSelectionLine())
}

func TestConcurrentMutationsAreSerialized(t *testing.T) {
	f := newFixture(t, annotation.Hierarchy{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(line int) {
			defer wg.Done()
			assert.NoError(t, f.facade.Insert(ctx, record("item", "/ws/a.ts", line)))
		}(i)
	}
	wg.Wait()

	h := f.store.Load()
	require.Len(t, h.Groups, 1)
	assert.Len(t, h.Groups[0].Children, 20)
	assert.Equal(t, 20, f.store.Saves())
	assert.Equal(t, 20, *f.refreshes)
}

type callbackRefresher struct {
	fn func()
}

func (r *callbackRefresher) Refresh() { r.fn() }

func TestRefreshSubscriberCanCallBackIntoFacade(t *testing.T) {
	s := store.NewMemoryStore(annotation.Hierarchy{})
	r := &callbackRefresher{}
	f := New(s, r, host.NewFiles(""), &scriptedPrompt{}, Options{})
	ctx := context.Background()

	var seen []int
	r.fn = func() {
		seen = append(seen, f.Snapshot().Len())
		if len(seen) == 1 {
			assert.NoError(t, f.Insert(ctx, record("follow-up", "/ws/a.ts", 9)))
		}
	}

	done := make(chan error, 1)
	go func() { done <- f.Insert(ctx, record("first", "/ws/a.ts", 1)) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Insert deadlocked while a subscriber re-entered the facade")
	}

	assert.Equal(t, []int{1, 2}, seen)
	assert.Equal(t, 2, s.Load().Len())
}

func TestSuspendedPromptDoesNotBlockMutations(t *testing.T) {
	s := store.NewMemoryStore(annotation.Hierarchy{})
	producer := tree.NewProducer(s)
	files := host.NewFiles("")
	channel := prompt.NewChannel(0)
	f := New(s, producer, files, channel, Options{})

	path := filepath.Join(t.TempDir(), "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package a\n"), 0644))
	files.Focus(path, 0)

	ctx := context.Background()
	done := make(chan error, 1)
	go func() {
		_, _, err := f.Add(ctx)
		done <- err
	}()

	confirm := <-channel.Requests()
	assert.Equal(t, AddQuestion, confirm.Message)

	// The Add handler is suspended; an independent command still completes.
	require.NoError(t, f.Insert(ctx, record("other", "/ws/b.ts", 1)))
	assert.Equal(t, 1, s.Load().Len())

	confirm.Yes()
	input := <-channel.Requests()
	assert.Equal(t, prompt.KindInput, input.Kind)
	input.Text("later")
	require.NoError(t, <-done)

	h := s.Load()
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, "/ws/b.ts", h.Groups[0].FilePath)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "// [GENERATED] TODO: later\n"))
}
