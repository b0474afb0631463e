package bench

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skelly-dev/marktree/internal/annotation"
	"github.com/skelly-dev/marktree/internal/cli"
	"github.com/skelly-dev/marktree/internal/languages"
	"github.com/skelly-dev/marktree/internal/reconcile"
	"github.com/skelly-dev/marktree/internal/watch"
)

func BenchmarkScan_MediumRepo(b *testing.B) {
	root := b.TempDir()
	createSyntheticGoRepo(b, root, 250)

	registry := languages.NewDefaultRegistry()
	r := reconcile.New(reconcile.Options{}, nil, nil, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		files, _, err := registry.ListFiles(root, nil)
		if err != nil {
			b.Fatalf("list failed: %v", err)
		}
		changes, issues, err := cli.CollectCandidates(context.Background(), registry, files, r.ShouldCapture, nil)
		if err != nil || len(issues) > 0 {
			b.Fatalf("scan failed: %v %v", err, issues)
		}
		if len(changes) != 250 {
			b.Fatalf("expected one candidate per file, got %d", len(changes))
		}
	}
}

func BenchmarkHierarchyInsert(b *testing.B) {
	for i := 0; i < b.N; i++ {
		var h annotation.Hierarchy
		for j := 0; j < 500; j++ {
			rec := annotation.Record{
				Description: "item",
				FilePath:    fmt.Sprintf("/ws/pkg%d/file.go", j%25),
				Line:        j,
			}
			if err := h.Insert(annotation.IdentityExact, rec); err != nil {
				b.Fatalf("insert failed: %v", err)
			}
		}
	}
}

func BenchmarkDiff_LargeFile(b *testing.B) {
	prev := make([]string, 5000)
	for i := range prev {
		prev[i] = fmt.Sprintf("line %d", i)
	}
	next := append(append(append([]string(nil), prev[:2500]...), "// TODO: inserted"), prev[2500:]...)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		changes := watch.Diff("big.go", prev, next)
		if len(changes) != 1 || !strings.Contains(changes[0].NewText, "TODO") {
			b.Fatalf("unexpected diff: %+v", changes)
		}
	}
}

func createSyntheticGoRepo(tb testing.TB, root string, files int) {
	tb.Helper()

	for i := 0; i < files; i++ {
		dir := filepath.Join(root, fmt.Sprintf("pkg%d", i%10))
		if err := os.MkdirAll(dir, 0755); err != nil {
			tb.Fatalf("mkdir failed: %v", err)
		}

		filePath := filepath.Join(dir, fmt.Sprintf("file_%03d.go", i))
		src := fmt.Sprintf(`package pkg%d

// TODO: replace Func%d
func Func%d() int {
	return helper%d()
}

// [GENERATED] TODO: tracked already
func helper%d() int {
	return %d
}
`, i%10, i, i, i, i, i)

		if err := os.WriteFile(filePath, []byte(src), 0644); err != nil {
			tb.Fatalf("write failed: %v", err)
		}
	}
}
