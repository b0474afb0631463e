package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/skelly-dev/marktree/internal/host"
	"github.com/skelly-dev/marktree/internal/languages"
	"github.com/skelly-dev/marktree/internal/parser"
)

func RunScan(cmd *cobra.Command, args []string) error {
	start := time.Now()
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}

	target := a.root
	if len(args) == 1 {
		target = resolvePath(a.root, args[0])
	}
	ignoreRules, err := a.ignoreRules()
	if err != nil {
		return err
	}

	registry := languages.NewDefaultRegistry()
	files, issues, err := listScanTargets(registry, target, ignoreRules)
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	ctx := commandContext(cmd)
	progress := newScanProgressReporter("scan", len(files), asJSON)
	changes, scanIssues, err := CollectCandidates(ctx, registry, files, a.facade.Reconciler().ShouldCapture, progress.Update)
	progress.Done()
	if err != nil {
		return err
	}
	ReportScanIssues(append(issues, scanIssues...))

	untracked := a.facade.Untracked(changes)
	added, err := a.facade.HandleEdit(ctx, untracked)
	if err != nil {
		return err
	}

	summary := ScanSummary{
		Mode:       "scan",
		RootPath:   a.root,
		Scanned:    len(files),
		Candidates: len(changes),
		Untracked:  len(untracked),
		Added:      added,
		DurationMS: time.Since(start).Milliseconds(),
		Files:      changedFiles(a.root, untracked),
	}
	return PrintScanSummary(summary, asJSON)
}

func listScanTargets(registry *parser.Registry, target string, ignoreRules []string) ([]string, []parser.ScanIssue, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, nil, err
	}
	if !info.IsDir() {
		if _, ok := registry.GetScannerForFile(target); !ok {
			return nil, nil, fmt.Errorf("unsupported file type: %s", target)
		}
		return []string{target}, nil, nil
	}
	return registry.ListFiles(target, ignoreRules)
}

// CollectCandidates scans files in parallel and returns the comment lines
// accepted by capture, ordered by file then line.
func CollectCandidates(
	ctx context.Context,
	registry *parser.Registry,
	files []string,
	capture func(text string) bool,
	onFile func(path string),
) ([]host.LineChange, []parser.ScanIssue, error) {
	results := make([][]host.LineChange, len(files))
	var (
		mu     sync.Mutex
		issues []parser.ScanIssue
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if onFile != nil {
				defer onFile(path)
			}
			scanned, err := registry.ScanFile(path)
			if err != nil {
				mu.Lock()
				issues = append(issues, parser.ScanIssue{File: path, Severity: "warning", Message: err.Error()})
				mu.Unlock()
				return nil
			}
			if scanned == nil {
				return nil
			}
			for _, comment := range scanned.Comments {
				if !capture(comment.Text) {
					continue
				}
				results[i] = append(results[i], host.LineChange{Path: path, Line: comment.Line, NewText: comment.Text})
			}
			sort.Slice(results[i], func(a, b int) bool { return results[i][a].Line < results[i][b].Line })
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	changes := make([]host.LineChange, 0)
	for _, fileChanges := range results {
		changes = append(changes, fileChanges...)
	}
	return changes, issues, nil
}

func ReportScanIssues(issues []parser.ScanIssue) {
	for _, issue := range issues {
		if issue.Language != "" {
			fmt.Fprintf(os.Stderr, "[%s] %s (%s): %s\n", issue.Severity, issue.File, issue.Language, issue.Message)
			continue
		}
		fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", issue.Severity, issue.File, issue.Message)
	}
}

func changedFiles(rootPath string, changes []host.LineChange) []string {
	seen := make(map[string]bool)
	files := make([]string, 0)
	for _, change := range changes {
		path := displayPath(rootPath, change.Path)
		if seen[path] {
			continue
		}
		seen[path] = true
		files = append(files, path)
	}
	return files
}
