package cli

import (
	"fmt"
	"strings"

	"github.com/skelly-dev/marktree/internal/fileutil"
)

type ScanSummary struct {
	Mode       string   `json:"mode"`
	RootPath   string   `json:"root_path"`
	Scanned    int      `json:"scanned"`
	Candidates int      `json:"candidates"`
	Untracked  int      `json:"untracked"`
	Added      int      `json:"added"`
	DurationMS int64    `json:"duration_ms"`
	Files      []string `json:"files,omitempty"`
}

type CheckSummary struct {
	Mode       string   `json:"mode"`
	RootPath   string   `json:"root_path"`
	Records    int      `json:"records"`
	Stale      []string `json:"stale,omitempty"`
	Unreadable []string `json:"unreadable,omitempty"`
}

func PrintScanSummary(summary ScanSummary, asJSON bool) error {
	if asJSON {
		return fileutil.PrintJSON(summary)
	}

	fmt.Printf(
		"%s: scanned=%d candidates=%d untracked=%d added=%d duration=%dms\n",
		summary.Mode,
		summary.Scanned,
		summary.Candidates,
		summary.Untracked,
		summary.Added,
		summary.DurationMS,
	)
	if len(summary.Files) > 0 {
		fmt.Printf("files with untracked TODOs (%d): %s\n", len(summary.Files), SummarizePaths(summary.Files, 8))
	}
	return nil
}

func PrintCheckSummary(summary CheckSummary, asJSON bool) error {
	if asJSON {
		return fileutil.PrintJSON(summary)
	}

	fmt.Printf("%s: records=%d stale=%d unreadable=%d\n", summary.Mode, summary.Records, len(summary.Stale), len(summary.Unreadable))
	for _, location := range summary.Stale {
		fmt.Printf("  stale %s\n", location)
	}
	for _, location := range summary.Unreadable {
		fmt.Printf("  unreadable %s\n", location)
	}
	return nil
}

func SummarizePaths(paths []string, max int) string {
	if len(paths) <= max {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s ... (+%d more)", strings.Join(paths[:max], ", "), len(paths)-max)
}
