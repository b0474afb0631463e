package watch

import (
	"github.com/skelly-dev/marktree/internal/host"
)

// Diff reports the lines of next that differ from prev. The common prefix
// and suffix are trimmed and every line left in next's changed region is
// reported; pure deletions report nothing.
func Diff(path string, prev, next []string) []host.LineChange {
	prefix := 0
	for prefix < len(prev) && prefix < len(next) && prev[prefix] == next[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(prev)-prefix && suffix < len(next)-prefix &&
		prev[len(prev)-1-suffix] == next[len(next)-1-suffix] {
		suffix++
	}

	oldEnd := len(prev) - suffix
	newEnd := len(next) - suffix
	if newEnd <= prefix {
		return nil
	}

	changes := make([]host.LineChange, 0, newEnd-prefix)
	for line := prefix; line < newEnd; line++ {
		change := host.LineChange{Path: path, Line: line, NewText: next[line]}
		if line < oldEnd {
			change.OldText = prev[line]
		}
		changes = append(changes, change)
	}
	return changes
}
