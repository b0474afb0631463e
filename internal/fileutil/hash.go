package fileutil

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// HashBytes returns a short hex digest used to skip unchanged snapshots.
func HashBytes(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// SplitLines splits text on "\n", dropping a trailing "\r" from each line.
// A trailing newline does not produce an extra empty line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
