package languages

import (
	"github.com/skelly-dev/marktree/internal/fileutil"
	"github.com/skelly-dev/marktree/internal/parser"
)

// PlainScanner treats every line as a candidate. It serves languages without
// a grammar; marker matching narrows the result later.
type PlainScanner struct {
	exts []string
}

func NewPlainScanner(exts []string) *PlainScanner {
	return &PlainScanner{exts: append([]string(nil), exts...)}
}

func (s *PlainScanner) Language() string {
	return "plaintext"
}

func (s *PlainScanner) Extensions() []string {
	return s.exts
}

func (s *PlainScanner) Scan(_ string, content []byte) ([]parser.Comment, error) {
	lines := fileutil.SplitLines(string(content))
	out := make([]parser.Comment, 0, len(lines))
	for i, line := range lines {
		out = append(out, parser.Comment{Line: i, Text: line})
	}
	return out, nil
}
