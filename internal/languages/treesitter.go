package languages

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"fortio.org/safecast"
	"github.com/skelly-dev/marktree/internal/fileutil"
	"github.com/skelly-dev/marktree/internal/parser"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// CommentScanner finds comment lines with a tree-sitter grammar, so marker
// words inside strings or identifiers are not mistaken for annotations.
type CommentScanner struct {
	language string
	grammars map[string]*sitter.Language
}

func NewGoScanner() *CommentScanner {
	return &CommentScanner{
		language: "go",
		grammars: map[string]*sitter.Language{".go": golang.GetLanguage()},
	}
}

func NewPythonScanner() *CommentScanner {
	return &CommentScanner{
		language: "python",
		grammars: map[string]*sitter.Language{".py": python.GetLanguage()},
	}
}

func NewRubyScanner() *CommentScanner {
	return &CommentScanner{
		language: "ruby",
		grammars: map[string]*sitter.Language{".rb": ruby.GetLanguage()},
	}
}

// NewTypeScriptScanner covers TypeScript and plain JavaScript sources.
func NewTypeScriptScanner() *CommentScanner {
	return &CommentScanner{
		language: "typescript",
		grammars: map[string]*sitter.Language{
			".ts":  typescript.GetLanguage(),
			".js":  javascript.GetLanguage(),
			".mjs": javascript.GetLanguage(),
			".cjs": javascript.GetLanguage(),
		},
	}
}

func (s *CommentScanner) Language() string {
	return s.language
}

func (s *CommentScanner) Extensions() []string {
	exts := make([]string, 0, len(s.grammars))
	for ext := range s.grammars {
		exts = append(exts, ext)
	}
	return exts
}

func (s *CommentScanner) Scan(filename string, content []byte) ([]parser.Comment, error) {
	grammar, ok := s.grammars[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		return nil, fmt.Errorf("no %s grammar for %s", s.language, filename)
	}

	// Parsers are not safe for concurrent use, and scans run in parallel.
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(grammar)

	tree, err := p.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	lines := fileutil.SplitLines(string(content))
	seen := make(map[int]bool)
	comments := make([]parser.Comment, 0)

	var walk func(node *sitter.Node) error
	walk = func(node *sitter.Node) error {
		if isCommentNode(node.Type()) {
			start, err := safecast.Conv[int](node.StartPoint().Row)
			if err != nil {
				return err
			}
			end, err := safecast.Conv[int](node.EndPoint().Row)
			if err != nil {
				return err
			}
			for row := start; row <= end && row < len(lines); row++ {
				if seen[row] {
					continue
				}
				seen[row] = true
				comments = append(comments, parser.Comment{Line: row, Text: lines[row]})
			}
			return nil
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			if err := walk(node.Child(i)); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(tree.RootNode()); err != nil {
		return nil, err
	}
	return comments, nil
}

func isCommentNode(nodeType string) bool {
	return nodeType == "comment" || strings.HasSuffix(nodeType, "_comment")
}
