package languages

import "github.com/skelly-dev/marktree/internal/parser"

// NewDefaultRegistry registers the tree-sitter scanners and a plain-text
// scanner for every other known extension.
func NewDefaultRegistry() *parser.Registry {
	r := parser.NewRegistry()

	r.Register(NewGoScanner())
	r.Register(NewPythonScanner())
	r.Register(NewRubyScanner())
	r.Register(NewTypeScriptScanner())

	plain := make([]string, 0)
	for _, ext := range KnownExtensions() {
		if _, ok := r.GetScannerForFile("x" + ext); !ok {
			plain = append(plain, ext)
		}
	}
	r.Register(NewPlainScanner(plain))

	return r
}
