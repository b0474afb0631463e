package ignore

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultRules keep version control metadata, dependency trees, build output
// and marktree's own state out of scans and the watcher.
var DefaultRules = []string{
	".git/",
	".hg/",
	".svn/",
	".marktree/",
	"node_modules/",
	"vendor/",
	".venv/",
	"__pycache__/",
	"dist/",
	"build/",
	"target/",
}

// rule is one .marktreeignore line compiled to a doublestar pattern. Patterns
// without a slash match at any depth.
type rule struct {
	glob    string
	negated bool
	dirOnly bool
}

// Matcher decides which workspace paths marktree skips. Rules are evaluated
// in order and the last match wins, so user rules can re-include defaults.
type Matcher struct {
	rules []rule
}

// NewMatcher compiles DefaultRules followed by userRules. Blank lines,
// comments and patterns doublestar rejects are skipped.
func NewMatcher(userRules []string) *Matcher {
	m := &Matcher{rules: make([]rule, 0, len(DefaultRules)+len(userRules))}
	for _, line := range DefaultRules {
		m.add(line)
	}
	for _, line := range userRules {
		m.add(line)
	}
	return m
}

func (m *Matcher) add(line string) {
	if r, ok := compile(line); ok {
		m.rules = append(m.rules, r)
	}
}

// ShouldIgnore reports whether relPath, relative to the workspace root, is
// skipped. Ignoring a directory also ignores everything below it.
func (m *Matcher) ShouldIgnore(relPath string, isDir bool) bool {
	relPath = normalizePath(relPath)
	if relPath == "" {
		return false
	}
	ignored := false
	for _, r := range m.rules {
		if r.matches(relPath, isDir) {
			ignored = !r.negated
		}
	}
	return ignored
}

// StateDirRule returns an anchored rule for a state directory that lives
// inside root. A state dir outside the workspace needs no rule.
func StateDirRule(root, stateDir string) (string, bool) {
	if !filepath.IsAbs(stateDir) {
		stateDir = filepath.Join(root, stateDir)
	}
	rel, err := filepath.Rel(root, stateDir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return "/" + filepath.ToSlash(rel) + "/", true
}

func compile(line string) (rule, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return rule{}, false
	}

	var r rule
	if rest, ok := strings.CutPrefix(line, "!"); ok {
		r.negated = true
		line = rest
	}
	if rest, ok := strings.CutSuffix(line, "/"); ok {
		r.dirOnly = true
		line = rest
	}
	anchored := strings.Contains(line, "/")
	line = normalizePath(line)
	if line == "" {
		return rule{}, false
	}
	if !anchored {
		line = "**/" + line
	}
	if !doublestar.ValidatePattern(line) {
		return rule{}, false
	}
	r.glob = line
	return r, true
}

func (r rule) matches(relPath string, isDir bool) bool {
	if r.dirOnly && !isDir {
		return match(r.glob+"/**", relPath)
	}
	return match(r.glob, relPath) || match(r.glob+"/**", relPath)
}

func match(pattern, value string) bool {
	ok, err := doublestar.Match(pattern, value)
	return err == nil && ok
}

func normalizePath(path string) string {
	path = filepath.ToSlash(path)
	path = strings.TrimPrefix(path, "./")
	return strings.TrimPrefix(path, "/")
}
