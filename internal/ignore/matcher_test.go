package ignore

import (
	"path/filepath"
	"testing"
)

func TestMatcher_DefaultAndUserOverrides(t *testing.T) {
	m := NewMatcher([]string{
		"vendor/**",
		"!vendor/keep/file.go",
		"*.tmp",
		"deep/**/gen_*.go",
	})

	cases := []struct {
		path    string
		isDir   bool
		ignored bool
	}{
		{path: ".git/config", isDir: false, ignored: true},
		{path: ".marktree/state.json", isDir: false, ignored: true},
		{path: ".marktree", isDir: true, ignored: true},
		{path: "node_modules/pkg/index.js", isDir: false, ignored: true},
		{path: "web/node_modules", isDir: true, ignored: true},
		{path: "vendor/lib/a.go", isDir: false, ignored: true},
		{path: "vendor/keep/file.go", isDir: false, ignored: false},
		{path: "nested/cache.tmp", isDir: false, ignored: true},
		{path: "cache.tmp", isDir: false, ignored: true},
		{path: "src/main.go", isDir: false, ignored: false},
		{path: "deep/a/b/gen_test.go", isDir: false, ignored: true},
		{path: "other/deep/a/gen_test.go", isDir: false, ignored: false},
		{path: "generated", isDir: true, ignored: false},
		{path: "", isDir: true, ignored: false},
	}

	for _, tc := range cases {
		got := m.ShouldIgnore(tc.path, tc.isDir)
		if got != tc.ignored {
			t.Fatalf("path %s: expected ignored=%v, got %v", tc.path, tc.ignored, got)
		}
	}
}

func TestMatcher_NegatedDirectoryRule(t *testing.T) {
	m := NewMatcher([]string{
		"build/",
		"!build/include/",
	})

	if !m.ShouldIgnore("build/out/file.go", false) {
		t.Fatalf("expected build/out/file.go to be ignored")
	}
	if m.ShouldIgnore("build/include/file.go", false) {
		t.Fatalf("expected build/include/file.go to be included")
	}
}

func TestMatcher_DirectoryRuleSkipsFileOfSameName(t *testing.T) {
	m := NewMatcher([]string{"logs/"})

	if m.ShouldIgnore("notes/logs", false) {
		t.Fatalf("expected a file named logs to be kept")
	}
	if !m.ShouldIgnore("notes/logs", true) {
		t.Fatalf("expected a logs directory to be ignored")
	}
}

func TestMatcher_UserRuleReincludesDefault(t *testing.T) {
	m := NewMatcher([]string{"!vendor/"})
	if m.ShouldIgnore("vendor/lib/a.go", false) {
		t.Fatalf("expected negated default to re-include vendor")
	}
}

func TestMatcher_SkipsCommentsAndInvalidPatterns(t *testing.T) {
	m := NewMatcher([]string{"# *.go", "", "[broken"})
	if len(m.rules) != len(DefaultRules) {
		t.Fatalf("expected only default rules, got %d", len(m.rules))
	}
	if m.ShouldIgnore("main.go", false) {
		t.Fatalf("expected main.go to be kept")
	}
}

func TestStateDirRule(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "ws")

	cases := []struct {
		stateDir string
		want     string
		ok       bool
	}{
		{stateDir: ".cache/marktree", want: "/.cache/marktree/", ok: true},
		{stateDir: filepath.Join(root, "state"), want: "/state/", ok: true},
		{stateDir: filepath.Join(string(filepath.Separator), "elsewhere"), ok: false},
		{stateDir: ".", ok: false},
	}
	for _, tc := range cases {
		got, ok := StateDirRule(root, tc.stateDir)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("StateDirRule(%q) = %q, %v; want %q, %v", tc.stateDir, got, ok, tc.want, tc.ok)
		}
	}

	rule, _ := StateDirRule(root, ".cache/marktree")
	m := NewMatcher([]string{rule})
	if !m.ShouldIgnore(".cache/marktree/state.json", false) {
		t.Fatalf("expected state file to be ignored")
	}
	if m.ShouldIgnore("src/.cache/marktree/x.go", false) {
		t.Fatalf("expected anchored rule not to match nested paths")
	}
}
