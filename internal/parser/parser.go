package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/skelly-dev/marktree/internal/ignore"
)

// Comment is one source line that may carry an annotation marker.
type Comment struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

// FileComments groups the comments found in one file.
type FileComments struct {
	Path     string    `json:"path"`
	Language string    `json:"language"`
	Comments []Comment `json:"comments"`
}

// ScanIssue reports a file that could not be scanned.
type ScanIssue struct {
	File     string `json:"file"`
	Language string `json:"language,omitempty"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// CommentScanner is implemented once per language.
type CommentScanner interface {
	// Language returns the language name (e.g., "go", "python")
	Language() string

	// Extensions returns file extensions this scanner handles
	Extensions() []string

	// Scan returns the candidate lines in content
	Scan(filename string, content []byte) ([]Comment, error)
}

// Registry holds all registered scanners
type Registry struct {
	scanners  map[string]CommentScanner // language name -> scanner
	extToLang map[string]string         // extension -> language name
}

func NewRegistry() *Registry {
	return &Registry{
		scanners:  make(map[string]CommentScanner),
		extToLang: make(map[string]string),
	}
}

// Register adds a scanner. Later registrations do not steal extensions that
// are already claimed.
func (r *Registry) Register(s CommentScanner) {
	lang := s.Language()
	r.scanners[lang] = s
	for _, ext := range s.Extensions() {
		ext = strings.ToLower(ext)
		if _, taken := r.extToLang[ext]; taken {
			continue
		}
		r.extToLang[ext] = lang
	}
}

// GetScannerForFile returns the scanner for a file's extension
func (r *Registry) GetScannerForFile(filename string) (CommentScanner, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	lang, ok := r.extToLang[ext]
	if !ok {
		return nil, false
	}
	s, ok := r.scanners[lang]
	return s, ok
}

// SupportedExtensions returns all supported file extensions, sorted.
func (r *Registry) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.extToLang))
	for ext := range r.extToLang {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// ScanFile scans one file. Unsupported files return nil without error.
func (r *Registry) ScanFile(path string) (*FileComments, error) {
	s, ok := r.GetScannerForFile(path)
	if !ok {
		return nil, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	comments, err := s.Scan(path, content)
	if err != nil {
		return nil, err
	}
	return &FileComments{Path: path, Language: s.Language(), Comments: comments}, nil
}

// ListFiles walks root and returns the supported files that survive the
// ignore rules, sorted by path. Paths are joined onto root.
func (r *Registry) ListFiles(root string, ignoreRules []string) ([]string, []ScanIssue, error) {
	matcher := ignore.NewMatcher(ignoreRules)
	files := make([]string, 0)
	issues := make([]ScanIssue, 0)

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			relPath := path
			if rel, relErr := filepath.Rel(root, path); relErr == nil {
				relPath = rel
			}
			issues = append(issues, ScanIssue{
				File:     relPath,
				Severity: "warning",
				Message:  fmt.Sprintf("walk error: %v", err),
			})
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, _ := filepath.Rel(root, path)
		if relPath != "." && matcher.ShouldIgnore(relPath, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if _, ok := r.GetScannerForFile(path); ok {
			files = append(files, path)
		}
		return nil
	})

	sort.Strings(files)
	return files, issues, err
}
