package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/skelly-dev/marktree/internal/tree"
)

// Source is the read side of the tree producer.
type Source interface {
	Roots() []tree.Item
	Children(parent tree.Item) []tree.Item
}

// Group is the serializable view of one file group.
type Group struct {
	Label string `json:"label"`
	Path  string `json:"path"`
	Items []Item `json:"items"`
}

type Item struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// Collect walks src into plain values, for JSON output.
func Collect(src Source) []Group {
	roots := src.Roots()
	groups := make([]Group, 0, len(roots))
	for _, root := range roots {
		children := src.Children(root)
		group := Group{Label: root.Label, Path: root.Tooltip, Items: make([]Item, 0, len(children))}
		for _, child := range children {
			group.Items = append(group.Items, Item{
				Label:       child.Label,
				Description: child.Description,
				Location:    child.Tooltip,
			})
		}
		groups = append(groups, group)
	}
	return groups
}

// Tree draws the hierarchy with box-drawing branches. Colors are used only
// when w is a color-capable terminal.
type Tree struct {
	w      io.Writer
	file   lipgloss.Style
	path   lipgloss.Style
	branch lipgloss.Style
	empty  lipgloss.Style
}

func NewTree(w io.Writer) *Tree {
	r := lipgloss.NewRenderer(w)
	return &Tree{
		w:      w,
		file:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		path:   r.NewStyle().Foreground(lipgloss.Color("8")),
		branch: r.NewStyle().Foreground(lipgloss.Color("8")),
		empty:  r.NewStyle().Italic(true).Foreground(lipgloss.Color("8")),
	}
}

func (t *Tree) Render(src Source) string {
	roots := src.Roots()
	if len(roots) == 0 {
		return t.empty.Render("No TODOs tracked.") + "\n"
	}

	var b strings.Builder
	for i, root := range roots {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s  %s\n", t.file.Render(root.Label), t.path.Render(root.Tooltip))
		children := src.Children(root)
		for j, child := range children {
			connector := "├── "
			if j == len(children)-1 {
				connector = "└── "
			}
			fmt.Fprintf(&b, "%s%s\n", t.branch.Render(connector), child.Label)
		}
	}
	return b.String()
}

// Write renders src to the tree's writer.
func (t *Tree) Write(src Source) error {
	_, err := io.WriteString(t.w, t.Render(src))
	return err
}
