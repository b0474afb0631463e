package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skelly-dev/marktree/internal/annotation"
	"github.com/skelly-dev/marktree/internal/fileutil"
	"github.com/skelly-dev/marktree/internal/prompt"
	"github.com/skelly-dev/marktree/internal/reconcile"
	"github.com/skelly-dev/marktree/internal/render"
)

func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

func RunAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	line, err := ParseLine(args[1])
	if err != nil {
		return err
	}
	path := resolvePath(a.root, args[0])
	if info, err := os.Stat(path); err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	} else if info.IsDir() {
		return fmt.Errorf("%s is a directory", args[0])
	}
	a.files.Focus(path, line)

	f := a.facade
	if len(args) == 3 {
		f = a.withPrompt(presetInput{Host: a.prompt, text: args[2]})
	}
	rec, added, err := f.Add(commandContext(cmd))
	if err != nil {
		return err
	}
	if !added {
		fmt.Println("Nothing added.")
		return nil
	}
	fmt.Printf("Added %s:%d: %s\n", displayPath(a.root, rec.FilePath), rec.Line+1, strings.TrimSpace(rec.Description))
	return nil
}

// presetInput answers the description prompt with a value given on the
// command line.
type presetInput struct {
	prompt.Host
	text string
}

func (p presetInput) InputText(context.Context, string, string) (string, bool, error) {
	return p.text, true, nil
}

func RunList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	if asJSON {
		return fileutil.PrintJSON(render.Collect(a.tree))
	}
	return render.NewTree(os.Stdout).Write(a.tree)
}

func RunRemove(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	path := resolvePath(a.root, args[0])

	var node annotation.Node
	target := displayPath(a.root, path)
	if len(args) == 2 {
		line, err := ParseLine(args[1])
		if err != nil {
			return err
		}
		node = annotation.RecordNode(annotation.Record{FilePath: path, Line: line})
		target = fmt.Sprintf("%s:%d", target, line+1)
	} else {
		node = annotation.GroupNode(annotation.FileGroup{FilePath: path})
	}

	removed, err := a.facade.Delete(commandContext(cmd), node)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Printf("No TODO tracked at %s\n", target)
		return nil
	}
	fmt.Printf("Removed %s\n", target)
	return nil
}

func RunGoto(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	rawPath, line, err := ParseLocation(args[0])
	if err != nil {
		return err
	}
	path := resolvePath(a.root, rawPath)

	rec, ok := findRecord(a, path, line)
	if !ok {
		return fmt.Errorf("no TODO tracked at %s:%d", rawPath, line+1)
	}

	result, err := a.facade.Navigate(commandContext(cmd), rec)
	if err != nil {
		return err
	}
	if !result.Opened {
		return nil
	}
	switch result.Outcome {
	case reconcile.Deleted:
		fmt.Printf("Removed stale TODO %s:%d\n", displayPath(a.root, rec.FilePath), rec.Line+1)
	case reconcile.Kept:
		fmt.Printf("Kept %s:%d\n", displayPath(a.root, rec.FilePath), rec.Line+1)
	case reconcile.Fresh:
		fmt.Printf("%s:%d: %s\n", displayPath(a.root, rec.FilePath), rec.Line+1, strings.TrimSpace(rec.Description))
	}
	return nil
}

func findRecord(a *app, path string, line int) (annotation.Record, bool) {
	g, ok := a.facade.Snapshot().Group(a.identity, path)
	if !ok {
		return annotation.Record{}, false
	}
	for _, rec := range g.Children {
		if rec.Line == line {
			return rec, true
		}
	}
	return annotation.Record{}, false
}

func RunClear(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	count := a.facade.Snapshot().Len()
	if err := a.facade.Clear(commandContext(cmd)); err != nil {
		return err
	}
	fmt.Printf("Cleared %d TODOs\n", count)
	return nil
}

func RunCheck(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	strict, err := OptionalBoolFlag(cmd, "strict", false)
	if err != nil {
		return err
	}

	findings := a.facade.Audit(commandContext(cmd))
	summary := CheckSummary{Mode: "check", RootPath: a.root, Records: len(findings)}
	for _, finding := range findings {
		location := fmt.Sprintf("%s:%d", displayPath(a.root, finding.Record.FilePath), finding.Record.Line+1)
		switch {
		case finding.Error != "":
			summary.Unreadable = append(summary.Unreadable, location)
		case finding.Stale:
			summary.Stale = append(summary.Stale, location)
		}
	}
	if err := PrintCheckSummary(summary, asJSON); err != nil {
		return err
	}
	if strict && len(summary.Stale) > 0 {
		return fmt.Errorf("%d stale TODOs", len(summary.Stale))
	}
	return nil
}
