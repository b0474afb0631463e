package cli

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/skelly-dev/marktree/internal/annotation"
	"github.com/skelly-dev/marktree/internal/config"
	"github.com/skelly-dev/marktree/internal/facade"
	"github.com/skelly-dev/marktree/internal/host"
	"github.com/skelly-dev/marktree/internal/ignore"
	"github.com/skelly-dev/marktree/internal/prompt"
	"github.com/skelly-dev/marktree/internal/state"
	"github.com/skelly-dev/marktree/internal/store"
	"github.com/skelly-dev/marktree/internal/tree"
)

// app is everything one command invocation needs, wired from the workspace
// configuration.
type app struct {
	root     string
	cfg      config.Config
	identity annotation.PathIdentity
	store    *store.WorkspaceStore
	tree     *tree.Producer
	files    *host.Files
	prompt   prompt.Host
	facade   *facade.Facade
	logger   *log.Logger
}

func newLogger(w io.Writer) *log.Logger {
	return log.New(w, "marktree: ", 0)
}

func openApp(cmd *cobra.Command) (*app, error) {
	rootPath, err := resolveWorkingDirectory()
	if err != nil {
		return nil, err
	}
	return openAppAt(cmd, rootPath)
}

func openAppAt(cmd *cobra.Command, rootPath string) (*app, error) {
	logger := newLogger(os.Stderr)

	cfg, err := config.Load(rootPath)
	if err != nil {
		return nil, err
	}
	codec, err := cfg.StateCodec()
	if err != nil {
		return nil, err
	}
	identity, err := cfg.Identity()
	if err != nil {
		return nil, err
	}

	ws, err := openWorkspace(cfg.StatePath(rootPath), codec, logger)
	if err != nil {
		return nil, err
	}
	s := store.NewWorkspaceStore(ws, identity, logger)
	result, err := s.MigrateLegacy()
	if err != nil {
		return nil, err
	}
	if result.Migrated {
		logger.Printf("migrated %d legacy TODOs (%d dropped)", result.Records, result.Dropped)
	}

	assumeYes, err := OptionalBoolFlag(cmd, "yes", false)
	if err != nil {
		return nil, err
	}
	// Prompts go to stderr so --json output on stdout stays parseable.
	terminal := prompt.NewTerminal(cmd.InOrStdin(), os.Stderr, os.Stderr)
	terminal.AssumeYes = assumeYes

	a := &app{
		root:     rootPath,
		cfg:      cfg,
		identity: identity,
		store:    s,
		tree:     tree.NewProducer(s),
		files:    host.NewFiles(cfg.Editor),
		prompt:   terminal,
		logger:   logger,
	}
	a.facade = a.withPrompt(terminal)
	return a, nil
}

// withPrompt builds a facade over the app's store and host that asks p.
func (a *app) withPrompt(p prompt.Host) *facade.Facade {
	return facade.New(a.store, a.tree, a.files, p, facade.Options{
		Identity:     a.identity,
		Marker:       a.cfg.Marker,
		GeneratedTag: a.cfg.GeneratedTag,
		Logger:       a.logger,
	})
}

// openWorkspace reads the state file, starting over when it cannot be decoded.
// ignoreRules reads .marktreeignore and adds the configured state dir, so a
// non-default state_dir stays out of scans and the watcher.
func (a *app) ignoreRules() ([]string, error) {
	rules, err := LoadIgnoreRules(a.root)
	if err != nil {
		return nil, err
	}
	if rule, ok := ignore.StateDirRule(a.root, a.cfg.StateDir); ok {
		rules = append(rules, rule)
	}
	return rules, nil
}

func openWorkspace(dir string, codec state.Codec, logger *log.Logger) (*state.Workspace, error) {
	ws, err := state.Open(dir, codec)
	if err == nil {
		return ws, nil
	}
	var corrupt *state.CorruptError
	if errors.As(err, &corrupt) {
		logger.Printf("warning: %v; starting with an empty list", corrupt)
		return state.Fresh(dir, codec), nil
	}
	return nil, fmt.Errorf("failed to load state: %w", err)
}
