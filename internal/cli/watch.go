package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/skelly-dev/marktree/internal/watch"
)

func RunWatch(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	ignoreRules, err := a.ignoreRules()
	if err != nil {
		return err
	}

	watcher, err := watch.New(watch.Options{
		Root:        a.root,
		Debounce:    a.cfg.Debounce(),
		Include:     a.cfg.Watch.Include,
		Exclude:     a.cfg.Watch.Exclude,
		IgnoreRules: ignoreRules,
		Logger:      a.logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watcher.Run(gctx)
	})
	g.Go(func() error {
		select {
		case <-watcher.Ready():
			fmt.Printf("Watching %s for new TODOs (Ctrl+C to stop)\n", a.root)
		case <-gctx.Done():
			return nil
		}
		// Batches are handled one at a time so prompts never interleave.
		for changes := range watcher.Changes() {
			added, err := a.facade.HandleEdit(gctx, changes)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if err != nil {
				return err
			}
			if added > 0 {
				fmt.Printf("Tracked %d new TODOs in %s\n", added, displayPath(a.root, changes[0].Path))
			}
		}
		return nil
	})
	return g.Wait()
}
