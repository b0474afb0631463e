package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/skelly-dev/marktree/internal/config"
	"github.com/skelly-dev/marktree/internal/fileutil"
)

func RunInit(cmd *cobra.Command, args []string) error {
	rootPath, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}

	configPath := filepath.Join(rootPath, config.FileName)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		data, err := config.Default().Marshal()
		if err != nil {
			return fmt.Errorf("failed to render default config: %w", err)
		}
		if err := fileutil.WriteIfMissing(configPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", config.FileName, err)
		}
		fmt.Printf("Wrote default config to %s\n", configPath)
	}

	a, err := openAppAt(cmd, rootPath)
	if err != nil {
		return err
	}

	stateDir := a.cfg.StatePath(rootPath)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	// Persist whatever is loaded so the state file exists after init.
	if err := a.store.Save(a.store.Load()); err != nil {
		return err
	}

	fmt.Printf("Initialized marktree state at %s\n", stateDir)
	return nil
}
