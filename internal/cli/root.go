package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "marktree",
		Short: "Track TODO annotations across a workspace",
		Long: `Marktree keeps a per-file list of TODO annotations for the current
workspace. Annotations are added with a generated comment, captured from
edits that introduce a TODO marker, and offered for removal once their line
no longer carries the marker.

State is written to .marktree/ and settings are read from .marktree.toml.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolP("yes", "y", false, "Answer yes to every confirmation prompt")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create .marktree/ and a default .marktree.toml",
		RunE:  RunInit,
	}

	addCmd := &cobra.Command{
		Use:   "add <file> <line> [description]",
		Short: "Insert a generated TODO comment above a line and track it",
		Args:  cobra.RangeArgs(2, 3),
		RunE:  RunAdd,
	}

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show tracked TODOs grouped by file",
		RunE:    RunList,
	}
	listCmd.Flags().Bool("json", false, "Print machine-readable tree output")

	removeCmd := &cobra.Command{
		Use:   "remove <file> [line]",
		Short: "Stop tracking one TODO, or every TODO in a file",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  RunRemove,
	}

	gotoCmd := &cobra.Command{
		Use:   "goto <file:line>",
		Short: "Open a tracked TODO and offer to drop it if the marker is gone",
		Args:  cobra.ExactArgs(1),
		RunE:  RunGoto,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Stop tracking every TODO",
		RunE:  RunClear,
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Report tracked TODOs whose line no longer carries the marker",
		RunE:  RunCheck,
	}
	checkCmd.Flags().Bool("json", false, "Print machine-readable check output")
	checkCmd.Flags().Bool("strict", false, "Exit non-zero when stale TODOs are found")

	scanCmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Find untracked TODO comments and offer to track them",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunScan,
	}
	scanCmd.Flags().Bool("json", false, "Print machine-readable run summary")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the workspace and offer to track newly written TODOs",
		RunE:  RunWatch,
	}

	installHookCmd := &cobra.Command{
		Use:   "install-hook",
		Short: "Install git pre-commit hook that reports stale TODOs",
		RunE:  RunInstallHook,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("marktree %s\n", version)
		},
	}

	rootCmd.AddCommand(
		initCmd,
		addCmd,
		listCmd,
		removeCmd,
		gotoCmd,
		clearCmd,
		checkCmd,
		scanCmd,
		watchCmd,
		installHookCmd,
		versionCmd,
	)

	return rootCmd
}
