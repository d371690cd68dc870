package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mcpadre.dev/mcpadre/internal/install"
	"mcpadre.dev/mcpadre/internal/workspace"
)

func newInstallCmd() *cobra.Command {
	var force bool
	var skipGitignore bool
	var watch bool

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Materialize every enabled server's per-server directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			var code int
			if watch {
				code = cmdInstallWatch(cmd, force, skipGitignore)
			} else {
				code = cmdInstall(cmd, force, skipGitignore)
			}
			if code != 0 {
				return &exitError{code: code}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "upgrade unconditionally, ignoring installImplicitlyUpgradesChangedPackages")
	cmd.Flags().BoolVar(&skipGitignore, "skip-gitignore", false, "suppress the managed .gitignore write")
	cmd.Flags().BoolVar(&watch, "watch", false, "stay running and reinstall whenever the config file changes")
	return cmd
}

func cmdInstall(cmd *cobra.Command, force, skipGitignore bool) int {
	wsctx, err := workspace.Load(workspace.LoadOptions{
		User:     globalUser,
		Dir:      globalDir,
		NoParent: globalNoParent,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	results := install.InstallAll(cmd.Context(), wsctx, install.Options{
		Force:         force,
		SkipGitignore: skipGitignore,
	})
	return printResults(results)
}

func printResults(results []install.Result) int {
	failed := false
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed = true
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", r.Server, r.Err)
		case r.Warning != "":
			fmt.Fprintf(os.Stderr, "Warning: %s: %s\n", r.Server, r.Warning)
		case r.Skipped:
			fmt.Printf("%s: unchanged\n", r.Server)
		default:
			fmt.Printf("%s: installed\n", r.Server)
		}
	}
	if failed {
		return 1
	}
	return 0
}

// cmdInstallWatch runs one install pass, then blocks reinstalling on every
// subsequent config file change until the process is interrupted.
func cmdInstallWatch(cmd *cobra.Command, force, skipGitignore bool) int {
	loadOpts := workspace.LoadOptions{
		User:     globalUser,
		Dir:      globalDir,
		NoParent: globalNoParent,
	}
	installOpts := install.Options{
		Force:         force,
		SkipGitignore: skipGitignore,
	}

	lastCode := cmdInstall(cmd, force, skipGitignore)

	reloads, err := install.Watch(cmd.Context(), loadOpts, installOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Println("watching for config changes (ctrl-c to stop)")
	for r := range reloads {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "Error: reload: %v\n", r.Err)
			lastCode = 1
			continue
		}
		lastCode = printResults(r.Results)
	}
	return lastCode
}
