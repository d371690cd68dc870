// Package cli is the Cobra command tree for mcpadre's runner-relevant
// surface: the `run` and `install` subcommands, plus the root command's
// --version flag. Registry search, host config
// injection, and interactive prompts are out of core scope and are not
// implemented here.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Package-level vars bind Cobra's persistent flags, the same pattern the
// teacher's internal/cli uses — reset in Execute() so tests get a fresh
// command tree per invocation instead of leaking flag state across runs.
var (
	globalUser     bool
	globalDir      string
	globalNoParent bool
	globalLogLevel string
)

// exitError is a sentinel error carrying a specific process exit code.
// RunE functions return this instead of calling os.Exit directly, so
// Execute can handle process termination in one place (teacher's pattern,
// internal/cli/cli.go's original exitError).
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func resetGlobals() {
	globalUser = false
	globalDir = ""
	globalNoParent = false
	globalLogLevel = "info"
}

// newRootCmd builds the full Cobra command tree. Separated from Execute so
// tests can construct a fresh command instance.
func newRootCmd(version string) *cobra.Command {
	resetGlobals()

	root := &cobra.Command{
		Use:           "mcpadre",
		Short:         "Local supervisor and proxy for Model Context Protocol servers",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVar(&globalUser, "user", false, "bind to the user workspace instead of the project workspace")
	root.PersistentFlags().StringVar(&globalDir, "dir", "", "override the project workspace directory")
	root.PersistentFlags().BoolVar(&globalNoParent, "no-parent", false, "disable walking upward from cwd to locate a project config")
	root.PersistentFlags().StringVar(&globalLogLevel, "log-level", "info", "error|warn|info|debug|trace")

	root.AddCommand(newRunCmd())
	root.AddCommand(newInstallCmd())

	return root
}

// Execute runs the CLI and handles process exit. version is the build-time
// version string (teacher's main.go passes its ldflags-injected version the
// same way).
func Execute(version string) {
	root := newRootCmd(version)
	if err := root.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
