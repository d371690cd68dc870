package backend

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"

	"mcpadre.dev/mcpadre/internal/sandbox"
	"mcpadre.dev/mcpadre/internal/workspace"
)

// PythonConfig configures the python client.
type PythonConfig struct {
	Server    *workspace.PythonServer
	Cwd       string // per-server directory, where .python-version/lockfile live
	Env       map[string]string
	Launcher  sandbox.Launcher
	StderrLog io.Writer
	Logger    *slog.Logger

	// Interpreter names the uv-equivalent runner; defaults to "uv".
	Interpreter string
	// LookPath is overridable in tests.
	LookPath func(string) (string, error)
}

// NewPython runs a preflight (python and the package manager must be
// resolvable on PATH; failure aborts with a directive to install first),
// builds the uv-run argv, and delegates to NewShell.
func NewPython(ctx context.Context, cfg PythonConfig) (*Shell, error) {
	interpreter := cfg.Interpreter
	if interpreter == "" {
		interpreter = "uv"
	}
	lookPath := cfg.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	if _, err := lookPath("python"); err != nil {
		return nil, fmt.Errorf("backend: python not on PATH; run install first: %w", err)
	}
	if _, err := lookPath(interpreter); err != nil {
		return nil, fmt.Errorf("backend: %s not on PATH; run install first: %w", interpreter, err)
	}

	argv := []string{interpreter, "run"}
	if cfg.Server.Command != "" {
		argv = append(argv, cfg.Server.Command)
	} else {
		argv = append(argv, fmt.Sprintf("%s==%s", cfg.Server.Package, cfg.Server.Version))
	}

	return NewShell(ctx, ShellConfig{
		Argv:      argv,
		Env:       cfg.Env,
		Cwd:       cfg.Cwd,
		Launcher:  cfg.Launcher,
		StderrLog: cfg.StderrLog,
		Logger:    cfg.Logger,
	})
}
