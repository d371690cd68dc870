// Package install implements installer (core subset): materializing
// each enabled server's per-server directory, writing lockfiles and
// version pins, and pulling/verifying container digests. Host-config
// injection, registry search, and interactive prompts are out of core
// scope and are not implemented here.
package install

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"mcpadre.dev/mcpadre/internal/containerlock"
	"mcpadre.dev/mcpadre/internal/serverdir"
	"mcpadre.dev/mcpadre/internal/workspace"
)

// Options controls one install run.
type Options struct {
	Force         bool // --force: upgrade unconditionally on version change
	SkipGitignore bool // --skip-gitignore: suppress the managed .gitignore write

	// RunCommand executes a package-manager command in dir; overridable in
	// tests to avoid shelling out to real npm/uv/pip during unit tests.
	RunCommand func(ctx context.Context, dir string, argv ...string) error
}

// Result reports the outcome of installing one server.
type Result struct {
	Server  string
	Skipped bool
	Warning string
	Err     error
}

// InstallAll materializes every enabled server in ctx's workspace. It
// returns one Result per server; a non-nil Err on any result means the
// CLI layer should exit 1.
func InstallAll(ctx context.Context, wsctx *workspace.Context, opts Options) []Result {
	if opts.RunCommand == nil {
		opts.RunCommand = runCommand
	}

	names := make([]string, 0, len(wsctx.Config.MCPServers))
	for name := range wsctx.Config.MCPServers {
		names = append(names, name)
	}

	results := make([]Result, 0, len(names))
	for _, name := range names {
		rec := wsctx.Config.MCPServers[name]
		results = append(results, installOne(ctx, wsctx, rec, opts))
	}
	return results
}

func installOne(ctx context.Context, wsctx *workspace.Context, rec *workspace.ServerRecord, opts Options) Result {
	sd, err := serverdir.For(wsctx.Dir, rec.Name, opts.SkipGitignore || wsctx.Config.Options.SkipGitignoreOnInstall)
	if err != nil {
		return Result{Server: rec.Name, Err: err}
	}

	// §4.10 version-change policy: upgrade iff --force, the workspace opted
	// in to implicit upgrades, or the server record itself allows it.
	optIn := wsctx.Config.Options.InstallImplicitlyUpgradesChangedPackages || rec.AllowUpgrade

	switch rec.Kind {
	case workspace.ServerShell, workspace.ServerHTTP:
		// shell and http servers have nothing to materialize.
		return Result{Server: rec.Name}

	case workspace.ServerNode:
		return installNode(ctx, rec, sd, opts, optIn)

	case workspace.ServerPython:
		return installPython(ctx, rec, sd, opts, optIn)

	case workspace.ServerContainer:
		return installContainer(ctx, rec, sd, opts)

	default:
		return Result{Server: rec.Name, Err: fmt.Errorf("install: unknown server kind %q", rec.Kind)}
	}
}

// shouldUpgrade implements version-change policy: upgrade iff
// --force was passed or the workspace opted in to implicit upgrades;
// otherwise warn and keep the existing materialized version.
func shouldUpgrade(force, workspaceOptIn bool, currentVersion, configuredVersion, pinPath string) (upgrade bool, warning string) {
	existing, err := os.ReadFile(pinPath)
	if err != nil || string(existing) == "" {
		return true, "" // first install; nothing to compare against
	}
	if string(existing) == configuredVersion {
		return false, ""
	}
	if force || workspaceOptIn {
		return true, ""
	}
	return false, fmt.Sprintf("configured version %q differs from installed %q; not upgrading (pass --force or set installImplicitlyUpgradesChangedPackages)", configuredVersion, string(existing))
}

func writePin(path, version string) error {
	return os.WriteFile(path, []byte(version), 0o644)
}

func installNode(ctx context.Context, rec *workspace.ServerRecord, sd serverdir.Dir, opts Options, workspaceOptIn bool) Result {
	srv := rec.Node
	pinPath := filepath.Join(sd.Root, ".node-version-pin")
	upgrade, warning := shouldUpgrade(opts.Force, workspaceOptIn, "", srv.Version, pinPath)
	if !upgrade {
		return Result{Server: rec.Name, Skipped: true, Warning: warning}
	}

	manifest := fmt.Sprintf(`{
  "name": %q,
  "private": true,
  "dependencies": {
    %q: %q
  }
}
`, rec.Name, srv.Package, srv.Version)
	if err := os.WriteFile(filepath.Join(sd.Root, "package.json"), []byte(manifest), 0o644); err != nil {
		return Result{Server: rec.Name, Err: fmt.Errorf("install: write package.json: %w", err)}
	}
	if srv.NodeVersion != "" {
		if err := os.WriteFile(filepath.Join(sd.Root, ".tool-versions"), []byte("nodejs "+srv.NodeVersion+"\n"), 0o644); err != nil {
			return Result{Server: rec.Name, Err: fmt.Errorf("install: write .tool-versions: %w", err)}
		}
	}

	// Regenerate the lockfile by invoking the package manager in that
	// directory; fall back to the alternative package manager if the
	// preferred one fails.
	if err := opts.RunCommand(ctx, sd.Root, "npm", "install", "--package-lock-only"); err != nil {
		if fbErr := opts.RunCommand(ctx, sd.Root, "pnpm", "install", "--lockfile-only"); fbErr != nil {
			return Result{Server: rec.Name, Err: fmt.Errorf("install: npm failed (%v), pnpm fallback failed (%w)", err, fbErr)}
		}
	}
	if err := writePin(pinPath, srv.Version); err != nil {
		return Result{Server: rec.Name, Err: err}
	}
	audit, _ := auditCommand(ctx, workspace.ServerNode, sd.Root)
	return Result{Server: rec.Name, Warning: audit}
}

func installPython(ctx context.Context, rec *workspace.ServerRecord, sd serverdir.Dir, opts Options, workspaceOptIn bool) Result {
	srv := rec.Python
	pinPath := filepath.Join(sd.Root, ".python-version-pin")
	upgrade, warning := shouldUpgrade(opts.Force, workspaceOptIn, "", srv.Version, pinPath)
	if !upgrade {
		return Result{Server: rec.Name, Skipped: true, Warning: warning}
	}

	manifest := fmt.Sprintf(`[project]
name = %q
version = "0.0.0"
dependencies = [%q]
`, rec.Name, fmt.Sprintf("%s==%s", srv.Package, srv.Version))
	if err := os.WriteFile(filepath.Join(sd.Root, "pyproject.toml"), []byte(manifest), 0o644); err != nil {
		return Result{Server: rec.Name, Err: fmt.Errorf("install: write pyproject.toml: %w", err)}
	}
	if srv.PythonVersion != "" {
		if err := os.WriteFile(filepath.Join(sd.Root, ".python-version"), []byte(srv.PythonVersion+"\n"), 0o644); err != nil {
			return Result{Server: rec.Name, Err: fmt.Errorf("install: write .python-version: %w", err)}
		}
	}

	if err := opts.RunCommand(ctx, sd.Root, "uv", "lock"); err != nil {
		if fbErr := opts.RunCommand(ctx, sd.Root, "pip-compile"); fbErr != nil {
			return Result{Server: rec.Name, Err: fmt.Errorf("install: uv failed (%v), pip-compile fallback failed (%w)", err, fbErr)}
		}
	}
	if err := writePin(pinPath, srv.Version); err != nil {
		return Result{Server: rec.Name, Err: err}
	}
	audit, _ := auditCommand(ctx, workspace.ServerPython, sd.Root)
	return Result{Server: rec.Name, Warning: audit}
}

func installContainer(ctx context.Context, rec *workspace.ServerRecord, sd serverdir.Dir, opts Options) Result {
	srv := rec.Container
	mgr := containerlock.NewManager(sd.LockPath())

	if _, err := mgr.Sync(ctx, srv.Image, srv.Tag, srv.PullWhenDigestChanges); err != nil {
		return Result{Server: rec.Name, Err: fmt.Errorf("install: container lock sync: %w", err)}
	}

	for key, vol := range srv.Volumes {
		hostPath := vol.HostPath
		if hostPath == "" {
			hostPath = sd.VolumePath(key)
		}
		if err := os.MkdirAll(hostPath, 0o755); err != nil {
			return Result{Server: rec.Name, Err: fmt.Errorf("install: create volume dir %s: %w", hostPath, err)}
		}
	}
	return Result{Server: rec.Name}
}

// runCommand is the production RunCommand: it shells out to the named
// package manager binary in dir.
func runCommand(ctx context.Context, dir string, argv ...string) error {
	if len(argv) == 0 {
		return fmt.Errorf("install: empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", argv[0], err, out)
	}
	return nil
}

// auditCommand runs the ecosystem's vulnerability audit for a materialized
// server directory, if the tool is available, and returns a human-readable
// warning summary. A missing audit tool is not an error — it's simply
// skipped.
func auditCommand(ctx context.Context, kind workspace.ServerKind, dir string) (string, error) {
	var argv []string
	switch kind {
	case workspace.ServerNode:
		argv = []string{"npm", "audit", "--json"}
	case workspace.ServerPython:
		argv = []string{"uv", "pip", "audit"}
	default:
		return "", nil
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return "", nil
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		// Audit tools commonly exit non-zero when vulnerabilities are
		// found; that's a warning, not an install failure.
		return string(out), nil
	}
	return string(out), nil
}
