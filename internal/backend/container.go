package backend

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"mcpadre.dev/mcpadre/internal/containerlock"
	"mcpadre.dev/mcpadre/internal/workspace"
)

// ContainerConfig configures the container client.
type ContainerConfig struct {
	Server     *workspace.ContainerServer
	ServerDir  string // <workspace>/.mcpadre/servers/<name>
	Env        map[string]string
	Networking bool // sandbox's resolved networking flag; false ⇒ --network none
	StderrLog  io.Writer
	Logger     *slog.Logger

	// Runtime names the container CLI; defaults to "docker".
	Runtime string
	// LockPath is the path to this server's lock.json; defaults to
	// <ServerDir>/lock.json.
	LockPath string
}

// NewContainer launches the pinned image@digest from the lock via the
// platform's container runtime. The sandbox policy is not directly applied
// here — container isolation provides the boundary — so unlike
// Shell/Python/Node, no sandbox.Launcher wraps the argv.
func NewContainer(ctx context.Context, cfg ContainerConfig) (*Shell, error) {
	runtime := cfg.Runtime
	if runtime == "" {
		runtime = "docker"
	}
	lockPath := cfg.LockPath
	if lockPath == "" {
		lockPath = filepath.Join(cfg.ServerDir, "lock.json")
	}

	mgr := containerlock.NewManager(lockPath)
	lock, err := mgr.VerifyAtStart(ctx, cfg.Server.Image, cfg.Server.Tag)
	if err != nil {
		return nil, fmt.Errorf("backend: container preflight: %w", err)
	}

	argv := []string{runtime, "run", "--rm", "-i"}
	if !cfg.Networking {
		argv = append(argv, "--network", "none")
	}
	for k, v := range cfg.Env {
		argv = append(argv, "-e", fmt.Sprintf("%s=%s", k, v))
	}
	for key, vol := range cfg.Server.Volumes {
		hostPath := vol.HostPath
		if hostPath == "" {
			hostPath = filepath.Join(cfg.ServerDir, "vol-"+key)
		}
		mount := fmt.Sprintf("%s:%s", hostPath, vol.ContainerPath)
		if vol.ReadOnly {
			mount += ":ro"
		}
		argv = append(argv, "-v", mount)
	}
	argv = append(argv, fmt.Sprintf("%s@%s", cfg.Server.Image, lock.Digest))
	if cfg.Server.Command != "" {
		argv = append(argv, cfg.Server.Command)
	}

	return NewShell(ctx, ShellConfig{
		Argv:      argv,
		Cwd:       cfg.ServerDir,
		StderrLog: cfg.StderrLog,
		Logger:    cfg.Logger,
	})
}
