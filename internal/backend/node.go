package backend

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"mcpadre.dev/mcpadre/internal/sandbox"
	"mcpadre.dev/mcpadre/internal/workspace"
)

// NodeConfig configures the node client.
type NodeConfig struct {
	Server    *workspace.NodeServer
	Cwd       string // per-server directory, own package.json + lockfile
	Env       map[string]string
	Launcher  sandbox.Launcher
	StderrLog io.Writer
	Logger    *slog.Logger
}

// NewNode builds the node invocation argv and delegates to NewShell: either
// `node ./node_modules/.bin/<bin>` when Server.Bin is set, or
// `npm exec <package> -- <args>` otherwise.
func NewNode(ctx context.Context, cfg NodeConfig) (*Shell, error) {
	var argv []string
	if cfg.Server.Bin != "" {
		argv = []string{"node", "./node_modules/.bin/" + cfg.Server.Bin}
	} else {
		argv = []string{"npm", "exec", fmt.Sprintf("%s@%s", cfg.Server.Package, cfg.Server.Version), "--"}
		if cfg.Server.Args != "" {
			argv = append(argv, strings.Fields(cfg.Server.Args)...)
		}
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
