package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mcpadre.dev/mcpadre/internal/backend"
	"mcpadre.dev/mcpadre/internal/envrecipe"
	"mcpadre.dev/mcpadre/internal/intercept"
	"mcpadre.dev/mcpadre/internal/pathtemplate"
	"mcpadre.dev/mcpadre/internal/runsession"
	"mcpadre.dev/mcpadre/internal/sandbox"
	"mcpadre.dev/mcpadre/internal/serverdir"
	"mcpadre.dev/mcpadre/internal/workspace"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <name>",
		Short: "Launch and proxy a configured MCP server (session manager)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := cmdRun(cmd.Context(), args[0])
			if code != 0 {
				return &exitError{code: code}
			}
			return nil
		},
	}
}

// cmdRun implements `mcpadre run <name>` entry point: resolve the
// workspace, look up the server record, resolve env/sandbox, construct the
// matching backend, and drive the session until stdin EOF/signal/backend
// exit.
func cmdRun(ctx context.Context, name string) int {
	wsctx, err := workspace.Load(workspace.LoadOptions{
		User:     globalUser,
		Dir:      globalDir,
		NoParent: globalNoParent,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	rec, ok := wsctx.Server(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: no server named %q in workspace config\n", name)
		return 1
	}

	logger, closeLogger, err := newInfraLogger(wsctx.Dir, name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeLogger()

	sd, err := serverdir.For(wsctx.Dir, name, wsctx.Config.Options.SkipGitignoreOnInstall)
	if err != nil {
		logger.Error("create server directory", "error", err)
		return 1
	}

	be, cleanup, err := buildBackend(ctx, wsctx, rec, sd, logger)
	if err != nil {
		logger.Error("construct backend", "server", name, "error", err)
		return 1
	}
	defer cleanup()

	pipeline, closeTraffic, err := buildPipeline(sd, rec, wsctx)
	if err != nil {
		logger.Error("construct traffic logger", "error", err)
		return 1
	}
	defer closeTraffic()

	maxInFlight := runsession.MaxInFlightStdio
	if rec.Kind == workspace.ServerHTTP {
		maxInFlight = 0
	}

	session := runsession.New(os.Stdout, pipeline, be, maxInFlight)
	session.SetLogger(logger)
	if err := session.Start(ctx, os.Stdin); err != nil {
		logger.Error("session ended with error", "error", err)
		return 1
	}
	return 0
}

// slogLevel maps the --log-level flag's value onto a slog.Level. mcpadre's
// "trace" has no slog equivalent; it maps to one level below Debug so
// trace-only call sites can log at that level explicitly.
const levelTrace = slog.Level(-8)

func slogLevel(name string) slog.Level {
	switch name {
	case "error":
		return slog.LevelError
	case "warn":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	case "trace":
		return levelTrace
	default:
		return slog.LevelInfo
	}
}

// newInfraLogger builds the infrastructure logger: stderr when it is a
// TTY, otherwise JSONL to <workspace>/.mcpadre/logs/<name>_<ISO8601>.log.
func newInfraLogger(workspaceRoot, serverName string) (*slog.Logger, func(), error) {
	w, err := serverdir.InfraWriter(workspaceRoot, serverName)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slogLevel(globalLogLevel)}))
	return logger, func() { _ = w.Close() }, nil
}

// buildPipeline constructs the interceptor chain. The only built-in
// interceptor core ships is the traffic logger, installed when the
// server or workspace opts in to logging MCP traffic.
func buildPipeline(sd serverdir.Dir, rec *workspace.ServerRecord, wsctx *workspace.Context) (*intercept.Pipeline, func(), error) {
	if !rec.LogMCPTraffic && !wsctx.Config.Options.LogMCPTraffic {
		return intercept.New(), func() {}, nil
	}
	sl, err := serverdir.NewServerLog(sd, rec.Name)
	if err != nil {
		return nil, nil, err
	}
	return intercept.New(intercept.NewTrafficLogger(sl)), func() { _ = sl.Close() }, nil
}

// buildBackend constructs the Backend matching rec.Kind, resolving env,
// sandbox policy, and templates along the way.
func buildBackend(ctx context.Context, wsctx *workspace.Context, rec *workspace.ServerRecord, sd serverdir.Dir, logger *slog.Logger) (backend.Backend, func(), error) {
	templateCtx := wsctx.TemplateContext()

	resolver := envrecipe.NewResolver(templateCtx, wsctx.Dir)
	env, err := resolver.ResolveAll(rec.Env)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve env: %w", err)
	}

	finalized := sandbox.Resolve(
		rec.Sandbox,
		sandbox.WorkspaceOptions{
			ExtraAllowRead:      wsctx.Config.Options.ExtraAllowRead,
			ExtraAllowWrite:     wsctx.Config.Options.ExtraAllowWrite,
			DisableAllSandboxes: wsctx.Config.Options.DisableAllSandboxes,
		},
		templateCtx,
		wsctx.Dir,
		nil, nil,
	)

	platform := sandbox.DetectPlatform()
	appliesDirectly := rec.Kind != workspace.ServerContainer
	launcher := sandbox.NewLauncher(platform, finalized, appliesDirectly)

	if appliesDirectly {
		result := sandbox.Validate(ctx, platform, finalized, launcher)
		if result.Message != "" {
			if result.Fatal {
				return nil, nil, fmt.Errorf("sandbox: %s", result.Message)
			}
			logger.Warn("sandbox validation", "message", result.Message)
		}
	} else if finalized.Enabled {
		logger.Info("sandbox not directly applied to container backend; container isolation provides the boundary")
	}

	cleanup := func() {}
	switch rec.Kind {
	case workspace.ServerShell:
		cmd := pathtemplate.Resolve(rec.Shell.Command, templateCtx)
		cwd := wsctx.Dir
		if rec.Shell.Cwd != "" {
			cwd = pathtemplate.ResolvePath(rec.Shell.Cwd, templateCtx, wsctx.Dir)
		}
		be, err := backend.NewShell(ctx, backend.ShellConfig{
			Argv:      []string{"/bin/sh", "-c", cmd},
			Env:       env,
			Cwd:       cwd,
			Launcher:  launcher,
			StderrLog: logWriter{logger},
			Logger:    logger,
		})
		return be, cleanup, err

	case workspace.ServerPython:
		be, err := backend.NewPython(ctx, backend.PythonConfig{
			Server:    rec.Python,
			Cwd:       sd.Root,
			Env:       env,
			Launcher:  launcher,
			StderrLog: logWriter{logger},
			Logger:    logger,
		})
		return be, cleanup, err

	case workspace.ServerNode:
		be, err := backend.NewNode(ctx, backend.NodeConfig{
			Server:    rec.Node,
			Cwd:       sd.Root,
			Env:       env,
			Launcher:  launcher,
			StderrLog: logWriter{logger},
			Logger:    logger,
		})
		return be, cleanup, err

	case workspace.ServerContainer:
		be, err := backend.NewContainer(ctx, backend.ContainerConfig{
			Server:     rec.Container,
			ServerDir:  sd.Root,
			Env:        env,
			Networking: finalized.Networking,
			StderrLog:  logWriter{logger},
			LockPath:   sd.LockPath(),
			Logger:     logger,
		})
		return be, cleanup, err

	case workspace.ServerHTTP:
		url := pathtemplate.Resolve(rec.HTTP.URL, templateCtx)
		headers, err := resolver.ResolveAll(rec.HTTP.Headers)
		if err != nil {
			return nil, cleanup, fmt.Errorf("resolve http headers: %w", err)
		}
		return backend.NewHTTP(backend.HTTPConfig{URL: url, Headers: headers}), cleanup, nil

	default:
		return nil, cleanup, fmt.Errorf("unknown server kind %q", rec.Kind)
	}
}

// logWriter adapts a *slog.Logger into an io.Writer for a backend child's
// captured stderr.
type logWriter struct{ logger *slog.Logger }

func (w logWriter) Write(p []byte) (int, error) {
	w.logger.Warn("child stderr", "data", string(p))
	return len(p), nil
}
