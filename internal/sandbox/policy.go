// Package sandbox resolves sandbox policy and turns a finalized policy
// into a platform-specific launcher wrapper that prepends a sandboxing
// primitive's own argv in front of the command, the same way a command
// gets wrapped in `/bin/bash -c` before exec.Command.
package sandbox

import (
	"path/filepath"
	"runtime"
	"sort"

	"mcpadre.dev/mcpadre/internal/pathtemplate"
)

// Options is the raw, unresolved sandbox configuration, as read from a
// server record or workspace-level settings.
type Options struct {
	Enabled           *bool // nil means "unset, use default/merge"
	Networking        *bool
	OmitSystemPaths   bool
	OmitWorkspacePath bool
	AllowRead         []string // path templates
	AllowReadWrite    []string
}

// WorkspaceOptions are the workspace-wide sandbox knobs from Options.
type WorkspaceOptions struct {
	ExtraAllowRead      []string
	ExtraAllowWrite     []string
	DisableAllSandboxes bool
}

// Finalized is the resolved policy: every path absolute and canonicalized,
// ready to hand to a platform Launcher.
type Finalized struct {
	Enabled        bool
	Networking     bool
	AllowRead      []string // sorted, deduplicated, absolute
	AllowReadWrite []string // sorted, deduplicated, absolute; subset of AllowRead
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// Resolve merges built-in defaults, the server's sandbox block, and
// workspace-wide extras/overrides in that order, then resolves every path
// template and appends system/workspace paths. extraRead and
// extraReadWrite are additional absolute paths a caller wants unioned in
// after the config-driven paths (e.g. a Python toolchain's own cache dirs).
func Resolve(
	server Options,
	workspace WorkspaceOptions,
	templateCtx pathtemplate.Context,
	workspaceRoot string,
	extraRead, extraReadWrite []string,
) Finalized {
	enabled := boolOr(server.Enabled, true)
	networking := boolOr(server.Networking, true)

	readSet := newPathSet()
	writeSet := newPathSet()

	for _, t := range server.AllowRead {
		readSet.addTemplate(t, templateCtx, workspaceRoot)
	}
	for _, t := range server.AllowReadWrite {
		writeSet.addTemplate(t, templateCtx, workspaceRoot)
	}
	for _, t := range workspace.ExtraAllowRead {
		readSet.addTemplate(t, templateCtx, workspaceRoot)
	}
	for _, t := range workspace.ExtraAllowWrite {
		writeSet.addTemplate(t, templateCtx, workspaceRoot)
	}

	if workspace.DisableAllSandboxes {
		enabled = false
	}

	if !server.OmitSystemPaths {
		for _, p := range systemReadPaths() {
			readSet.add(p)
		}
	}
	if !server.OmitWorkspacePath {
		readSet.add(workspaceRoot)
	}

	for _, p := range extraRead {
		readSet.add(p)
	}
	for _, p := range extraReadWrite {
		writeSet.add(p)
	}

	// write implies read: allowReadWrite is a subset of allowRead semantically.
	for p := range writeSet.m {
		readSet.add(p)
	}

	return Finalized{
		Enabled:        enabled,
		Networking:     networking,
		AllowRead:      readSet.sorted(),
		AllowReadWrite: writeSet.sorted(),
	}
}

type pathSet struct{ m map[string]struct{} }

func newPathSet() *pathSet { return &pathSet{m: make(map[string]struct{})} }

func (s *pathSet) add(p string) {
	if p == "" {
		return
	}
	s.m[filepath.Clean(p)] = struct{}{}
}

func (s *pathSet) addTemplate(tmpl string, ctx pathtemplate.Context, workspaceRoot string) {
	s.add(pathtemplate.ResolvePath(tmpl, ctx, workspaceRoot))
}

func (s *pathSet) sorted() []string {
	out := make([]string, 0, len(s.m))
	for p := range s.m {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Platform identifies which launcher enforces a Finalized policy.
type Platform string

const (
	PlatformDarwin      Platform = "darwin"
	PlatformLinux       Platform = "linux"
	PlatformUnsupported Platform = "unsupported"
)

// DetectPlatform maps runtime.GOOS to the Platform whose launcher applies.
func DetectPlatform() Platform {
	switch runtime.GOOS {
	case "darwin":
		return PlatformDarwin
	case "linux":
		return PlatformLinux
	default:
		return PlatformUnsupported
	}
}

// systemReadPaths are appended to allowRead unless omitted.
func systemReadPaths() []string {
	base := []string{"/bin", "/usr/bin", "/usr/lib", "/usr/share"}
	switch runtime.GOOS {
	case "darwin":
		return append(base, "/System/Library", "/usr/libexec", "/private/etc")
	case "linux":
		return append(base, "/lib", "/lib64", "/etc/ld.so.cache", "/etc/resolv.conf")
	default:
		return base
	}
}
