package sandbox

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mcpadre.dev/mcpadre/internal/pathtemplate"
)

func falsePtr() *bool { f := false; return &f }
func truePtr() *bool   { t := true; return &t }

func TestResolveAllPathsAbsolute(t *testing.T) {
	ctx := pathtemplate.Context{Dirs: pathtemplate.Dirs{Workspace: "/work/proj"}}
	f := Resolve(Options{AllowRead: []string{"relative/sub"}}, WorkspaceOptions{}, ctx, "/work/proj", nil, nil)
	for _, p := range f.AllowRead {
		require.True(t, filepath.IsAbs(p), "expected absolute path, got %q", p)
	}
}

func TestResolveEmptyAllowReadStillGetsSystemAndWorkspace(t *testing.T) {
	ctx := pathtemplate.Context{Dirs: pathtemplate.Dirs{Workspace: "/work/proj"}}
	f := Resolve(Options{}, WorkspaceOptions{}, ctx, "/work/proj", nil, nil)
	assert.Contains(t, f.AllowRead, "/work/proj")
	assert.Contains(t, f.AllowRead, "/usr/bin")
	assert.True(t, f.Enabled)
	assert.True(t, f.Networking)
}

func TestDisableAllSandboxesOverridesEnabled(t *testing.T) {
	ctx := pathtemplate.Context{Dirs: pathtemplate.Dirs{Workspace: "/work/proj"}}
	f := Resolve(Options{Enabled: truePtr()}, WorkspaceOptions{DisableAllSandboxes: true}, ctx, "/work/proj", nil, nil)
	assert.False(t, f.Enabled)
}

func TestOmitSystemPathsExcludesSystemPaths(t *testing.T) {
	ctx := pathtemplate.Context{Dirs: pathtemplate.Dirs{Workspace: "/work/proj"}}
	f := Resolve(Options{OmitSystemPaths: true}, WorkspaceOptions{}, ctx, "/work/proj", nil, nil)
	assert.NotContains(t, f.AllowRead, "/usr/bin")
	assert.Contains(t, f.AllowRead, "/work/proj")
}

func TestWriteImpliesRead(t *testing.T) {
	ctx := pathtemplate.Context{Dirs: pathtemplate.Dirs{Workspace: "/work/proj"}}
	f := Resolve(Options{AllowReadWrite: []string{"/data"}}, WorkspaceOptions{}, ctx, "/work/proj", nil, nil)
	assert.Contains(t, f.AllowRead, "/data")
	assert.Contains(t, f.AllowReadWrite, "/data")
}

func TestWorkspaceExtrasUnioned(t *testing.T) {
	ctx := pathtemplate.Context{Dirs: pathtemplate.Dirs{Workspace: "/work/proj"}}
	f := Resolve(Options{}, WorkspaceOptions{ExtraAllowRead: []string{"/extra"}}, ctx, "/work/proj", nil, nil)
	assert.Contains(t, f.AllowRead, "/extra")
}

func TestDarwinProfileShape(t *testing.T) {
	f := Finalized{Enabled: true, Networking: false, AllowRead: []string{"/Users/x/ws"}}
	l := darwinLauncher{policy: f}
	profile := l.Profile()
	assert.Contains(t, profile, "(deny default)")
	assert.NotContains(t, profile, "(allow network*)")
	assert.Equal(t, 1, strings.Count(profile, `(allow file-read* (subpath "/Users/x/ws"))`))
}

func TestNewLauncherPassthroughWhenDisabled(t *testing.T) {
	l := NewLauncher(PlatformDarwin, Finalized{Enabled: false}, true)
	argv := []string{"echo", "hi"}
	assert.Equal(t, argv, l.Wrap(argv))
}

func TestNewLauncherPassthroughForContainer(t *testing.T) {
	l := NewLauncher(PlatformLinux, Finalized{Enabled: true}, false)
	argv := []string{"echo", "hi"}
	assert.Equal(t, argv, l.Wrap(argv))
}
