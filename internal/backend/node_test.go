package backend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcpadre.dev/mcpadre/internal/workspace"
)

func TestNewNodeWithBinUsesNodeBinPath(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// "node" need not exist: the recording launcher captures the argv NewNode
	// builds and substitutes a command that is always present.
	rec := &recordingLauncher{}
	s, err := NewNode(ctx, NodeConfig{
		Server:   &workspace.NodeServer{Bin: "my-cli"},
		Cwd:      t.TempDir(),
		Launcher: rec,
	})
	require.NoError(t, err)
	defer s.Stop(ctx)
	assert.Equal(t, []string{"node", "./node_modules/.bin/my-cli"}, rec.argv)
}

type recordingLauncher struct{ argv []string }

func (l *recordingLauncher) Wrap(argv []string) []string {
	l.argv = argv
	return []string{"true"}
}

func (l *recordingLauncher) Validate(context.Context) error { return nil }

func TestNewPythonFailsPreflightWhenToolsMissing(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewPython(ctx, PythonConfig{
		Server:   &workspace.PythonServer{Package: "pkg", Version: "1.0.0"},
		Cwd:      t.TempDir(),
		LookPath: func(string) (string, error) { return "", assertNotFound{} },
	})
	require.Error(t, err)
}

type assertNotFound struct{}

func (assertNotFound) Error() string { return "not found" }
