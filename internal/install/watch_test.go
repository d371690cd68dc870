package install

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mcpadre.dev/mcpadre/internal/workspace"
)

const watchTestConfigV1 = `version: 1
mcpServers:
  sh:
    shell:
      command: cat
`

const watchTestConfigV2 = watchTestConfigV1 + `  sh2:
    shell:
      command: echo
`

func TestWatchReloadsOnConfigWrite(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "mcpadre.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(watchTestConfigV1), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloads, err := Watch(ctx, workspace.LoadOptions{Dir: dir, NoParent: true}, Options{RunCommand: noopRunCommand})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(cfgPath, []byte(watchTestConfigV2), 0o644))

	select {
	case r := <-reloads:
		require.NoError(t, r.Err)
		require.Len(t, r.Results, 2)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	_, ok := <-reloads
	for ok {
		_, ok = <-reloads
	}
}
