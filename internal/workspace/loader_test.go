package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlConfig = `version: 1
mcpServers:
  echo:
    http:
      url: "https://example/mcp"
options:
  logMcpTraffic: true
`

const jsonConfig = `{
  "version": 1,
  "mcpServers": {
    "echo": {"http": {"url": "https://example/mcp"}}
  },
  "options": {"logMcpTraffic": true}
}`

const tomlConfig = `version = 1

[mcpServers.echo.http]
url = "https://example/mcp"

[options]
logMcpTraffic = true
`

func TestDecodeFileAllThreeFormats(t *testing.T) {
	for _, tc := range []struct {
		name string
		ext  string
		body string
	}{
		{"yaml", "yaml", yamlConfig},
		{"json", "json", jsonConfig},
		{"toml", "toml", tomlConfig},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "mcpadre."+tc.ext)
			require.NoError(t, os.WriteFile(path, []byte(tc.body), 0o644))

			cfg, err := decodeFile(path)
			require.NoError(t, err)
			require.Equal(t, 1, cfg.Version)
			require.Contains(t, cfg.MCPServers, "echo")
			assert.Equal(t, ServerHTTP, cfg.MCPServers["echo"].Kind)
			assert.Equal(t, "https://example/mcp", cfg.MCPServers["echo"].HTTP.URL)
			assert.True(t, cfg.Options.LogMCPTraffic)
		})
	}
}

func TestFindProjectDirWalksUpward(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "mcpadre.yaml"), []byte(yamlConfig), 0o644))

	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	dir, path, err := FindProjectDir(nested, false)
	require.NoError(t, err)
	assert.Equal(t, root, dir)
	assert.Equal(t, filepath.Join(root, "mcpadre.yaml"), path)
}

func TestFindProjectDirNoParentStopsImmediately(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "mcpadre.yaml"), []byte(yamlConfig), 0o644))

	nested := filepath.Join(root, "a")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	_, path, err := FindProjectDir(nested, true)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestLoadProjectMode(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "mcpadre.yaml"), []byte(yamlConfig), 0o644))

	t.Setenv("MCPADRE_USER_DIR", filepath.Join(root, "no-such-user-dir"))

	ctx, err := Load(LoadOptions{Dir: root})
	require.NoError(t, err)
	assert.Equal(t, ModeProject, ctx.Mode)
	assert.Equal(t, root, ctx.Dir)
	_, ok := ctx.Server("echo")
	assert.True(t, ok)
}

func TestLoadProjectModeFailsWithNoConfig(t *testing.T) {
	root := t.TempDir()
	t.Setenv("MCPADRE_USER_DIR", filepath.Join(root, "no-such-user-dir"))

	_, err := Load(LoadOptions{Dir: root, NoParent: true})
	assert.Error(t, err)
}

func TestMergeProjectWinsMCPServersUserWinsHostFlags(t *testing.T) {
	trueVal, falseVal := true, false
	project := &Config{
		MCPServers: map[string]*ServerRecord{"a": {Name: "a", Kind: ServerShell}},
		Hosts:      map[HostKey]*bool{HostCursor: &trueVal},
	}
	user := &Config{
		MCPServers: map[string]*ServerRecord{"b": {Name: "b", Kind: ServerShell}},
		Hosts:      map[HostKey]*bool{HostCursor: &falseVal, HostZed: &trueVal},
	}

	merged := Merge(project, user)
	assert.Contains(t, merged.MCPServers, "a")
	assert.NotContains(t, merged.MCPServers, "b") // project wins on mcpServers
	assert.Equal(t, &falseVal, merged.Hosts[HostCursor]) // user overrides project
	assert.Equal(t, &trueVal, merged.Hosts[HostZed])     // user-only host carries through
}
