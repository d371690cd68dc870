package workspace

import (
	"os"

	"mcpadre.dev/mcpadre/internal/pathtemplate"
)

func defaultParentEnv() []string { return os.Environ() }

// Context is the explicit, immutable-after-construction object that
// replaces package-level globals (current workspace, current user-mode
// flag): every core call that needs workspace state takes a *Context
// argument rather than reading ambient package state.
type Context struct {
	Mode   Mode
	Dir    string // workspace root: project dir, or the user dir in user mode
	Config *Config

	// TemplateDirs is the {{dirs.*}} namespace for this workspace, evaluated
	// once at runner start — recomputed fresh per process, never cached or
	// memoized on disk.
	TemplateDirs pathtemplate.Dirs

	// ParentEnvFunc returns the process's environment as NAME=VALUE pairs;
	// overridable in tests. Defaults to os.Environ.
	ParentEnvFunc func() []string
}

// TemplateContext builds the pathtemplate.Context for resolving this
// workspace's path/command templates.
func (c *Context) TemplateContext() pathtemplate.Context {
	return pathtemplate.Context{
		Dirs:      c.TemplateDirs,
		ParentEnv: c.parentEnvMap(),
	}
}

func (c *Context) parentEnvMap() map[string]string {
	fn := c.ParentEnvFunc
	if fn == nil {
		fn = defaultParentEnv
	}
	out := map[string]string{}
	for _, kv := range fn() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				out[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return out
}

// Server looks up a server record by name.
func (c *Context) Server(name string) (*ServerRecord, bool) {
	rec, ok := c.Config.MCPServers[name]
	return rec, ok
}
