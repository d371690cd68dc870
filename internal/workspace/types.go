// Package workspace implements the configuration contract: loading,
// validating, and merging a project/user mcpadre.{yaml,json,toml}, and the
// explicit Context object threaded through every core call in place of
// package-level globals.
package workspace

import (
	"mcpadre.dev/mcpadre/internal/envrecipe"
	"mcpadre.dev/mcpadre/internal/sandbox"
)

// ServerKind tags which variant of ServerRecord is populated.
type ServerKind string

const (
	ServerShell     ServerKind = "shell"
	ServerPython    ServerKind = "python"
	ServerNode      ServerKind = "node"
	ServerContainer ServerKind = "container"
	ServerHTTP      ServerKind = "http"
)

// ServerRecord is the tagged-variant server declaration decoded from the
// workspace config's mcpServers map.
type ServerRecord struct {
	Name          string
	Kind          ServerKind
	Env           map[string]envrecipe.Value
	Sandbox       sandbox.Options
	LogMCPTraffic bool
	AllowUpgrade  bool

	Shell     *ShellServer
	Python    *PythonServer
	Node      *NodeServer
	Container *ContainerServer
	HTTP      *HTTPServer
}

// ShellServer is the shell variant.
type ShellServer struct {
	Command string // template
	Cwd     string // template, optional
}

// PythonServer is the python variant.
type PythonServer struct {
	Package       string
	Version       string
	PythonVersion string // optional interpreter pin
	Command       string // optional override; used verbatim, {{…}} placeholders are not resolved
}

// NodeServer is the node variant.
type NodeServer struct {
	Package     string
	Version     string
	NodeVersion string // optional runtime pin
	Bin         string // optional
	Args        string // optional; split on whitespace, {{…}} placeholders are not resolved
}

// Volume is one named container volume.
type Volume struct {
	ContainerPath string
	HostPath      string // optional, used verbatim ({{…}} placeholders are not resolved); defaults to <server_dir>/vol-<key>
	ReadOnly      bool
	SkipGitignore bool
}

// ContainerServer is the container variant.
type ContainerServer struct {
	Image                 string
	Tag                   string
	PullWhenDigestChanges bool
	Command               string // optional; used verbatim, {{…}} placeholders are not resolved
	Volumes               map[string]Volume
}

// HTTPServer is the http variant.
type HTTPServer struct {
	URL     string
	Headers map[string]envrecipe.Value
}

// Options are the workspace-wide settings.
type Options struct {
	LogMCPTraffic                            bool
	InstallImplicitlyUpgradesChangedPackages bool
	SkipGitignoreOnInstall                   bool
	DisableAllSandboxes                      bool
	ExtraAllowRead                            []string
	ExtraAllowWrite                           []string
}

// HostKey is one of the six host identifiers.
type HostKey string

const (
	HostClaudeCode    HostKey = "claude-code"
	HostClaudeDesktop HostKey = "claude-desktop"
	HostCursor        HostKey = "cursor"
	HostOpencode      HostKey = "opencode"
	HostZed           HostKey = "zed"
	HostVSCode        HostKey = "vscode"
)

// Config is the validated in-memory configuration object.
type Config struct {
	Version    int
	MCPServers map[string]*ServerRecord
	Env        map[string]envrecipe.Value
	Hosts      map[HostKey]*bool // nil-map-value semantics handled by merge: absent key means "undefined"
	Options    Options
}
