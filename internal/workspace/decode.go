package workspace

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"mcpadre.dev/mcpadre/internal/envrecipe"
	"mcpadre.dev/mcpadre/internal/sandbox"
)

// rawServerRecord mirrors ServerRecord's YAML shape: shared fields plus
// exactly one populated variant key, using a "decode into optional
// pointers, then check which one is set" technique generalized from two
// fields to five.
type rawServerRecord struct {
	Env           map[string]envrecipe.Value `yaml:"env"`
	Sandbox       *rawSandbox                `yaml:"sandbox"`
	LogMCPTraffic bool                       `yaml:"logMcpTraffic"`
	AllowUpgrade  bool                       `yaml:"installImplicitlyUpgradesChangedPackages"`

	Shell     *ShellServer     `yaml:"shell"`
	Python    *PythonServer    `yaml:"python"`
	Node      *NodeServer      `yaml:"node"`
	Container *ContainerServer `yaml:"container"`
	HTTP      *HTTPServer      `yaml:"http"`
}

type rawSandbox struct {
	Enabled           *bool    `yaml:"enabled"`
	Networking        *bool    `yaml:"networking"`
	OmitSystemPaths   bool     `yaml:"omitSystemPaths"`
	OmitWorkspacePath bool     `yaml:"omitWorkspacePath"`
	AllowRead         []string `yaml:"allowRead"`
	AllowReadWrite    []string `yaml:"allowReadWrite"`
}

// UnmarshalYAML implements the "Server record" tagged union.
func (s *ServerRecord) UnmarshalYAML(node *yaml.Node) error {
	var raw rawServerRecord
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("decode server record: %w", err)
	}

	set := 0
	if raw.Shell != nil {
		set++
	}
	if raw.Python != nil {
		set++
	}
	if raw.Node != nil {
		set++
	}
	if raw.Container != nil {
		set++
	}
	if raw.HTTP != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("server record must have exactly one of shell/python/node/container/http, got %d", set)
	}

	s.Env = raw.Env
	s.LogMCPTraffic = raw.LogMCPTraffic
	s.AllowUpgrade = raw.AllowUpgrade
	s.Shell = raw.Shell
	s.Python = raw.Python
	s.Node = raw.Node
	s.Container = raw.Container
	s.HTTP = raw.HTTP

	switch {
	case raw.Shell != nil:
		s.Kind = ServerShell
	case raw.Python != nil:
		s.Kind = ServerPython
	case raw.Node != nil:
		s.Kind = ServerNode
	case raw.Container != nil:
		s.Kind = ServerContainer
	case raw.HTTP != nil:
		s.Kind = ServerHTTP
	}

	if raw.Sandbox != nil {
		s.Sandbox = sandbox.Options{
			Enabled:           raw.Sandbox.Enabled,
			Networking:        raw.Sandbox.Networking,
			OmitSystemPaths:   raw.Sandbox.OmitSystemPaths,
			OmitWorkspacePath: raw.Sandbox.OmitWorkspacePath,
			AllowRead:         raw.Sandbox.AllowRead,
			AllowReadWrite:    raw.Sandbox.AllowReadWrite,
		}
	}
	return nil
}

// rawConfig mirrors Config's top-level YAML/JSON shape.
type rawConfig struct {
	Version    int                      `yaml:"version" json:"version" toml:"version"`
	MCPServers map[string]*ServerRecord `yaml:"mcpServers" json:"mcpServers" toml:"mcpServers"`
	Env        map[string]envrecipe.Value `yaml:"env" json:"env" toml:"env"`
	Hosts      map[string]*bool         `yaml:"hosts" json:"hosts" toml:"hosts"`
	Options    *rawOptions              `yaml:"options" json:"options" toml:"options"`
}

type rawOptions struct {
	LogMCPTraffic                            bool     `yaml:"logMcpTraffic" json:"logMcpTraffic" toml:"logMcpTraffic"`
	InstallImplicitlyUpgradesChangedPackages bool     `yaml:"installImplicitlyUpgradesChangedPackages" json:"installImplicitlyUpgradesChangedPackages" toml:"installImplicitlyUpgradesChangedPackages"`
	SkipGitignoreOnInstall                   bool     `yaml:"skipGitignoreOnInstall" json:"skipGitignoreOnInstall" toml:"skipGitignoreOnInstall"`
	DisableAllSandboxes                      bool     `yaml:"disableAllSandboxes" json:"disableAllSandboxes" toml:"disableAllSandboxes"`
	ExtraAllowRead                            []string `yaml:"extraAllowRead" json:"extraAllowRead" toml:"extraAllowRead"`
	ExtraAllowWrite                           []string `yaml:"extraAllowWrite" json:"extraAllowWrite" toml:"extraAllowWrite"`
}

func (r rawConfig) toConfig() (*Config, error) {
	cfg := &Config{
		Version:    r.Version,
		MCPServers: r.MCPServers,
		Env:        r.Env,
	}
	for name, rec := range cfg.MCPServers {
		if rec != nil {
			rec.Name = name
		}
	}
	if r.Hosts != nil {
		cfg.Hosts = make(map[HostKey]*bool, len(r.Hosts))
		for k, v := range r.Hosts {
			key := HostKey(k)
			if !validHostKey(key) {
				return nil, fmt.Errorf("unknown host key %q", k)
			}
			cfg.Hosts[key] = v
		}
	}
	if r.Options != nil {
		cfg.Options = Options{
			LogMCPTraffic: r.Options.LogMCPTraffic,
			InstallImplicitlyUpgradesChangedPackages: r.Options.InstallImplicitlyUpgradesChangedPackages,
			SkipGitignoreOnInstall:                   r.Options.SkipGitignoreOnInstall,
			DisableAllSandboxes:                       r.Options.DisableAllSandboxes,
			ExtraAllowRead:                             r.Options.ExtraAllowRead,
			ExtraAllowWrite:                            r.Options.ExtraAllowWrite,
		}
	}
	return cfg, nil
}

func validHostKey(k HostKey) bool {
	switch k {
	case HostClaudeCode, HostClaudeDesktop, HostCursor, HostOpencode, HostZed, HostVSCode:
		return true
	default:
		return false
	}
}
