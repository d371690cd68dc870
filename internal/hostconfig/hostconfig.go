// Package hostconfig ships the host configuration injection interfaces and
// a registry of the six host descriptors: concrete per-host JSON/YAML
// editors that rewrite an editor's own config file are delegated out of
// core scope ("host-specific config file editors" is an out-of-scope
// external collaborator). internal/workspace does not import this package;
// it validates a config's `hosts` keys against its own fixed list of
// HostKey constants.
package hostconfig

import "mcpadre.dev/mcpadre/internal/workspace"

// ManagedKey is the JSON/YAML key a host's own config file uses for its MCP
// server map — mcpServers, servers, context_servers, or mcp.
type ManagedKey string

// Analysis reports how a host's managed-key entries split after an update.
type Analysis struct {
	MCPadreManaged []string // entries mcpadre owns and wrote
	External       []string // foreign entries left untouched
	MCPadreOrphaned []string // entries mcpadre previously owned but the workspace no longer declares
}

// Updater rewrites a host's own config document to inject
// `mcpadre run [--user] <name>` invocations for mcpadre-managed servers,
// while preserving foreign entries byte-identical except formatting.
type Updater interface {
	// Update merges servers into existingText's managed key and returns the
	// rewritten document.
	Update(existingText string, servers []string) (string, error)

	// UpdateWithAnalysis does the same, additionally reporting which
	// entries are mcpadre-managed, foreign, or orphaned.
	UpdateWithAnalysis(existingText string, servers []string) (text string, analysis Analysis, err error)
}

// Descriptor is everything core needs to know about one host.
type Descriptor struct {
	Key              workspace.HostKey
	ProjectConfigRel string     // project config path, relative to workspace root
	ManagedKey       ManagedKey // the JSON/YAML key this host nests servers under
	ShouldGitignore  bool       // whether the host's config path should be gitignored
	SupportsUser     bool       // whether this host has a user-level config at all

	// UserConfigPath returns the absolute path to this host's user-level
	// config; it is nil when SupportsUser is false. Taking homeDir as a parameter
	// (rather than reading $HOME internally) keeps this pure and testable.
	UserConfigPath func(homeDir string) string

	// Updater is nil in core: concrete per-host document rewriting is
	// delegated out of scope. A caller that needs one supplies its own
	// implementation of the Updater interface above.
	Updater Updater
}

// Registry is the fixed set of host descriptors, consulted by Valid.
// Concrete Updaters are intentionally nil here; this registry only carries
// the shape (paths, managed key, gitignore policy) that a delegated
// host-config editor would need to do the actual file rewrite.
var Registry = map[workspace.HostKey]Descriptor{
	workspace.HostClaudeCode: {
		Key:              workspace.HostClaudeCode,
		ProjectConfigRel: ".mcp.json",
		ManagedKey:       "mcpServers",
		ShouldGitignore:  false,
		SupportsUser:     false,
	},
	workspace.HostClaudeDesktop: {
		Key:              workspace.HostClaudeDesktop,
		ProjectConfigRel: "",
		ManagedKey:       "mcpServers",
		ShouldGitignore:  false,
		SupportsUser:     true,
		UserConfigPath: func(home string) string {
			return home + "/Library/Application Support/Claude/claude_desktop_config.json"
		},
	},
	workspace.HostCursor: {
		Key:              workspace.HostCursor,
		ProjectConfigRel: ".cursor/mcp.json",
		ManagedKey:       "mcpServers",
		ShouldGitignore:  true,
		SupportsUser:     true,
		UserConfigPath: func(home string) string {
			return home + "/.cursor/mcp.json"
		},
	},
	workspace.HostOpencode: {
		Key:              workspace.HostOpencode,
		ProjectConfigRel: "opencode.json",
		ManagedKey:       "mcp",
		ShouldGitignore:  false,
		SupportsUser:     false,
	},
	workspace.HostZed: {
		Key:              workspace.HostZed,
		ProjectConfigRel: ".zed/settings.json",
		ManagedKey:       "context_servers",
		ShouldGitignore:  true,
		SupportsUser:     true,
		UserConfigPath: func(home string) string {
			return home + "/.config/zed/settings.json"
		},
	},
	workspace.HostVSCode: {
		Key:              workspace.HostVSCode,
		ProjectConfigRel: ".vscode/mcp.json",
		ManagedKey:       "servers",
		ShouldGitignore:  true,
		SupportsUser:     false,
	},
}

// Valid reports whether k names a registered host.
func Valid(k workspace.HostKey) bool {
	_, ok := Registry[k]
	return ok
}
