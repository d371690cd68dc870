package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"mcpadre.dev/mcpadre/internal/dirs"
	"mcpadre.dev/mcpadre/internal/pathtemplate"
)

// Mode tags whether a workspace is project-anchored (a directory containing
// mcpadre.{yaml,json,toml}) or user-anchored (home-relative).
type Mode string

const (
	ModeProject Mode = "project"
	ModeUser    Mode = "user"
)

// Root is one located, loaded workspace — either the project workspace or
// the user workspace. Loader merges at most one of each into a Context.
type Root struct {
	Mode   Mode
	Dir    string // workspace root directory
	Path   string // path to the config file found at Dir, "" if none
	Config *Config // nil if no config file existed at Dir
}

// decodeFile loads path (extension-determined format) into a *Config.
// JSON and TOML are both normalized through an intermediate generic value
// and re-encoded as YAML before decoding into rawConfig: this reuses the
// single YAML-aware tagged-union decoder (ServerRecord.UnmarshalYAML,
// envrecipe.Value.UnmarshalYAML) for all three formats instead of writing
// three parallel sets of UnmarshalJSON/UnmarshalTOML methods: one parse
// path per extension, all funneled through one in-memory shape.
func decodeFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("workspace: read %s: %w", path, err)
	}

	ext := filepath.Ext(path)
	yamlBytes := data
	switch ext {
	case ".json":
		var generic interface{}
		if err := json.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("workspace: parse json %s: %w", path, err)
		}
		yamlBytes, err = yaml.Marshal(generic)
		if err != nil {
			return nil, fmt.Errorf("workspace: normalize json %s: %w", path, err)
		}
	case ".toml":
		var generic interface{}
		if err := toml.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("workspace: parse toml %s: %w", path, err)
		}
		yamlBytes, err = yaml.Marshal(generic)
		if err != nil {
			return nil, fmt.Errorf("workspace: normalize toml %s: %w", path, err)
		}
	case ".yaml", ".yml":
		// already yaml
	default:
		return nil, fmt.Errorf("workspace: unsupported config extension %q", ext)
	}

	var raw rawConfig
	if err := yaml.Unmarshal(yamlBytes, &raw); err != nil {
		return nil, fmt.Errorf("workspace: decode %s: %w", path, err)
	}
	return raw.toConfig()
}

// findConfig searches dir for mcpadre.{yaml,yml,json,toml} in that order.
// Returns ("", nil) if none exists.
func findConfig(dir string) (string, error) {
	for _, ext := range dirs.ConfigExtensions {
		p := filepath.Join(dir, dirs.ConfigBaseName+"."+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("workspace: stat %s: %w", p, err)
		}
	}
	return "", nil
}

// FindProjectDir locates the project workspace root starting at startDir: a
// directory containing an mcpadre config file. If noParent is false (the
// default), it walks upward to the filesystem root; --no-parent disables
// that walk. Returns ("", "", nil) if no project config is found anywhere
// in the walk.
func FindProjectDir(startDir string, noParent bool) (dir, path string, err error) {
	cur, err := filepath.Abs(startDir)
	if err != nil {
		return "", "", fmt.Errorf("workspace: resolve %s: %w", startDir, err)
	}
	for {
		p, err := findConfig(cur)
		if err != nil {
			return "", "", err
		}
		if p != "" {
			return cur, p, nil
		}
		if noParent {
			return "", "", nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", "", nil
		}
		cur = parent
	}
}

// UserDir returns the user workspace root: $MCPADRE_USER_DIR if set,
// otherwise $HOME/.mcpadre.
func UserDir() (string, error) {
	if v := os.Getenv(dirs.UserDirEnvVar); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("workspace: resolve home directory: %w", err)
	}
	return filepath.Join(home, dirs.DefaultUserDirName), nil
}

// LoadOptions controls workspace discovery.
type LoadOptions struct {
	User       bool   // --user: bind to the user workspace instead of project
	Dir        string // --dir: override project workspace directory
	NoParent   bool   // --no-parent: disable walking upward from cwd
	WorkingDir string // cwd to search from when Dir is unset; defaults to os.Getwd()
}

// Load implements workspace context resolution and project/user config
// merge. A user-mode runner loads only the user config (never a project
// config); a project-mode runner loads the project config plus, when
// present, the user config layered under it with user-wins host-flag
// semantics and project-wins mcpServers.
func Load(opts LoadOptions) (*Context, error) {
	userDir, err := UserDir()
	if err != nil {
		return nil, err
	}
	userPath, err := findConfig(userDir)
	if err != nil {
		return nil, err
	}
	var userCfg *Config
	if userPath != "" {
		userCfg, err = decodeFile(userPath)
		if err != nil {
			return nil, err
		}
	}

	if opts.User {
		cfg := userCfg
		if cfg == nil {
			cfg = &Config{Version: 1}
		}
		return newContext(ModeUser, userDir, cfg), nil
	}

	startDir := opts.Dir
	if startDir == "" {
		startDir = opts.WorkingDir
	}
	if startDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("workspace: getwd: %w", err)
		}
		startDir = wd
	}

	projectDir, projectPath, err := FindProjectDir(startDir, opts.NoParent)
	if err != nil {
		return nil, err
	}
	if projectPath == "" {
		return nil, fmt.Errorf("workspace: no mcpadre config found under %s", startDir)
	}
	projectCfg, err := decodeFile(projectPath)
	if err != nil {
		return nil, err
	}

	merged := Merge(projectCfg, userCfg)
	return newContext(ModeProject, projectDir, merged), nil
}

// Merge combines a project config and an optional user config: mcpServers
// keeps project's entries (project wins); a user host flag, when
// explicitly set (true or false), overrides the project's flag for that
// host; an unset ("undefined") user flag defers to the project's value.
func Merge(project, user *Config) *Config {
	if user == nil {
		return project
	}
	merged := *project
	if merged.Hosts == nil && user.Hosts != nil {
		merged.Hosts = make(map[HostKey]*bool, len(user.Hosts))
	}
	for k, v := range user.Hosts {
		if v == nil {
			continue
		}
		if merged.Hosts == nil {
			merged.Hosts = make(map[HostKey]*bool)
		}
		merged.Hosts[k] = v
	}
	return &merged
}

// newContext builds the explicit Context for a located, loaded workspace,
// in place of package-level globals.
func newContext(mode Mode, root string, cfg *Config) *Context {
	return &Context{
		Mode:          mode,
		Dir:           root,
		Config:        cfg,
		TemplateDirs:  dirsFor(root),
		ParentEnvFunc: os.Environ,
	}
}

// dirsFor computes the named-directory set for a workspace rooted at root.
// All mcpadre-owned state lives under <root>/.mcpadre; "temp" is the OS temp
// directory since it is never workspace-specific.
func dirsFor(root string) pathtemplate.Dirs {
	state := filepath.Join(root, dirs.StateRoot)
	home, _ := os.UserHomeDir()
	return pathtemplate.Dirs{
		Home:      home,
		Config:    state,
		Cache:     filepath.Join(state, "cache"),
		Data:      filepath.Join(state, "data"),
		Log:       filepath.Join(state, dirs.LogsDir),
		Temp:      os.TempDir(),
		Workspace: root,
	}
}
