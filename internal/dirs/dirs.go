// Package dirs holds the fixed on-disk layout shared by every workspace,
// project or user.
package dirs

// StateRoot is the directory, relative to a workspace root, under which all
// mcpadre-owned state lives. Everything else in a workspace belongs to the
// user and is never written to by the runner or installer.
const StateRoot = ".mcpadre"

// ServersDir is the directory, relative to StateRoot, holding one
// subdirectory per configured server.
const ServersDir = "servers"

// LogsDir is the directory, relative to StateRoot, holding infrastructure
// logs (one file per runner invocation, used when stderr is not a TTY).
const LogsDir = "logs"

// UserDirEnvVar overrides the default user workspace root ($HOME/.mcpadre).
const UserDirEnvVar = "MCPADRE_USER_DIR"

// NonInteractiveEnvVar disables prompts anywhere in the CLI when set to "1".
const NonInteractiveEnvVar = "MCPADRE_NON_INTERACTIVE"

// DefaultUserDirName is the directory created under $HOME when no override
// is supplied.
const DefaultUserDirName = ".mcpadre"

// ConfigBaseName is the file stem a project or user workspace config is
// searched for, in order of the extensions below.
const ConfigBaseName = "mcpadre"

// ConfigExtensions lists the recognized config file extensions, in the
// search order used by workspace discovery.
var ConfigExtensions = []string{"yaml", "yml", "json", "toml"}
