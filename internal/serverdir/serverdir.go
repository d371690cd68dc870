// Package serverdir implements per-server directory layout and logging:
// the same managed-.gitignore-next-to-a-state-directory pattern,
// generalized from one flat log directory to one subdirectory per
// configured server.
package serverdir

import (
	"fmt"
	"os"
	"path/filepath"

	"mcpadre.dev/mcpadre/internal/dirs"
)

// Dir is the materialized on-disk layout for one server, rooted at
// <workspace>/.mcpadre/servers/<name>/.
type Dir struct {
	Root    string
	LogsDir string
}

// For returns the Dir for serverName under workspaceRoot, creating the
// server directory, its logs subdirectory, and the managed top-level
// .gitignore if absent.
func For(workspaceRoot, serverName string, skipGitignore bool) (Dir, error) {
	root := filepath.Join(workspaceRoot, dirs.StateRoot, dirs.ServersDir, serverName)
	logsDir := filepath.Join(root, "logs")

	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return Dir{}, fmt.Errorf("serverdir: create %s: %w", logsDir, err)
	}

	if !skipGitignore {
		if err := writeManagedGitignore(filepath.Join(workspaceRoot, dirs.StateRoot)); err != nil {
			return Dir{}, err
		}
	}

	return Dir{Root: root, LogsDir: logsDir}, nil
}

// writeManagedGitignore ignores everything under .mcpadre/ except the
// .gitignore itself, mirroring internal/logs.Setup's devToolsDir gitignore,
// generalized from "ignore the state directory" to cover servers/ and logs/
// both.
func writeManagedGitignore(stateRoot string) error {
	gitignorePath := filepath.Join(stateRoot, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("serverdir: stat %s: %w", gitignorePath, err)
	}

	content := "*\n!.gitignore\n"
	if err := os.WriteFile(gitignorePath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("serverdir: write %s: %w", gitignorePath, err)
	}
	return nil
}

// VolumePath returns the default host path for a container volume named
// key: <server_dir>/vol-<key>.
func (d Dir) VolumePath(key string) string {
	return filepath.Join(d.Root, "vol-"+key)
}

// LockPath returns <root>/lock.json.
func (d Dir) LockPath() string { return filepath.Join(d.Root, "lock.json") }
