//go:build unix

package backend

import (
	"fmt"
	"syscall"
)

// getProcAttrs returns Unix-specific process attributes that create a new
// process group with the spawned child as the leader, so Stop can signal
// the entire subtree with one call. Grounded on the teacher's
// internal/process/manager_unix.go.
func getProcAttrs() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup signals the process group led by pid. ESRCH (already
// gone) is not an error.
func killProcessGroup(pid int, sig syscall.Signal) error {
	if err := syscall.Kill(-pid, sig); err != nil {
		if err == syscall.ESRCH {
			return nil
		}
		return fmt.Errorf("backend: signal process group %d: %w", pid, err)
	}
	return nil
}
