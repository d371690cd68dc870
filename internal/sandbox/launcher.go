package sandbox

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// Launcher wraps a command line so that it executes under the finalized
// policy. Wrap returns the argv to exec instead of the bare command — e.g.
// ["sandbox-exec", "-p", profile, "cmd", "arg1"] on macOS.
type Launcher interface {
	// Wrap returns the argv that enforces policy around argv. For a
	// pass-through launcher (disabled policy, unsupported platform,
	// container backend) Wrap returns argv unchanged.
	Wrap(argv []string) []string

	// Validate probes whether the platform's sandboxing primitive is
	// available and functional. A disabled sandbox on an unsupported
	// platform is not an error here — callers decide fatal-vs-warn.
	Validate(ctx context.Context) error
}

// passthroughLauncher never modifies argv; used when the policy is disabled
// or the platform has no enforcement primitive.
type passthroughLauncher struct{ reason string }

func (passthroughLauncher) Wrap(argv []string) []string { return argv }
func (l passthroughLauncher) Validate(context.Context) error {
	return nil
}

// NewLauncher picks the Launcher for policy on the given platform. A
// disabled policy, or the "none" container case (policy applied by the
// container runtime instead), always yields a pass-through launcher.
func NewLauncher(platform Platform, policy Finalized, appliesDirectly bool) Launcher {
	if !policy.Enabled || !appliesDirectly {
		return passthroughLauncher{reason: "disabled or not directly applicable"}
	}
	switch platform {
	case PlatformDarwin:
		return darwinLauncher{policy: policy}
	case PlatformLinux:
		return linuxLauncher{policy: policy}
	default:
		return passthroughLauncher{reason: "unsupported platform"}
	}
}

// probe runs argv and reports whether it exited zero within a short bound,
// used by each platform Launcher's Validate to confirm the underlying
// primitive (sandbox-exec, bwrap) is present and functional.
func probe(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("sandbox: empty probe command")
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("sandbox: probe %v failed: %w", argv, err)
	}
	return nil
}
