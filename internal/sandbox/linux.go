package sandbox

import "context"

// linuxLauncher wraps commands with bubblewrap (bwrap), the namespace-based
// sandboxing primitive used the same way by the pack's bubblewrap-backed
// sandbox package: deny-by-default, enumerate allowed binds, and optionally
// drop networking via a fresh network namespace.
type linuxLauncher struct{ policy Finalized }

// Argv renders the bwrap invocation for l.policy, excluding the trailing
// `-- <command>` which Wrap appends.
func (l linuxLauncher) Argv() []string {
	argv := []string{
		"bwrap",
		"--die-with-parent",
		"--proc", "/proc",
		"--dev", "/dev",
		"--tmpfs", "/tmp",
	}
	for _, p := range l.policy.AllowRead {
		argv = append(argv, "--ro-bind", p, p)
	}
	for _, p := range l.policy.AllowReadWrite {
		argv = append(argv, "--bind", p, p)
	}
	if !l.policy.Networking {
		argv = append(argv, "--unshare-net")
	}
	return argv
}

func (l linuxLauncher) Wrap(argv []string) []string {
	return append(append([]string{}, l.Argv()...), append([]string{"--"}, argv...)...)
}

func (l linuxLauncher) Validate(ctx context.Context) error {
	return probe(ctx, []string{"bwrap", "--die-with-parent", "--", "/bin/true"})
}
