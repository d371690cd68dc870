package sandbox

import (
	"context"
	"fmt"
	"strings"
)

// darwinLauncher wraps commands with `sandbox-exec -p <profile>`, building
// a Scheme-like Seatbelt profile.
type darwinLauncher struct{ policy Finalized }

// Profile renders the Seatbelt policy string for l.policy. Exported so
// tests can assert on its exact shape.
func (l darwinLauncher) Profile() string {
	var b strings.Builder
	b.WriteString("(version 1)\n")
	b.WriteString(`(import "system.sb")` + "\n")
	b.WriteString("(deny default)\n")
	b.WriteString("(allow mach*)\n")
	if l.policy.Networking {
		b.WriteString("(allow network*)\n")
	}
	for _, p := range l.policy.AllowRead {
		fmt.Fprintf(&b, "(allow file-read* (subpath %s))\n", quoteSB(p))
	}
	for _, p := range l.policy.AllowReadWrite {
		fmt.Fprintf(&b, "(allow file-read* file-write* (subpath %s))\n", quoteSB(p))
	}
	return b.String()
}

func (l darwinLauncher) Wrap(argv []string) []string {
	return append([]string{"sandbox-exec", "-p", l.Profile()}, argv...)
}

func (l darwinLauncher) Validate(ctx context.Context) error {
	return probe(ctx, []string{"sandbox-exec", "-p", "(version 1)\n(allow default)\n", "/usr/bin/true"})
}

func quoteSB(path string) string {
	return `"` + strings.ReplaceAll(path, `"`, `\"`) + `"`
}
