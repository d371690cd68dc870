package sandbox

import (
	"context"
	"fmt"
)

// ValidationResult reports whether the launcher's primitive is usable and,
// if not, whether that is fatal: a disabled sandbox requested on an
// unsupported platform is a warning, not a fatal error; conversely an
// *enabled* policy that cannot be enforced is fatal.
type ValidationResult struct {
	Fatal   bool
	Message string
}

// Validate probes the launcher and classifies any failure as fatal or
// warn-only depending on whether the policy actually requires enforcement.
func Validate(ctx context.Context, platform Platform, policy Finalized, launcher Launcher) ValidationResult {
	if !policy.Enabled {
		if platform == PlatformUnsupported {
			return ValidationResult{Fatal: false, Message: "sandbox disabled and platform has no sandboxing primitive; running unconfined"}
		}
		return ValidationResult{}
	}
	if platform == PlatformUnsupported {
		return ValidationResult{Fatal: true, Message: "sandbox enabled but platform has no sandboxing primitive"}
	}
	if err := launcher.Validate(ctx); err != nil {
		return ValidationResult{Fatal: true, Message: fmt.Sprintf("sandbox enabled but validation failed: %v", err)}
	}
	return ValidationResult{}
}
