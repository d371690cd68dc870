package containerlock

import "fmt"

// Decision is the result of the shouldPull decision function.
type Decision struct {
	ShouldPull bool
	Reason     string
	IsError    bool
}

// RemoteDigestFunc resolves the current remote digest for image:tag.
// Injected so tests can avoid a real registry round-trip; the production
// implementation is Resolver.RemoteDigest (pull.go), grounded on
// xfeldman-aegisvm/internal/image/pull.go's remote.Get call.
type RemoteDigestFunc func(image, tag string) (string, error)

// ShouldPull implements the pull decision table.
func ShouldPull(lock *Lock, image, tag string, pullWhenDigestChanges bool, remoteDigest RemoteDigestFunc) (Decision, error) {
	if lock == nil {
		return Decision{ShouldPull: true, Reason: "no existing lock"}, nil
	}
	if lock.Tag != tag {
		return Decision{IsError: true, Reason: "tag mismatch; reinstall"}, nil
	}
	if !pullWhenDigestChanges {
		return Decision{ShouldPull: false, Reason: "pinned by digest"}, nil
	}

	remote, err := remoteDigest(image, tag)
	if err != nil {
		return Decision{}, fmt.Errorf("resolve remote digest for %s:%s: %w", image, tag, err)
	}
	if remote == lock.Digest {
		return Decision{ShouldPull: false, Reason: "remote digest unchanged"}, nil
	}
	return Decision{ShouldPull: true, Reason: "remote digest changed"}, nil
}
