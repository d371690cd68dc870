package containerlock

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/daemon"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/google/go-containerregistry/pkg/v1/types"
)

// PullTimeout bounds a container pull.
const PullTimeout = 60 * time.Second

// Manager coordinates the lock decision, the pull, and lock persistence for
// one server's container backend.
type Manager struct {
	LockPath string

	// CheckLocalImage confirms image@digest is present in the local
	// container engine's image store; overridable in tests to avoid
	// requiring a real daemon. Defaults to verifyLocalImage.
	CheckLocalImage func(ctx context.Context, image, digest string) error
}

// NewManager returns a Manager whose lock file lives at lockPath
// (<server_dir>/lock.json).
func NewManager(lockPath string) *Manager {
	return &Manager{LockPath: lockPath, CheckLocalImage: verifyLocalImage}
}

// Sync runs the full trust-on-first-use flow for one install/runner-start:
// load the existing lock, decide whether to pull, pull if needed, and
// persist the (possibly updated) lock. It returns the resolved digest on
// success.
func (m *Manager) Sync(ctx context.Context, image, tag string, pullWhenDigestChanges bool) (digest string, err error) {
	lock, err := Read(m.LockPath)
	if err != nil {
		return "", err
	}

	decision, err := ShouldPull(lock, image, tag, pullWhenDigestChanges, RemoteDigest)
	if err != nil {
		return "", err
	}
	if decision.IsError {
		return "", fmt.Errorf("container lock for %s: %s", image, decision.Reason)
	}

	if !decision.ShouldPull {
		return lock.Digest, nil
	}

	pullCtx, cancel := context.WithTimeout(ctx, PullTimeout)
	defer cancel()

	newDigest, err := pullDigest(pullCtx, image, tag)
	if err != nil {
		return "", fmt.Errorf("pull %s:%s: %w", image, tag, err)
	}

	if err := Write(m.LockPath, Lock{
		Image:                 image,
		Tag:                   tag,
		Digest:                newDigest,
		PullWhenDigestChanges: pullWhenDigestChanges,
	}); err != nil {
		return "", err
	}
	return newDigest, nil
}

// VerifyAtStart re-reads the lock, confirms record.Tag still matches, and
// confirms the pinned image exists locally with that digest: the runner
// must abort before accepting any stdio if either check fails.
func (m *Manager) VerifyAtStart(ctx context.Context, image, recordTag string) (*Lock, error) {
	lock, err := Read(m.LockPath)
	if err != nil {
		return nil, err
	}
	if lock == nil {
		return nil, fmt.Errorf("no container lock found; run install first")
	}
	if lock.Tag != recordTag {
		return nil, fmt.Errorf("container lock tag %q does not match configured tag %q; run install first", lock.Tag, recordTag)
	}
	checkLocal := m.CheckLocalImage
	if checkLocal == nil {
		checkLocal = verifyLocalImage
	}
	if err := checkLocal(ctx, image, lock.Digest); err != nil {
		return nil, fmt.Errorf("pinned image %s@%s not present locally; run install first: %w", image, lock.Digest, err)
	}
	return lock, nil
}

// verifyLocalImage confirms image@digest is present in the local container
// engine's image store, per §4.4's "verifies the pinned image exists
// locally with that digest; missing ⇒ abort."
func verifyLocalImage(ctx context.Context, image, digest string) error {
	ref, err := name.NewDigest(fmt.Sprintf("%s@%s", image, digest))
	if err != nil {
		return fmt.Errorf("parse image digest ref: %w", err)
	}
	if _, err := daemon.Image(ref, daemon.WithContext(ctx)); err != nil {
		return err
	}
	return nil
}

// hostArch mirrors the platform-matching walk used by
// xfeldman-aegisvm/internal/image/pull.go: mcpadre pulls the image variant
// matching the host architecture.
func hostArch() string { return runtime.GOARCH }

// RemoteDigest resolves the current remote digest for image:tag without
// pulling image layers, used by the pullWhenDigestChanges=true decision path.
func RemoteDigest(image, tag string) (string, error) {
	ref, err := name.ParseReference(fmt.Sprintf("%s:%s", image, tag))
	if err != nil {
		return "", fmt.Errorf("parse image ref: %w", err)
	}
	desc, err := remote.Get(ref, remote.WithPlatform(v1.Platform{OS: runtime.GOOS, Architecture: hostArch()}))
	if err != nil {
		return "", fmt.Errorf("fetch remote descriptor: %w", err)
	}
	return desc.Digest.String(), nil
}

// pullDigest fetches the registry manifest for image:tag (the host-platform
// entry of a multi-platform index) and returns that image's digest,
// grounded directly on xfeldman-aegisvm's image.Pull. It does not download
// layers and does not load the image into the local container engine.
func pullDigest(ctx context.Context, image, tag string) (string, error) {
	ref, err := name.ParseReference(fmt.Sprintf("%s:%s", image, tag))
	if err != nil {
		return "", fmt.Errorf("parse image ref %q: %w", image, err)
	}

	platform := v1.Platform{OS: runtime.GOOS, Architecture: hostArch()}
	desc, err := remote.Get(ref, remote.WithContext(ctx), remote.WithPlatform(platform))
	if err != nil {
		return "", fmt.Errorf("pull %s: %w", image, err)
	}

	var img v1.Image
	switch desc.MediaType {
	case types.OCIImageIndex, types.DockerManifestList:
		idx, err := desc.ImageIndex()
		if err != nil {
			return "", fmt.Errorf("get image index: %w", err)
		}
		manifest, err := idx.IndexManifest()
		if err != nil {
			return "", fmt.Errorf("get index manifest: %w", err)
		}
		for _, m := range manifest.Manifests {
			if m.Platform != nil && m.Platform.OS == platform.OS && m.Platform.Architecture == platform.Architecture {
				img, err = idx.Image(m.Digest)
				if err != nil {
					return "", fmt.Errorf("get %s/%s image: %w", platform.OS, platform.Architecture, err)
				}
				break
			}
		}
		if img == nil {
			return "", fmt.Errorf("no %s/%s variant found in %s", platform.OS, platform.Architecture, image)
		}
	default:
		img, err = desc.Image()
		if err != nil {
			return "", fmt.Errorf("get image: %w", err)
		}
	}

	digest, err := img.Digest()
	if err != nil {
		return "", fmt.Errorf("get digest: %w", err)
	}
	return digest.String(), nil
}
