package containerlock

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyAtStartTagMismatchAborts(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "lock.json")
	require.NoError(t, Write(lockPath, Lock{Image: "a", Tag: "1.0.0", Digest: "sha256:aaa"}))

	mgr := NewManager(lockPath)
	_, err := mgr.VerifyAtStart(context.Background(), "a", "2.0.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match configured tag")
}

func TestVerifyAtStartMissingLockAborts(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "lock.json"))
	_, err := mgr.VerifyAtStart(context.Background(), "a", "1.0.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run install first")
}

func TestVerifyAtStartMissingLocalImageAborts(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "lock.json")
	require.NoError(t, Write(lockPath, Lock{Image: "a", Tag: "1.0.0", Digest: "sha256:aaa"}))

	mgr := NewManager(lockPath)
	mgr.CheckLocalImage = func(ctx context.Context, image, digest string) error {
		return errors.New("no such image")
	}
	_, err := mgr.VerifyAtStart(context.Background(), "a", "1.0.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not present locally")
}

func TestVerifyAtStartPresentLocalImageSucceeds(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "lock.json")
	require.NoError(t, Write(lockPath, Lock{Image: "a", Tag: "1.0.0", Digest: "sha256:aaa"}))

	mgr := NewManager(lockPath)
	var gotImage, gotDigest string
	mgr.CheckLocalImage = func(ctx context.Context, image, digest string) error {
		gotImage, gotDigest = image, digest
		return nil
	}
	lock, err := mgr.VerifyAtStart(context.Background(), "a", "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "sha256:aaa", lock.Digest)
	assert.Equal(t, "a", gotImage)
	assert.Equal(t, "sha256:aaa", gotDigest)
}
