package containerlock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldPullNoLock(t *testing.T) {
	d, err := ShouldPull(nil, "img", "1.0.0", false, nil)
	require.NoError(t, err)
	assert.True(t, d.ShouldPull)
	assert.Equal(t, "no existing lock", d.Reason)
}

func TestShouldPullTagMismatch(t *testing.T) {
	lock := &Lock{Image: "a", Tag: "1.0.0", Digest: "sha256:aaa"}
	d, err := ShouldPull(lock, "a", "2.0.0", false, nil)
	require.NoError(t, err)
	assert.True(t, d.IsError)
	assert.Equal(t, "tag mismatch; reinstall", d.Reason)
}

func TestShouldPullPinnedByDigest(t *testing.T) {
	lock := &Lock{Image: "a", Tag: "1.0.0", Digest: "sha256:aaa"}
	d, err := ShouldPull(lock, "a", "1.0.0", false, nil)
	require.NoError(t, err)
	assert.False(t, d.ShouldPull)
	assert.Equal(t, "pinned by digest", d.Reason)
}

func TestShouldPullDigestChangedTriggersPull(t *testing.T) {
	lock := &Lock{Image: "a", Tag: "1.0.0", Digest: "sha256:AAA"}
	d, err := ShouldPull(lock, "a", "1.0.0", true, func(image, tag string) (string, error) {
		return "sha256:BBB", nil
	})
	require.NoError(t, err)
	assert.True(t, d.ShouldPull)
}

func TestShouldPullDigestUnchangedSkipsPull(t *testing.T) {
	lock := &Lock{Image: "a", Tag: "1.0.0", Digest: "sha256:AAA"}
	d, err := ShouldPull(lock, "a", "1.0.0", true, func(image, tag string) (string, error) {
		return "sha256:AAA", nil
	})
	require.NoError(t, err)
	assert.False(t, d.ShouldPull)
}

func TestReadWriteRoundTrip(t *testing.T) {
	path := t.TempDir() + "/lock.json"
	want := Lock{Image: "a", Tag: "1.0.0", Digest: "sha256:AAA", PullWhenDigestChanges: true}
	require.NoError(t, Write(path, want))

	got, err := Read(path)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)
}

func TestReadMissingFileIsNilNotError(t *testing.T) {
	got, err := Read(t.TempDir() + "/nope.json")
	require.NoError(t, err)
	assert.Nil(t, got)
}
