package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"mcpadre.dev/mcpadre/internal/workspace"
)

func TestNewContainerFailsWithoutLockFile(t *testing.T) {
	_, err := NewContainer(context.Background(), ContainerConfig{
		Server:    &workspace.ContainerServer{Image: "img", Tag: "1.0.0"},
		ServerDir: t.TempDir(),
	})
	assert.Error(t, err)
}
