package envrecipe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mcpadre.dev/mcpadre/internal/pathtemplate"
	"gopkg.in/yaml.v3"
)

func mustDecode(t *testing.T, doc string) map[string]Value {
	t.Helper()
	var out map[string]Value
	require.NoError(t, yaml.Unmarshal([]byte(doc), &out))
	return out
}

func TestResolveAllVariants(t *testing.T) {
	doc := `
literal: "plain-{{parentEnv.USER}}"
passed: {pass: USER}
missingPassed: {pass: NOPE}
dir: {special: workspace}
stringTmpl: {string: "{{dirs.home}}/x"}
`
	values := mustDecode(t, doc)
	r := NewResolver(pathtemplate.Context{
		Dirs:      pathtemplate.Dirs{Home: "/home/bob", Workspace: "/ws"},
		ParentEnv: map[string]string{"USER": "bob"},
	}, "/ws")

	out, err := r.ResolveAll(values)
	require.NoError(t, err)
	assert.Equal(t, "plain-bob", out["literal"])
	assert.Equal(t, "bob", out["passed"])
	assert.Equal(t, "", out["missingPassed"])
	assert.Equal(t, "/ws", out["dir"])
	assert.Equal(t, "/home/bob/x", out["stringTmpl"])
}

func TestResolveCommandSuccess(t *testing.T) {
	r := &Resolver{RunCommand: func(ctx context.Context, cmd, cwd string) (string, error) {
		return "output\n", nil
	}}
	got, err := r.ResolveOne("k", Value{Command: "echo output", kind: kindCommand})
	require.NoError(t, err)
	assert.Equal(t, "output\n", got)
}

func TestResolveCommandFailureYieldsError(t *testing.T) {
	boom := errors.New("exit 1")
	r := &Resolver{RunCommand: func(ctx context.Context, cmd, cwd string) (string, error) {
		return "", boom
	}}
	_, err := r.ResolveOne("k", Value{Command: "false", kind: kindCommand})
	require.Error(t, err)
	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.ErrorIs(t, cmdErr, boom)
}
