package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellRunner_Run(t *testing.T) {
	r := NewShellRunner()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		res := r.Run(ctx, Command{Name: "echo", Args: []string{"hello"}})
		assert.True(t, res.Success)
		assert.Equal(t, 0, res.ExitCode)
		assert.Equal(t, "hello\n", res.Stdout)
		assert.Empty(t, res.ErrorMessage)
	})

	t.Run("nonzero exit", func(t *testing.T) {
		res := r.Run(ctx, Shell("echo oops >&2; exit 3"))
		assert.False(t, res.Success)
		assert.Equal(t, 3, res.ExitCode)
		assert.Equal(t, "oops\n", res.Stderr)
		assert.NotEmpty(t, res.ErrorMessage)
	})

	t.Run("missing binary", func(t *testing.T) {
		res := r.Run(ctx, Command{Name: "nonexistent-command-xyz-12345"})
		assert.False(t, res.Success)
		assert.Equal(t, -1, res.ExitCode)
		assert.NotEmpty(t, res.ErrorMessage)
	})

	t.Run("env and dir", func(t *testing.T) {
		dir := t.TempDir()
		res := r.Run(ctx, Command{
			Name: "sh",
			Args: []string{"-c", `printf "%s" "$GREETING"; pwd`},
			Env:  map[string]string{"GREETING": "hi"},
			Dir:  dir,
		})
		require.True(t, res.Success, res.ErrorMessage)
		assert.Contains(t, res.Stdout, "hi")
		assert.Contains(t, res.Stdout, dir)
	})
}

func TestCommand_String(t *testing.T) {
	c := Command{Name: "az", Args: []string{"--value", "a b", ""}}
	assert.Equal(t, `az --value "a b" ""`, c.String())
}

func TestExpand(t *testing.T) {
	out := Expand("cp ${CERT_FILE} /etc/${DOMAIN}/", map[string]string{
		"CERT_FILE": "/tmp/cert.pem",
		"DOMAIN":    "example.com",
	})
	assert.Equal(t, "cp /tmp/cert.pem /etc/example.com/", out)
}

func TestCheck(t *testing.T) {
	assert.NoError(t, Check("ok", Result{Success: true}))

	err := Check("创建记录集", Result{ExitCode: 2, ErrorMessage: "exit status 2", Stderr: "denied"})
	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 2, cmdErr.Result.ExitCode)
	assert.Contains(t, err.Error(), "denied")
}
