package connect

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeConnect(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	verbose := false

	cmd := NewConnectCommand(&verbose, &configPath)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	if args == nil {
		// cobra falls back to os.Args on a nil slice
		args = []string{}
	}
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestMissingArgumentsPrintsUsage(t *testing.T) {
	for _, args := range [][]string{nil, {"fleet-123"}} {
		out, err := executeConnect(t, "", args...)
		require.ErrorIs(t, err, errUsage)
		assert.Contains(t, out, usage)
	}
}

func TestRequireFleetAndInstance(t *testing.T) {
	assert.ErrorIs(t, requireFleetAndInstance(nil, []string{"fleet-123"}), errUsage)
	assert.NoError(t, requireFleetAndInstance(nil, []string{"fleet-123", "i-abc"}))
	assert.NoError(t, requireFleetAndInstance(nil, []string{"fleet-123", "i-abc", "extra"}))
}

func TestBadConfigStopsBeforeAnyRequest(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	out, err := executeConnect(t, missing, "fleet-123", "i-abc")
	require.Error(t, err)
	assert.NotContains(t, out, "Opening ssh on")
	// Logged through logrus only; cobra must not echo it again.
	assert.NotContains(t, out, "Error:")
}
