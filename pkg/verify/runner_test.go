package verify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robbert-vdh/yabridge/pkg/verify"
)

func TestExecRunnerCapturesOutput(t *testing.T) {
	runner := verify.NewExecRunner()

	result := runner.Run(verify.Command{
		Path: "/bin/sh",
		Args: []string{"-c", "echo to stdout; echo to stderr >&2"},
	})

	require.True(t, result.Success())
	assert.True(t, result.Started())
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "to stdout\n", result.Stdout)
	assert.Equal(t, "to stderr\n", result.Stderr)
}

func TestExecRunnerReportsExitCode(t *testing.T) {
	runner := verify.NewExecRunner()

	result := runner.Run(verify.Command{Path: "/bin/sh", Args: []string{"-c", "exit 3"}})

	assert.False(t, result.Success())
	assert.True(t, result.Started())
	assert.Equal(t, 3, result.ExitCode)
	assert.Error(t, result.Err)
}

func TestExecRunnerMissingBinary(t *testing.T) {
	runner := verify.NewExecRunner()

	result := runner.Run(verify.Command{Path: "/nonexistent/yabridge-test-binary"})

	assert.False(t, result.Success())
	assert.False(t, result.Started())
	assert.Equal(t, -1, result.ExitCode)
	assert.Error(t, result.Err)
}
