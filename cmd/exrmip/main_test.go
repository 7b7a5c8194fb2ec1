package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// run executes the app with args and returns the exit code it asked for.
func run(t *testing.T, args ...string) (int, string) {
	t.Helper()

	code := 0
	exiter := cli.OsExiter
	cli.OsExiter = func(c int) { code = c }
	t.Cleanup(func() { cli.OsExiter = exiter })

	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr

	err := app.Run(append([]string{"exrmip"}, args...))
	if ec, ok := err.(cli.ExitCoder); ok && code == 0 {
		code = ec.ExitCode()
	}
	out := stdout.String()
	if err != nil {
		out += err.Error()
	}
	return code, out
}

func TestPackExitStatus(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no levels", []string{filepath.Join(dir, "mip#.exr")}, "too few levels"},
		{"pack command", []string{"pack", filepath.Join(dir, "mip#.exr")}, "too few levels"},
		{"no placeholder", []string{filepath.Join(dir, "mip.exr")}, "invalid filename pattern"},
		{"custom placeholder", []string{"--placeholder", "@", filepath.Join(dir, "mip#.exr")}, "invalid filename pattern"},
		{"bad marker", []string{"--marker", "12", filepath.Join(dir, "mip#.exr")}, "single character"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, out := run(t, tc.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, out, tc.want)
			assert.NotContains(t, out, "OK,")
		})
	}
}

func TestInspectMissingFile(t *testing.T) {
	code, _ := run(t, "inspect", filepath.Join(t.TempDir(), "missing.exr"))
	assert.Equal(t, 1, code)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	newLogger(&buf, false).Info("hidden")
	assert.Empty(t, buf.String())

	newLogger(&buf, true).Debug("shown")
	require.Contains(t, buf.String(), "shown")
}
