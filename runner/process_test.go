package runner

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, proc Process) (string, string) {
	t.Helper()
	var stdout, stderr []byte
	done := make(chan struct{})
	go func() {
		defer close(done)
		stderr, _ = io.ReadAll(proc.Stderr())
	}()
	stdout, err := io.ReadAll(proc.Stdout())
	require.NoError(t, err)
	<-done
	return string(stdout), string(stderr)
}

func TestProcessRunnerCommand(t *testing.T) {
	r := NewProcessRunner(ProcessConfig{}).(*processRunner)
	assert.Equal(t,
		[]string{"browserstack-node-sdk", "playwright", "test", "--headed", "--workers=2"},
		r.Command([]string{"--headed", "--workers=2"}))

	custom := NewProcessRunner(ProcessConfig{Binary: "/opt/sdk", Prefix: []string{}}).(*processRunner)
	assert.Equal(t, []string{"/opt/sdk", "--list"}, custom.Command([]string{"--list"}))
}

func TestProcessRunnerStart(t *testing.T) {
	enableHelper(t, 0)
	cwd := t.TempDir()

	proc, err := newHelperRunner(t).Start(context.Background(), []string{"--browser=chromium", "--headed"}, cwd, "")
	require.NoError(t, err)

	stdout, stderr := readAll(t, proc)
	code, err := proc.Wait()
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	assert.Contains(t, stdout, "argv=playwright test --browser=chromium --headed\n")
	assert.NotContains(t, stdout, "config=")
	assert.Contains(t, stderr, "stderr=4\n")

	wantCwd, err := filepath.EvalSymlinks(cwd)
	require.NoError(t, err)
	for _, line := range strings.Split(stdout, "\n") {
		if strings.HasPrefix(line, "cwd=") {
			gotCwd, err := filepath.EvalSymlinks(strings.TrimPrefix(line, "cwd="))
			require.NoError(t, err)
			assert.Equal(t, wantCwd, gotCwd)
		}
	}
}

func TestProcessRunnerExportsBrowserstackConfig(t *testing.T) {
	enableHelper(t, 0)

	proc, err := newHelperRunner(t).Start(context.Background(), nil, t.TempDir(), "config/browserstack.yml")
	require.NoError(t, err)

	stdout, _ := readAll(t, proc)
	_, err = proc.Wait()
	require.NoError(t, err)
	assert.Contains(t, stdout, "config=config/browserstack.yml\n")
}

func TestProcessRunnerExitCode(t *testing.T) {
	enableHelper(t, 3)

	proc, err := newHelperRunner(t).Start(context.Background(), nil, t.TempDir(), "")
	require.NoError(t, err)

	readAll(t, proc)
	code, err := proc.Wait()
	require.NoError(t, err)
	assert.Equal(t, 3, code)
}

func TestProcessRunnerUnavailable(t *testing.T) {
	r := NewProcessRunner(ProcessConfig{Binary: "definitely-not-a-real-sdk-binary", WorkspaceRoot: t.TempDir()})

	_, err := r.Start(context.Background(), nil, t.TempDir(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRunnerUnavailable)
}

func TestProcessRunnerBadWorkingDirectory(t *testing.T) {
	enableHelper(t, 0)

	_, err := newHelperRunner(t).Start(context.Background(), nil, filepath.Join(t.TempDir(), "missing"), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRunnerUnavailable)
}

func TestResolveBinaryFallsBackToLocalBin(t *testing.T) {
	root := t.TempDir()
	binDir := filepath.Join(root, filepath.FromSlash(LocalBinDir))
	require.NoError(t, os.MkdirAll(binDir, 0o755))
	local := filepath.Join(binDir, "local-only-sdk-binary")
	require.NoError(t, os.WriteFile(local, []byte("#!/bin/sh\n"), 0o755))

	r := NewProcessRunner(ProcessConfig{Binary: "local-only-sdk-binary", WorkspaceRoot: root}).(*processRunner)
	path, err := r.resolveBinary()
	require.NoError(t, err)
	assert.Equal(t, local, path)
}

func TestProcessRunnerEnvironment(t *testing.T) {
	r := NewProcessRunner(ProcessConfig{}).(*processRunner)
	r.environ = func() []string { return []string{"PATH=/bin", "HOME=/home/ci"} }

	env := r.env(context.Background(), "")
	assert.Contains(t, env, "PATH=/bin")
	assert.Contains(t, env, "HOME=/home/ci")
	for _, kv := range env {
		assert.False(t, strings.HasPrefix(kv, BrowserstackConfigEnvVar+"="))
	}

	env = r.env(context.Background(), "bs.yml")
	assert.Contains(t, env, "BROWSERSTACK_CONFIG_FILE=bs.yml")
	assert.Contains(t, env, "HOME=/home/ci")
}
