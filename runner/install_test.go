package runner

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrowserStackCE/browserstack-playwright-nx/workspace"
)

func TestNewInstaller(t *testing.T) {
	tests := []struct {
		name        string
		cfg         InstallerConfig
		expectError bool
		errorMsg    string
	}{
		{
			name: "valid config",
			cfg:  InstallerConfig{WorkspaceRoot: t.TempDir(), PackageManager: workspace.PNPM},
		},
		{
			name: "package manager is detected when empty",
			cfg:  InstallerConfig{WorkspaceRoot: t.TempDir()},
		},
		{
			name:        "empty workspace root",
			cfg:         InstallerConfig{PackageManager: workspace.NPM},
			expectError: true,
			errorMsg:    "workspaceRoot cannot be empty",
		},
		{
			name:        "invalid package manager",
			cfg:         InstallerConfig{WorkspaceRoot: t.TempDir(), PackageManager: "deno"},
			expectError: true,
			errorMsg:    "invalid package manager",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, err := NewInstaller(tt.cfg)
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, inst)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, inst)
			}
		})
	}
}

func TestInstallerCommand(t *testing.T) {
	tests := []struct {
		pm       workspace.PackageManager
		expected string
	}{
		{pm: workspace.NPM, expected: "npx playwright install"},
		{pm: workspace.Yarn, expected: "yarn playwright install"},
		{pm: workspace.PNPM, expected: "pnpm exec playwright install"},
		{pm: workspace.Bun, expected: "bunx playwright install"},
	}

	for _, tt := range tests {
		t.Run(tt.pm.String(), func(t *testing.T) {
			inst, err := NewInstaller(InstallerConfig{WorkspaceRoot: t.TempDir(), PackageManager: tt.pm})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, strings.Join(inst.(*installer).Command(), " "))
		})
	}
}

func newHelperInstaller(t *testing.T, pm workspace.PackageManager, stdout, stderr *bytes.Buffer) *installer {
	t.Helper()
	inst, err := NewInstaller(InstallerConfig{
		WorkspaceRoot:  t.TempDir(),
		PackageManager: pm,
		Stdin:          strings.NewReader(""),
		Stdout:         stdout,
		Stderr:         stderr,
	})
	require.NoError(t, err)
	i := inst.(*installer)
	i.cmdBuilder = helperCommand
	return i
}

func TestInstallerInstall(t *testing.T) {
	enableHelper(t, 0)
	var stdout, stderr bytes.Buffer

	inst := newHelperInstaller(t, workspace.PNPM, &stdout, &stderr)
	require.NoError(t, inst.Install(context.Background()))

	assert.Contains(t, stdout.String(), "argv=pnpm exec playwright install\n")
	assert.Contains(t, stderr.String(), "stderr=4\n")
}

func TestInstallerInstallFailure(t *testing.T) {
	enableHelper(t, 1)
	var stdout, stderr bytes.Buffer

	inst := newHelperInstaller(t, workspace.NPM, &stdout, &stderr)
	err := inst.Install(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInstallFailed)
	assert.Contains(t, err.Error(), "npx playwright install")
}
