package playwright

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrowserStackCE/browserstack-playwright-nx/logging"
	"github.com/BrowserStackCE/browserstack-playwright-nx/options"
	"github.com/BrowserStackCE/browserstack-playwright-nx/runner"
)

const projectJSON = `{
  "name": "shop-e2e",
  "sourceRoot": "apps/shop-e2e/src",
  "projectType": "application",
  "targets": {
    "e2e": {
      "executor": "@browserstack/playwright-nx:playwright",
      "options": {
        "browser": "chromium",
        "workers": 2,
        "headed": false,
        "reporter": "html"
      },
      "configurations": {
        "ci": { "workers": 4, "forbidOnly": true }
      }
    }
  }
}`

// fakeProcess replays fixed output and exits with exitCode.
type fakeProcess struct {
	stdout   io.Reader
	stderr   io.Reader
	exitCode int
}

func (p *fakeProcess) Stdout() io.Reader { return p.stdout }
func (p *fakeProcess) Stderr() io.Reader { return p.stderr }
func (p *fakeProcess) Wait() (int, error) { return p.exitCode, nil }

type fakeRunner struct {
	mu       sync.Mutex
	exitCode int
	args     []string
	cwd      string
	bsConfig string
}

func (r *fakeRunner) Start(_ context.Context, args []string, cwd string, browserstackConfig string) (runner.Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.args = args
	r.cwd = cwd
	r.bsConfig = browserstackConfig
	return &fakeProcess{
		stdout:   strings.NewReader("\x1b[32mRunning 3 tests\x1b[0m\n"),
		stderr:   strings.NewReader("warning\n"),
		exitCode: r.exitCode,
	}, nil
}

func setupWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "nx.json"), []byte("{}"), 0o644))
	dir := filepath.Join(root, "apps", "shop-e2e")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "project.json"), []byte(projectJSON), 0o644))
	return root
}

func testConfig(root string, overrides *options.Options) *Config {
	return &Config{
		Project:       "shop-e2e",
		WorkspaceRoot: root,
		Target:        "e2e",
		FlagOverrides: overrides,
		Log:           log.NewLogger(log.DiscardHandler()),
	}
}

func skipInstall() *options.Options {
	return options.New(options.Entry{Key: options.SkipInstall, Value: options.BoolValue(true)})
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(context.Background(), nil, "test", func(error) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config is required")
}

func TestResolveOptionsPrecedence(t *testing.T) {
	root := setupWorkspace(t)
	optsFile := filepath.Join(root, "options.yaml")
	require.NoError(t, os.WriteFile(optsFile, []byte("workers: 6\nretries: 2\n"), 0o644))

	cfg := testConfig(root, options.New(
		options.Entry{Key: "retries", Value: options.NumberValue(1)},
		options.Entry{Key: options.SkipInstall, Value: options.BoolValue(true)},
	))
	cfg.Configuration = "ci"
	cfg.OptionsFile = optsFile

	app, err := New(context.Background(), cfg, "test", func(error) {})
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"browser", "workers", "headed", "reporter", "forbidOnly", "retries", options.SkipInstall},
		app.options.Keys())
	assert.Equal(t, "6", app.options.String("workers"))
	assert.Equal(t, "1", app.options.String("retries"))
	assert.Nil(t, app.installer, "installer is not created when skipInstall is set")
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T, cfg *Config)
		errorMsg string
	}{
		{
			name: "missing graph file",
			setup: func(t *testing.T, cfg *Config) {
				cfg.GraphFile = filepath.Join(t.TempDir(), "graph.json")
			},
			errorMsg: "failed to load project graph",
		},
		{
			name: "unknown configuration",
			setup: func(t *testing.T, cfg *Config) {
				cfg.Configuration = "nightly"
			},
			errorMsg: `configuration "nightly" not found`,
		},
		{
			name: "invalid option kind",
			setup: func(t *testing.T, cfg *Config) {
				cfg.FlagOverrides.Set("reporter", options.StringValue("fancy"))
			},
			errorMsg: "invalid options",
		},
		{
			name: "missing options file",
			setup: func(t *testing.T, cfg *Config) {
				cfg.OptionsFile = filepath.Join(t.TempDir(), "missing.yaml")
			},
			errorMsg: "failed to load options file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(setupWorkspace(t), skipInstall())
			tt.setup(t, cfg)
			_, err := New(context.Background(), cfg, "test", func(error) {})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func newTestApp(t *testing.T, cfg *Config, exitCode int) (*executorApp, *fakeRunner, *bytes.Buffer, *bool) {
	t.Helper()
	var shutdownCalled bool
	var mu sync.Mutex
	app, err := New(context.Background(), cfg, "test", func(error) {
		mu.Lock()
		defer mu.Unlock()
		shutdownCalled = true
	})
	require.NoError(t, err)

	fr := &fakeRunner{exitCode: exitCode}
	var stdout bytes.Buffer
	app.runner = fr
	app.stdout = &stdout
	app.stderr = io.Discard
	return app, fr, &stdout, &shutdownCalled
}

func TestStartSuccess(t *testing.T) {
	root := setupWorkspace(t)
	overrides := skipInstall()
	overrides.Set(options.BrowserstackConfig, options.StringValue("/etc/browserstack.yml"))
	app, fr, stdout, _ := newTestApp(t, testConfig(root, overrides), 0)

	require.NoError(t, app.Start(context.Background()))
	assert.False(t, app.Stopped())

	assert.Equal(t, root, fr.cwd)
	assert.Equal(t, "/etc/browserstack.yml", fr.bsConfig)
	assert.Equal(t, []string{"--browser=chromium", "--workers=2", "--reporter=html"}, fr.args)

	require.NotNil(t, app.Result())
	assert.True(t, app.Result().Success)
	assert.Contains(t, stdout.String(), "Running 3 tests")
	assert.Contains(t, stdout.String(), "shop-e2e")

	require.NoError(t, app.Stop(context.Background()))
	assert.True(t, app.Stopped())
	require.NoError(t, app.Stop(context.Background()))
}

func TestStartTestFailure(t *testing.T) {
	app, _, _, shutdownCalled := newTestApp(t, testConfig(setupWorkspace(t), skipInstall()), 3)

	err := app.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsTestFailureError(err))
	assert.False(t, IsRuntimeError(err))

	var tfe *TestFailureError
	require.ErrorAs(t, err, &tfe)
	assert.Equal(t, 3, tfe.ExitCode)
	assert.Contains(t, err.Error(), "shop-e2e exited with code 3")
	assert.False(t, *shutdownCalled)
	assert.False(t, app.Result().Success)
}

func TestStartWritesRunLogs(t *testing.T) {
	cfg := testConfig(setupWorkspace(t), skipInstall())
	cfg.LogDir = t.TempDir()
	app, _, _, _ := newTestApp(t, cfg, 1)

	require.Error(t, app.Start(context.Background()))

	runDir := filepath.Join(cfg.LogDir, logging.RunDirectoryPrefix+app.Result().RunID)
	output, err := os.ReadFile(filepath.Join(runDir, logging.OutputFilename))
	require.NoError(t, err)
	assert.Contains(t, string(output), "Running 3 tests\n")
	assert.Contains(t, string(output), "warning\n")
	assert.NotContains(t, string(output), "\x1b[")

	summary, err := os.ReadFile(filepath.Join(runDir, logging.SummaryFilename))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "FAIL")
}

func TestStartRuntimeErrors(t *testing.T) {
	t.Run("project root missing", func(t *testing.T) {
		cfg := testConfig(setupWorkspace(t), skipInstall())
		cfg.Project = "unknown-e2e"
		app, _, _, _ := newTestApp(t, cfg, 0)

		err := app.Start(context.Background())
		require.Error(t, err)
		assert.True(t, IsRuntimeError(err))
		assert.ErrorIs(t, err, runner.ErrProjectRootNotFound)
		assert.Contains(t, err.Error(), "unknown-e2e")
	})

	t.Run("sdk binary unavailable", func(t *testing.T) {
		cfg := testConfig(setupWorkspace(t), skipInstall())
		cfg.SDKBinary = "definitely-not-a-real-sdk-binary"
		app, err := New(context.Background(), cfg, "test", func(error) {})
		require.NoError(t, err)
		app.stdout = io.Discard
		app.stderr = io.Discard

		err = app.Start(context.Background())
		require.Error(t, err)
		assert.True(t, IsRuntimeError(err))
		assert.ErrorIs(t, err, runner.ErrRunnerUnavailable)
	})
}

func TestStartInterrupted(t *testing.T) {
	app, _, _, shutdownCalled := newTestApp(t, testConfig(setupWorkspace(t), skipInstall()), -1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := app.Start(ctx)
	require.Error(t, err)
	assert.True(t, IsRuntimeError(err), "an interrupted run is not a test failure")
	assert.False(t, IsTestFailureError(err))
	assert.ErrorIs(t, err, runner.ErrInterrupted)
	assert.Nil(t, app.Result())
	assert.False(t, *shutdownCalled)
}
