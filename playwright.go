package playwright

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/httputil"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	"github.com/BrowserStackCE/browserstack-playwright-nx/exitcodes"
	"github.com/BrowserStackCE/browserstack-playwright-nx/logging"
	"github.com/BrowserStackCE/browserstack-playwright-nx/metrics"
	"github.com/BrowserStackCE/browserstack-playwright-nx/options"
	"github.com/BrowserStackCE/browserstack-playwright-nx/reporting"
	"github.com/BrowserStackCE/browserstack-playwright-nx/runner"
	"github.com/BrowserStackCE/browserstack-playwright-nx/workspace"
)

// executorApp implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &executorApp{}

// executorApp runs the end-to-end tests of one workspace project, once.
type executorApp struct {
	ctx       context.Context
	config    *Config
	version   string
	workspace *workspace.Context
	options   *options.Options
	installer runner.Installer
	runner    runner.ProcessRunner
	result    *runner.Result

	stdout io.Writer
	stderr io.Writer

	fileLogger    *logging.FileLogger
	metricsServer *httputil.HTTPServer

	running atomic.Bool

	shutdownCallback func(error) // Callback to signal application shutdown
}

// New resolves the project graph and the run options and prepares the
// installer and process runner. Nothing is spawned until Start.
func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*executorApp, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating executor with config",
		"project", config.Project,
		"workspaceRoot", config.WorkspaceRoot,
		"target", config.Target,
		"configuration", config.Configuration,
		"graph", config.GraphFile)

	graph, err := loadGraph(config)
	if err != nil {
		return nil, err
	}

	wctx := &workspace.Context{
		Root:              config.WorkspaceRoot,
		ProjectName:       config.Project,
		TargetName:        config.Target,
		ConfigurationName: config.Configuration,
		ProjectGraph:      graph,
	}

	opts, err := resolveOptions(config, wctx)
	if err != nil {
		return nil, err
	}

	var inst runner.Installer
	if !opts.Bool(options.SkipInstall) {
		inst, err = runner.NewInstaller(runner.InstallerConfig{
			WorkspaceRoot:  config.WorkspaceRoot,
			PackageManager: config.PackageManager,
			Log:            config.Log,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create installer: %w", err)
		}
	}

	procRunner := runner.NewProcessRunner(runner.ProcessConfig{
		Binary:        config.SDKBinary,
		WorkspaceRoot: config.WorkspaceRoot,
		Log:           config.Log,
	})
	config.Log.Info("executor.New: resolved project graph and options", "options", opts.Len())

	return &executorApp{
		ctx:              ctx,
		config:           config,
		version:          version,
		workspace:        wctx,
		options:          opts,
		installer:        inst,
		runner:           procRunner,
		stdout:           os.Stdout,
		stderr:           os.Stderr,
		shutdownCallback: shutdownCallback,
	}, nil
}

func loadGraph(config *Config) (*workspace.Graph, error) {
	if config.GraphFile != "" {
		graph, err := workspace.LoadGraph(config.GraphFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load project graph: %w", err)
		}
		return graph, nil
	}
	graph, err := workspace.DiscoverGraph(config.WorkspaceRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to discover projects: %w", err)
	}
	return graph, nil
}

// resolveOptions layers the target options, the options file and the flag
// overrides, in increasing precedence.
func resolveOptions(config *Config, wctx *workspace.Context) (*options.Options, error) {
	targetOpts, err := wctx.TargetOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to read target options: %w", err)
	}

	var fileOpts *options.Options
	if config.OptionsFile != "" {
		fileOpts, err = options.LoadFile(config.OptionsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load options file: %w", err)
		}
	}

	opts := options.Merge(targetOpts, fileOpts, config.FlagOverrides)
	if err := options.Validate(opts); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if unknown := options.UnknownKeys(opts); len(unknown) > 0 {
		config.Log.Warn("Forwarding unknown options to the test runner", "keys", unknown)
	}
	return opts, nil
}

// Start runs the tests once and signals shutdown when they pass.
// Start implements the cliapp.Lifecycle interface.
func (a *executorApp) Start(ctx context.Context) error {
	// Set up panic recovery to ensure we exit with code 2 for runtime errors
	defer func() {
		if r := recover(); r != nil {
			a.config.Log.Error("Runtime error occurred", "error", r)
			os.Exit(exitcodes.RuntimeErr)
		}
	}()

	a.ctx = ctx
	a.running.Store(true)

	err := a.run(ctx)
	if err != nil {
		a.config.Log.Error("Runtime error running executor", "error", err)
		a.release(ctx)
		return NewRuntimeError(err)
	}

	if !a.result.Success {
		a.config.Log.Warn("Test run completed with failures", "exit_code", a.result.ExitCode)
		a.release(ctx)
		return NewTestFailureError(fmt.Sprintf("%s exited with code %d", a.result.Project, a.result.ExitCode), a.result.ExitCode)
	}

	a.config.Log.Info("Tests completed, exiting")
	go func() {
		a.shutdownCallback(nil)
	}()
	return nil
}

func (a *executorApp) run(ctx context.Context) error {
	runID := uuid.New().String()

	if err := a.startMetricsServer(); err != nil {
		return err
	}

	var output io.Writer
	if a.config.LogDir != "" {
		fl, err := logging.NewFileLogger(a.config.LogDir, runID)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		a.fileLogger = fl
		output = fl
		a.config.Log.Info("Writing run output", "dir", fl.RunDir())
	}

	exec, err := runner.NewExecutor(runner.ExecutorConfig{
		Log:       a.config.Log,
		Installer: a.installer,
		Runner:    a.runner,
		Stdout:    a.stdout,
		Stderr:    a.stderr,
		Output:    output,
	})
	if err != nil {
		return fmt.Errorf("failed to create executor: %w", err)
	}

	result, err := exec.Execute(ctx, runner.Request{
		Options:   a.options,
		Workspace: a.workspace,
		RunID:     runID,
	})
	if err != nil {
		return err
	}
	a.result = result

	reporting.PrintSummary(a.stdout, result, true)
	if a.fileLogger != nil {
		if err := a.fileLogger.WriteSummary(result); err != nil {
			a.config.Log.Warn("Failed to write summary", "error", err)
		}
	}
	a.config.Log.Info("Test run completed", "run_id", result.RunID, "success", result.Success)
	return nil
}

func (a *executorApp) startMetricsServer() error {
	metricsCfg := a.config.MetricsConfig
	if !metricsCfg.Enabled {
		return nil
	}
	a.config.Log.Info("Starting metrics server", "addr", metricsCfg.ListenAddr, "port", metricsCfg.ListenPort)
	srv, err := opmetrics.StartServer(metrics.Registry, metricsCfg.ListenAddr, metricsCfg.ListenPort)
	if err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}
	a.config.Log.Info("Started metrics server", "endpoint", srv.Addr())
	a.metricsServer = srv
	return nil
}

// release closes the log file and the metrics server. It is safe to call more than once.
func (a *executorApp) release(ctx context.Context) error {
	var result error
	if a.fileLogger != nil {
		if err := a.fileLogger.Close(); err != nil {
			result = errors.Join(result, fmt.Errorf("failed to close log file: %w", err))
		}
	}
	if a.metricsServer != nil {
		if err := a.metricsServer.Stop(ctx); err != nil {
			result = errors.Join(result, fmt.Errorf("failed to stop metrics server: %w", err))
		}
		a.metricsServer = nil
	}
	return result
}

// Result returns the outcome of the last run, or nil before one completed.
func (a *executorApp) Result() *runner.Result {
	return a.result
}

// Stop releases the resources held by the executor.
// Stop implements the cliapp.Lifecycle interface.
func (a *executorApp) Stop(ctx context.Context) error {
	a.config.Log.Info("Stopping playwright executor")

	if !a.running.Load() {
		a.config.Log.Debug("Executor already stopped, nothing to do")
		return nil
	}
	a.running.Store(false)

	if err := a.release(ctx); err != nil {
		return err
	}
	a.config.Log.Info("playwright executor stopped successfully")
	return nil
}

// Stopped returns true if the executor is stopped.
// Stopped implements the cliapp.Lifecycle interface.
func (a *executorApp) Stopped() bool {
	return !a.running.Load()
}
