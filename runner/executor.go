package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/BrowserStackCE/browserstack-playwright-nx/metrics"
	"github.com/BrowserStackCE/browserstack-playwright-nx/options"
	"github.com/BrowserStackCE/browserstack-playwright-nx/workspace"
)

var _ Executor = (*executor)(nil)

// Executor runs the end-to-end tests of one project.
type Executor interface {
	// Execute runs the test runner for the project in req.Workspace and reports
	// whether it exited with code 0. An error means the runner was never run to
	// completion: the project root is missing, the install step failed, the
	// runner could not be started or ctx was cancelled (ErrInterrupted).
	Execute(ctx context.Context, req Request) (*Result, error)
}

// Request describes a single executor invocation.
type Request struct {
	Options   *options.Options
	Workspace *workspace.Context
	// RunID identifies the run; a random one is generated when empty.
	RunID string
}

// Result is the outcome of a run.
type Result struct {
	RunID    string
	Project  string
	Success  bool
	ExitCode int
	Args     []string
	Duration time.Duration
}

// ExecutorConfig configures an Executor. Installer is only used when the
// skipInstall option is not set. Output, when set, receives a copy of
// everything the runner writes; its write errors never interrupt forwarding.
type ExecutorConfig struct {
	Log       log.Logger
	Installer Installer
	Runner    ProcessRunner
	Stdout    io.Writer
	Stderr    io.Writer
	Output    io.Writer

	// CancelGrace bounds how long output is still forwarded after ctx is
	// cancelled. Defaults to DefaultCancelGrace.
	CancelGrace time.Duration
}

// DefaultCancelGrace is how long a cancelled runner may keep its output open.
const DefaultCancelGrace = 5 * time.Second

type executor struct {
	log       log.Logger
	installer Installer
	runner    ProcessRunner
	stdout    io.Writer
	stderr    io.Writer
	output    io.Writer
	grace     time.Duration
	tracer    trace.Tracer
}

// NewExecutor creates a new Executor
func NewExecutor(cfg ExecutorConfig) (Executor, error) {
	if cfg.Runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}
	e := &executor{
		log:       cfg.Log,
		installer: cfg.Installer,
		runner:    cfg.Runner,
		stdout:    cfg.Stdout,
		stderr:    cfg.Stderr,
		output:    cfg.Output,
		grace:     cfg.CancelGrace,
		tracer:    otel.Tracer("playwright executor"),
	}
	if e.grace <= 0 {
		e.grace = DefaultCancelGrace
	}
	if e.log == nil {
		e.log = log.Root()
	}
	if e.stdout == nil {
		e.stdout = os.Stdout
	}
	if e.stderr == nil {
		e.stderr = os.Stderr
	}
	return e, nil
}

func (e *executor) Execute(ctx context.Context, req Request) (*Result, error) {
	wctx := req.Workspace
	if wctx == nil {
		return nil, fmt.Errorf("workspace context cannot be nil")
	}
	runID := req.RunID
	if runID == "" {
		runID = uuid.New().String()
	}

	ctx, span := e.tracer.Start(ctx, fmt.Sprintf("project %s", wctx.ProjectName))
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", runID),
		attribute.String("project", wctx.ProjectName),
		attribute.String("target", wctx.TargetName),
	)

	projectRoot, ok := wctx.ProjectRoot()
	if !ok {
		err := fmt.Errorf("%w for %s: is it set in the project.json?", ErrProjectRootNotFound, wctx.ProjectName)
		metrics.RecordError("project_root_not_found")
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	e.log.Debug("Resolved project root", "project", wctx.ProjectName, "root", projectRoot)

	if !req.Options.Bool(options.SkipInstall) {
		if err := e.install(ctx); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	args := BuildArgs(req.Options)
	e.log.Info("Running end-to-end tests", "project", wctx.ProjectName, "run_id", runID, "args", args)

	start := time.Now()
	proc, err := e.runner.Start(ctx, args, wctx.Root, req.Options.String(options.BrowserstackConfig))
	if err != nil {
		metrics.RecordErrorDetails("runner_start", err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	exitCode, waitErr := e.wait(ctx, proc)
	if err := ctx.Err(); err != nil {
		err = fmt.Errorf("%w for %s: %w", ErrInterrupted, wctx.ProjectName, context.Cause(ctx))
		e.log.Warn("Test run interrupted", "project", wctx.ProjectName, "exit_code", exitCode)
		metrics.RecordError("interrupted")
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if waitErr != nil {
		e.log.Error("Test runner did not exit cleanly", "project", wctx.ProjectName, "err", waitErr)
		metrics.RecordErrorDetails("runner_wait", waitErr)
	}

	result := &Result{
		RunID:    runID,
		Project:  wctx.ProjectName,
		Success:  waitErr == nil && exitCode == 0,
		ExitCode: exitCode,
		Args:     args,
		Duration: time.Since(start),
	}
	metrics.RecordRun(result.Project, result.Success, result.ExitCode, result.Duration)
	span.SetAttributes(attribute.Int("exit_code", exitCode))
	if !result.Success {
		span.SetStatus(codes.Error, fmt.Sprintf("exit code %d", exitCode))
	}
	e.log.Info("Test runner finished", "project", wctx.ProjectName, "exit_code", exitCode,
		"success", result.Success, "duration", result.Duration)
	return result, nil
}

func (e *executor) install(ctx context.Context) error {
	if e.installer == nil {
		return fmt.Errorf("%w: no installer configured", ErrInstallFailed)
	}
	ctx, span := e.tracer.Start(ctx, "install")
	defer span.End()
	if err := e.installer.Install(ctx); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// wait forwards the runner's output and then waits for it to exit. Once ctx is
// cancelled, output still open after the grace period (held by a process that
// outlived the kill) is abandoned so that Wait can close the streams.
func (e *executor) wait(ctx context.Context, proc Process) (int, error) {
	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		e.forward(proc)
	}()

	select {
	case <-forwarded:
	case <-ctx.Done():
		select {
		case <-forwarded:
		case <-time.After(e.grace):
			e.log.Warn("Test runner output still open after cancellation, closing it", "grace", e.grace)
		}
	}
	exitCode, err := proc.Wait()
	<-forwarded
	return exitCode, err
}

// forward copies both runner streams to the executor's own streams as chunks
// arrive, until both reach EOF.
func (e *executor) forward(proc Process) {
	var g errgroup.Group
	var mu sync.Mutex
	g.Go(func() error {
		return e.pipe("stdout", e.stdout, proc.Stdout(), &mu)
	})
	g.Go(func() error {
		return e.pipe("stderr", e.stderr, proc.Stderr(), &mu)
	})
	if err := g.Wait(); err != nil {
		e.log.Warn("Failed to forward test runner output", "err", err)
	}
}

func (e *executor) pipe(name string, dst io.Writer, src io.Reader, mu *sync.Mutex) error {
	if e.output != nil {
		dst = io.MultiWriter(dst, &teeWriter{w: e.output, mu: mu, log: e.log})
	}
	if _, err := io.Copy(dst, src); err != nil {
		// keep draining so the runner never blocks on a full pipe
		_, _ = io.Copy(io.Discard, src)
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// teeWriter serialises writes to a shared copy of the output and swallows its
// errors, logging only the first.
type teeWriter struct {
	w      io.Writer
	mu     *sync.Mutex
	log    log.Logger
	failed bool
}

func (t *teeWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failed {
		return len(p), nil
	}
	if _, err := t.w.Write(p); err != nil {
		t.failed = true
		t.log.Warn("Failed to copy test runner output", "err", err)
	}
	return len(p), nil
}
