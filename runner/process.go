package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum/go-ethereum/log"
)

var (
	_ ProcessRunner = (*processRunner)(nil)
	_ Process       = (*process)(nil)
)

// ProcessRunner spawns the test runner.
type ProcessRunner interface {
	// Start launches the runner with args in cwd. When browserstackConfig is not
	// empty it is exported to the child as BrowserstackConfigEnvVar.
	Start(ctx context.Context, args []string, cwd string, browserstackConfig string) (Process, error)
}

// Process is a running test runner.
type Process interface {
	Stdout() io.Reader
	Stderr() io.Reader
	// Wait blocks until the process exits and then closes both streams. Streams
	// should be read to EOF first unless the run was cancelled.
	// An exited process reports its exit code with a nil error, or -1 when it was
	// killed by a signal.
	Wait() (int, error)
}

// ProcessConfig configures a ProcessRunner.
type ProcessConfig struct {
	// Binary is the SDK executable; defaults to DefaultSDKBinary.
	Binary string
	// Prefix is placed before the built args; defaults to "playwright test".
	Prefix []string
	// WorkspaceRoot is searched for LocalBinDir when Binary is not on PATH.
	WorkspaceRoot string
	Log           log.Logger
}

type processRunner struct {
	binary        string
	prefix        []string
	workspaceRoot string
	log           log.Logger
	environ       func() []string
}

// NewProcessRunner creates a ProcessRunner.
func NewProcessRunner(cfg ProcessConfig) ProcessRunner {
	binary := cfg.Binary
	if binary == "" {
		binary = DefaultSDKBinary
	}
	prefix := cfg.Prefix
	if prefix == nil {
		prefix = []string{RunnerCommand, RunnerTestCommand}
	}
	logger := cfg.Log
	if logger == nil {
		logger = log.Root()
	}
	return &processRunner{
		binary:        binary,
		prefix:        prefix,
		workspaceRoot: cfg.WorkspaceRoot,
		log:           logger,
		environ:       os.Environ,
	}
}

// Command returns the full argv used for args.
func (r *processRunner) Command(args []string) []string {
	argv := append([]string{r.binary}, r.prefix...)
	return append(argv, args...)
}

// resolveBinary looks the SDK up on PATH, then in the workspace's local bin directory.
func (r *processRunner) resolveBinary() (string, error) {
	if strings.ContainsRune(r.binary, filepath.Separator) {
		return r.binary, nil
	}
	path, err := exec.LookPath(r.binary)
	if err == nil {
		return path, nil
	}
	if r.workspaceRoot != "" {
		local := filepath.Join(r.workspaceRoot, filepath.FromSlash(LocalBinDir), r.binary)
		if info, statErr := os.Stat(local); statErr == nil && !info.IsDir() {
			return local, nil
		}
	}
	return "", err
}

func (r *processRunner) env(ctx context.Context, browserstackConfig string) []string {
	env := r.environ()
	if browserstackConfig != "" {
		env = append(env, fmt.Sprintf("%s=%s", BrowserstackConfigEnvVar, browserstackConfig))
	}
	return telemetry.InstrumentEnvironment(ctx, env)
}

func (r *processRunner) Start(ctx context.Context, args []string, cwd string, browserstackConfig string) (Process, error) {
	binary, err := r.resolveBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRunnerUnavailable, err)
	}

	argv := append(append([]string{}, r.prefix...), args...)
	cmd := exec.CommandContext(ctx, binary, argv...)
	cmd.Dir = cwd
	cmd.Env = r.env(ctx, browserstackConfig)
	isolate(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRunnerUnavailable, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRunnerUnavailable, err)
	}

	r.log.Debug("Starting test runner", "binary", binary, "args", strings.Join(argv, " "), "cwd", cwd)
	if err := cmd.Start(); err != nil {
		r.log.Error("Failed to start test runner", "binary", binary, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrRunnerUnavailable, err)
	}
	r.log.Info("Started test runner", "pid", cmd.Process.Pid)

	return &process{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

type process struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser
}

func (p *process) Stdout() io.Reader {
	return p.stdout
}

func (p *process) Stderr() io.Reader {
	return p.stderr
}

func (p *process) Wait() (int, error) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	exitErr := &exec.ExitError{}
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
