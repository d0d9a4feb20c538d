package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/BrowserStackCE/browserstack-playwright-nx/metrics"
	"github.com/BrowserStackCE/browserstack-playwright-nx/workspace"
)

var _ Installer = (*installer)(nil)

// Installer makes sure the runner's browsers are available before a run.
type Installer interface {
	Install(ctx context.Context) error
}

// InstallerConfig configures an Installer. Nil streams default to the
// executor's own stdin, stdout and stderr.
type InstallerConfig struct {
	WorkspaceRoot  string
	PackageManager workspace.PackageManager
	Stdin          io.Reader
	Stdout         io.Writer
	Stderr         io.Writer
	Log            log.Logger
}

type installer struct {
	workspaceRoot  string
	packageManager workspace.PackageManager
	stdin          io.Reader
	stdout         io.Writer
	stderr         io.Writer
	log            log.Logger
	cmdBuilder     func(ctx context.Context, name string, arg ...string) *exec.Cmd
}

// NewInstaller creates an Installer that runs "<exec> playwright install" in the workspace root.
func NewInstaller(cfg InstallerConfig) (Installer, error) {
	if cfg.WorkspaceRoot == "" {
		return nil, fmt.Errorf("workspaceRoot cannot be empty")
	}
	pm := cfg.PackageManager
	if pm == "" {
		pm = workspace.DetectPackageManager(cfg.WorkspaceRoot)
	}
	if !pm.IsValid() {
		return nil, fmt.Errorf("invalid package manager: %s", pm)
	}
	inst := &installer{
		workspaceRoot:  cfg.WorkspaceRoot,
		packageManager: pm,
		stdin:          cfg.Stdin,
		stdout:         cfg.Stdout,
		stderr:         cfg.Stderr,
		log:            cfg.Log,
		cmdBuilder:     exec.CommandContext,
	}
	if inst.stdin == nil {
		inst.stdin = os.Stdin
	}
	if inst.stdout == nil {
		inst.stdout = os.Stdout
	}
	if inst.stderr == nil {
		inst.stderr = os.Stderr
	}
	if inst.log == nil {
		inst.log = log.Root()
	}
	return inst, nil
}

// Command returns the argv of the install step.
func (i *installer) Command() []string {
	argv := append([]string{}, i.packageManager.Commands().Exec...)
	return append(argv, RunnerCommand, InstallCommand)
}

// Install runs the install step to completion with inherited stdio and no timeout.
func (i *installer) Install(ctx context.Context) error {
	i.log.Info("Ensuring Playwright is installed.", "hint", "use --skipInstall to skip installation.")

	argv := i.Command()
	cmd := i.cmdBuilder(ctx, argv[0], argv[1:]...)
	cmd.Dir = i.workspaceRoot
	cmd.Stdin = i.stdin
	cmd.Stdout = i.stdout
	cmd.Stderr = i.stderr

	i.log.Debug("Running install command", "command", strings.Join(argv, " "), "cwd", i.workspaceRoot)
	start := time.Now()
	err := cmd.Run()
	metrics.RecordInstall(i.packageManager.String(), err, time.Since(start))
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInstallFailed, strings.Join(argv, " "), err)
	}
	return nil
}
