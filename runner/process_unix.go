//go:build unix

package runner

import (
	"errors"
	"os/exec"
	"syscall"
)

// isolate puts the runner in its own process group so that cancelling it also
// stops the browsers and workers it spawned.
func isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if errors.Is(err, syscall.ESRCH) {
			return cmd.Process.Kill()
		}
		return err
	}
}
