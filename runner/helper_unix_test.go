//go:build unix

package runner

import (
	"os/exec"
	"syscall"
)

func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

func killPid(pid int) {
	_ = syscall.Kill(pid, syscall.SIGKILL)
}
