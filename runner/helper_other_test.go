//go:build !unix

package runner

import (
	"os"
	"os/exec"
)

func detach(cmd *exec.Cmd) {}

func killPid(pid int) {
	if p, err := os.FindProcess(pid); err == nil {
		_ = p.Kill()
	}
}
