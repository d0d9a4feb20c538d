//go:build !unix

package runner

import "os/exec"

// isolate is a no-op without process groups; cancellation kills the runner only.
func isolate(cmd *exec.Cmd) {}
