package runner

import "errors"

var (
	// ErrRunnerUnavailable is returned when the test runner process cannot be created.
	ErrRunnerUnavailable = errors.New("unable to run playwright, is @playwright/test installed?")

	// ErrProjectRootNotFound is returned when the project has no root in the build graph.
	ErrProjectRootNotFound = errors.New("unable to find the project root")

	// ErrInstallFailed is returned when the browser install step does not succeed.
	ErrInstallFailed = errors.New("playwright install failed")

	// ErrInterrupted is returned when the run is cancelled before the runner exits on its own.
	ErrInterrupted = errors.New("test run interrupted")
)
