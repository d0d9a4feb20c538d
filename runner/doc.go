// Package runner drives the external end-to-end test runner.
//
// The main components are:
//   - BuildArgs: Translates an options set into the runner's kebab-case flags
//   - ProcessRunner: Spawns the runner with the workspace environment and exposes its streams
//   - Installer: Ensures the runner's browsers are installed through the package manager
//   - Executor: Orchestrates install, argument building, spawning and output forwarding
//
// The Executor reports a Result whose Success field is true iff the runner exited with code 0.
package runner
