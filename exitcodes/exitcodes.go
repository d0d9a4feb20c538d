// Package exitcodes defines the exit codes of the playwright executor.
package exitcodes

// Exit code constants returned by the executor binary:
//
// * Success (0): the test runner exited with code 0
// * TestFailure (1): the test runner exited with a non-zero code
// * RuntimeErr (2): the run could not complete (bad config, missing project root, install failure)
const (
	Success     = 0 // All tests pass
	TestFailure = 1 // Test failures
	RuntimeErr  = 2 // Runtime errors
)
