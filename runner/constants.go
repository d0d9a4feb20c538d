package runner

// Test runner invocation constants
const (
	// DefaultSDKBinary wraps the test runner and reports runs to BrowserStack
	DefaultSDKBinary = "browserstack-node-sdk"

	// Subcommands placed between the SDK binary and the built flags
	RunnerCommand     = "playwright"
	RunnerTestCommand = "test"
	InstallCommand    = "install"

	// BrowserstackConfigEnvVar carries the side-channel config path to the SDK
	BrowserstackConfigEnvVar = "BROWSERSTACK_CONFIG_FILE"

	// Directory holding locally installed package binaries, relative to the workspace root
	LocalBinDir = "node_modules/.bin"
)
