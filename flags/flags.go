package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	"github.com/BrowserStackCE/browserstack-playwright-nx/workspace"
)

const EnvVarPrefix = "PLAYWRIGHT_EXECUTOR"

var (
	Project = &cli.StringFlag{
		Name:     "project",
		Value:    "",
		Required: true,
		EnvVars:  opservice.PrefixEnvVar(EnvVarPrefix, "PROJECT"),
		Usage:    "Name of the workspace project to test (eg. 'shop-e2e')",
	}
	WorkspaceRoot = &cli.StringFlag{
		Name:    "workspace-root",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "WORKSPACE_ROOT"),
		Usage:   "Workspace root directory. Defaults to the nearest parent containing nx.json",
	}
	Target = &cli.StringFlag{
		Name:    "target",
		Value:   "e2e",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TARGET"),
		Usage:   "Target whose options are read from the project graph",
	}
	Configuration = &cli.StringFlag{
		Name:    "configuration",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CONFIGURATION"),
		Usage:   "Target configuration to merge over the target options (eg. 'ci')",
	}
	Graph = &cli.StringFlag{
		Name:    "graph",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "GRAPH"),
		Usage:   "Path to a project graph export. When unset, project.json files are discovered in the workspace",
	}
	Options = &cli.StringFlag{
		Name:    "options",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "OPTIONS"),
		Usage:   "Path to an options file (.yaml, .yml, .json or .toml)",
	}
	Set = &cli.StringSliceFlag{
		Name:    "set",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SET"),
		Usage:   "Option override as key=value. May be repeated (eg. --set workers=4 --set project=chromium,firefox)",
	}
	SkipInstall = &cli.BoolFlag{
		Name:    "skip-install",
		Aliases: []string{"skipInstall"},
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SKIP_INSTALL"),
		Usage:   "Skip the Playwright browser installation step",
	}
	BrowserstackConfig = &cli.StringFlag{
		Name:    "browserstack-config",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "BROWSERSTACK_CONFIG"),
		Usage:   "Path to browserstack.yml, exported to the SDK as BROWSERSTACK_CONFIG_FILE",
	}
	SDKBinary = &cli.StringFlag{
		Name:    "sdk-binary",
		Value:   "browserstack-node-sdk",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SDK_BINARY"),
		Usage:   "Path to the browserstack-node-sdk binary",
	}
	PackageManager = &cli.StringFlag{
		Name:    "package-manager",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PACKAGE_MANAGER"),
		Usage:   fmt.Sprintf("Package manager used to install Playwright %v. Detected from lockfiles when unset", workspace.ValidPackageManagers()),
		Action: func(ctx *cli.Context, value string) error {
			return validatePackageManager(value)
		},
	}
	LogDir = &cli.StringFlag{
		Name:    "log-dir",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "LOG_DIR"),
		Usage:   "Directory to store run output and summaries. Disabled when unset",
	}
)

func validatePackageManager(value string) error {
	if value == "" {
		return nil
	}
	if _, err := workspace.ParsePackageManager(value); err != nil {
		return fmt.Errorf("package-manager must be one of %v, got %q", workspace.ValidPackageManagers(), value)
	}
	return nil
}

var requiredFlags = []cli.Flag{
	Project,
}

var optionalFlags = []cli.Flag{
	WorkspaceRoot,
	Target,
	Configuration,
	Graph,
	Options,
	Set,
	SkipInstall,
	BrowserstackConfig,
	SDKBinary,
	PackageManager,
	LogDir,
}
var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
