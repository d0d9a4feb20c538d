package playwright

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	"github.com/BrowserStackCE/browserstack-playwright-nx/flags"
	"github.com/BrowserStackCE/browserstack-playwright-nx/options"
	"github.com/BrowserStackCE/browserstack-playwright-nx/workspace"
)

// Config holds the application configuration
type Config struct {
	Project        string                   // Project to run the tests of
	WorkspaceRoot  string                   // Absolute workspace root, the runner's working directory
	Target         string                   // Target whose options are read from the graph
	Configuration  string                   // Optional target configuration
	GraphFile      string                   // Project graph export; empty means discover project.json files
	OptionsFile    string                   // Optional options file layered over the target options
	FlagOverrides  *options.Options         // --set values followed by the dedicated flags, highest precedence
	SDKBinary      string                   // browserstack-node-sdk executable
	PackageManager workspace.PackageManager // Empty means detect from lockfiles
	LogDir         string                   // Directory for run logs; empty disables file logging
	MetricsConfig  opmetrics.CLIConfig
	Log            log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	project := ctx.String(flags.Project.Name)
	if project == "" {
		return nil, fmt.Errorf("project cannot be empty")
	}

	root := ctx.String(flags.WorkspaceRoot.Name)
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		root = workspace.FindWorkspaceRoot(cwd)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for workspace root '%s': %w", root, err)
	}
	if info, err := os.Stat(absRoot); err != nil {
		return nil, fmt.Errorf("workspace root '%s': %w", absRoot, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("workspace root '%s' is not a directory", absRoot)
	}

	graphFile, err := absIfSet(ctx.String(flags.Graph.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for graph: %w", err)
	}
	optionsFile, err := absIfSet(ctx.String(flags.Options.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for options file: %w", err)
	}
	logDir, err := absIfSet(ctx.String(flags.LogDir.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for log directory: %w", err)
	}

	var pm workspace.PackageManager
	if s := ctx.String(flags.PackageManager.Name); s != "" {
		if pm, err = workspace.ParsePackageManager(s); err != nil {
			return nil, err
		}
	}

	overrides, err := options.FromAssignments(ctx.StringSlice(flags.Set.Name))
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", flags.Set.Name, err)
	}
	// Dedicated flags only override when given explicitly.
	if ctx.IsSet(flags.SkipInstall.Name) {
		overrides.Set(options.SkipInstall, options.BoolValue(ctx.Bool(flags.SkipInstall.Name)))
	}
	if ctx.IsSet(flags.BrowserstackConfig.Name) {
		bsConfig, err := absIfSet(ctx.String(flags.BrowserstackConfig.Name))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for browserstack config: %w", err)
		}
		overrides.Set(options.BrowserstackConfig, options.StringValue(bsConfig))
	}

	metricsCfg := opmetrics.ReadCLIConfig(ctx)
	if err := metricsCfg.Check(); err != nil {
		return nil, fmt.Errorf("invalid metrics config: %w", err)
	}

	return &Config{
		Project:        project,
		WorkspaceRoot:  absRoot,
		Target:         ctx.String(flags.Target.Name),
		Configuration:  ctx.String(flags.Configuration.Name),
		GraphFile:      graphFile,
		OptionsFile:    optionsFile,
		FlagOverrides:  overrides,
		SDKBinary:      ctx.String(flags.SDKBinary.Name),
		PackageManager: pm,
		LogDir:         logDir,
		MetricsConfig:  metricsCfg,
		Log:            log,
	}, nil
}

func absIfSet(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	return filepath.Abs(path)
}
