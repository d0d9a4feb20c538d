package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PackageManager is the Node package manager used by a workspace.
type PackageManager string

const (
	NPM  PackageManager = "npm"
	Yarn PackageManager = "yarn"
	PNPM PackageManager = "pnpm"
	Bun  PackageManager = "bun"
)

// String returns the string representation of the package manager
func (pm PackageManager) String() string {
	return string(pm)
}

// IsValid checks if the package manager is supported
func (pm PackageManager) IsValid() bool {
	switch pm {
	case NPM, Yarn, PNPM, Bun:
		return true
	default:
		return false
	}
}

// ValidPackageManagers returns all supported package managers
func ValidPackageManagers() []PackageManager {
	return []PackageManager{NPM, Yarn, PNPM, Bun}
}

// ParsePackageManager validates s as a package manager name.
func ParsePackageManager(s string) (PackageManager, error) {
	pm := PackageManager(strings.ToLower(strings.TrimSpace(s)))
	if !pm.IsValid() {
		return "", fmt.Errorf("invalid package manager: %s. Must be one of: %v", s, ValidPackageManagers())
	}
	return pm, nil
}

// lockfiles lists, in detection priority, the files that identify each package manager.
var lockfiles = []struct {
	pm    PackageManager
	files []string
}{
	{Bun, []string{"bun.lockb", "bun.lock"}},
	{Yarn, []string{"yarn.lock"}},
	{PNPM, []string{"pnpm-lock.yaml", "pnpm-workspace.yaml"}},
}

// DetectPackageManager inspects dir for lockfiles and falls back to npm.
func DetectPackageManager(dir string) PackageManager {
	for _, lf := range lockfiles {
		for _, name := range lf.files {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return lf.pm
			}
		}
	}
	return NPM
}

// PackageManagerCommands holds the command prefixes for a package manager.
type PackageManagerCommands struct {
	Exec []string // runs a binary from the workspace's dependencies
}

// Commands returns the command prefixes for pm.
func (pm PackageManager) Commands() PackageManagerCommands {
	switch pm {
	case Yarn:
		return PackageManagerCommands{Exec: []string{"yarn"}}
	case PNPM:
		return PackageManagerCommands{Exec: []string{"pnpm", "exec"}}
	case Bun:
		return PackageManagerCommands{Exec: []string{"bunx"}}
	default:
		return PackageManagerCommands{Exec: []string{"npx"}}
	}
}
