// Package workspace reads the build graph handed to the executor: the project
// nodes, their roots and target options, and the workspace's package manager.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/BrowserStackCE/browserstack-playwright-nx/options"
)

// WorkspaceMarker is the file that marks the root of a workspace.
const WorkspaceMarker = "nx.json"

// Graph is the project graph of a workspace, keyed by project name.
type Graph struct {
	Nodes map[string]*ProjectNode `yaml:"nodes"`
}

// ProjectNode is a single project in the graph.
type ProjectNode struct {
	Name string      `yaml:"name"`
	Type string      `yaml:"type"`
	Data ProjectData `yaml:"data"`
}

// ProjectData is the project configuration carried by a node.
type ProjectData struct {
	Root       string             `yaml:"root"`
	SourceRoot string             `yaml:"sourceRoot"`
	Targets    map[string]*Target `yaml:"targets"`
}

// Target is a runnable target of a project. Options are kept as raw nodes so
// their key order survives decoding.
type Target struct {
	Executor             string               `yaml:"executor"`
	Options              yaml.Node            `yaml:"options"`
	Configurations       map[string]yaml.Node `yaml:"configurations"`
	DefaultConfiguration string               `yaml:"defaultConfiguration"`
}

type graphFile struct {
	Graph *Graph                  `yaml:"graph"`
	Nodes map[string]*ProjectNode `yaml:"nodes"`
}

// LoadGraph reads a project graph export. Both {"graph":{"nodes":...}} and a bare
// {"nodes":...} document are accepted.
func LoadGraph(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project graph %s: %w", path, err)
	}
	var f graphFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse project graph %s: %w", path, err)
	}
	g := f.Graph
	if g == nil {
		g = &Graph{Nodes: f.Nodes}
	}
	if g.Nodes == nil {
		return nil, fmt.Errorf("project graph %s has no nodes", path)
	}
	for name, node := range g.Nodes {
		if node != nil && node.Name == "" {
			node.Name = name
		}
	}
	return g, nil
}

// Context is what the task runner knows about the task being executed.
type Context struct {
	Root              string // workspace root
	ProjectName       string
	TargetName        string
	ConfigurationName string
	ProjectGraph      *Graph
}

// Project returns the graph node for the current project.
func (c *Context) Project() (*ProjectNode, bool) {
	if c == nil || c.ProjectGraph == nil {
		return nil, false
	}
	node, ok := c.ProjectGraph.Nodes[c.ProjectName]
	if !ok || node == nil {
		return nil, false
	}
	return node, true
}

// ProjectRoot returns the current project's root, which is false when the
// project or its root is missing from the graph.
func (c *Context) ProjectRoot() (string, bool) {
	node, ok := c.Project()
	if !ok || node.Data.Root == "" {
		return "", false
	}
	return node.Data.Root, true
}

// TargetOptions returns the options configured for the current target, with the
// selected configuration (or the target's default one) layered on top.
// A project or target that is not in the graph has no options.
func (c *Context) TargetOptions() (*options.Options, error) {
	node, ok := c.Project()
	if !ok {
		return &options.Options{}, nil
	}
	target, ok := node.Data.Targets[c.TargetName]
	if !ok || target == nil {
		return &options.Options{}, nil
	}
	base, err := options.Decode(&target.Options)
	if err != nil {
		return nil, fmt.Errorf("target %s:%s: %w", c.ProjectName, c.TargetName, err)
	}

	configName := c.ConfigurationName
	if configName == "" {
		configName = target.DefaultConfiguration
	}
	if configName == "" {
		return base, nil
	}
	cfgNode, ok := target.Configurations[configName]
	if !ok {
		if c.ConfigurationName == "" {
			return base, nil
		}
		return nil, fmt.Errorf("configuration %q not found for target %s:%s", configName, c.ProjectName, c.TargetName)
	}
	overrides, err := options.Decode(&cfgNode)
	if err != nil {
		return nil, fmt.Errorf("target %s:%s:%s: %w", c.ProjectName, c.TargetName, configName, err)
	}
	return options.Merge(base, overrides), nil
}

// FindWorkspaceRoot walks up from dir to the nearest directory containing
// WorkspaceMarker. If none is found, dir itself is returned.
func FindWorkspaceRoot(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	for cur := abs; ; {
		if _, err := os.Stat(filepath.Join(cur, WorkspaceMarker)); err == nil {
			return cur
		} else if !errors.Is(err, os.ErrNotExist) {
			return abs
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs
		}
		cur = parent
	}
}
