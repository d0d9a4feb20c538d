package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProjectFile is the per-project configuration file discovered in a workspace.
const ProjectFile = "project.json"

var skippedDirs = map[string]bool{
	"node_modules": true,
	"dist":         true,
}

type projectFile struct {
	Name        string             `yaml:"name"`
	SourceRoot  string             `yaml:"sourceRoot"`
	ProjectType string             `yaml:"projectType"`
	Targets     map[string]*Target `yaml:"targets"`
}

// DiscoverGraph builds a project graph from the project.json files under root.
// node_modules, dist and dot-directories are not searched. A project without a
// name is named after its directory.
func DiscoverGraph(root string) (*Graph, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root %s: %w", root, err)
	}

	g := &Graph{Nodes: make(map[string]*ProjectNode)}
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != absRoot && (skippedDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != ProjectFile {
			return nil
		}
		node, err := readProjectFile(absRoot, path)
		if err != nil {
			return err
		}
		if existing, ok := g.Nodes[node.Name]; ok {
			return fmt.Errorf("duplicate project name %q in %s and %s", node.Name, existing.Data.Root, node.Data.Root)
		}
		g.Nodes[node.Name] = node
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover projects in %s: %w", absRoot, err)
	}
	return g, nil
}

func readProjectFile(root, path string) (*ProjectNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pf projectFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return nil, err
	}
	name := pf.Name
	if name == "" {
		name = filepath.Base(dir)
	}
	typ := "lib"
	if pf.ProjectType == "application" {
		typ = "app"
	}
	return &ProjectNode{
		Name: name,
		Type: typ,
		Data: ProjectData{
			Root:       filepath.ToSlash(rel),
			SourceRoot: pf.SourceRoot,
			Targets:    pf.Targets,
		},
	}, nil
}
