package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	includeTag  = "!include"
	includesTag = "!includes"

	maxIncludeDepth = 16
)

// readYAML parses the file at path and expands include tags. Relative include
// paths are resolved against the directory of the file that names them.
func readYAML(path string, depth int) (*yaml.Node, error) {
	if depth > maxIncludeDepth {
		return nil, fmt.Errorf("config: includes nested deeper than %d at %s", maxIncludeDepth, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null"}, nil
	}
	root := doc.Content[0]
	if err := expandIncludes(root, filepath.Dir(path), depth); err != nil {
		return nil, err
	}
	return root, nil
}

func expandIncludes(n *yaml.Node, dir string, depth int) error {
	if n.Kind == yaml.ScalarNode {
		switch n.Tag {
		case includeTag:
			inc, err := readYAML(resolvePath(dir, n.Value), depth+1)
			if err != nil {
				return err
			}
			*n = *inc
			return nil
		case includesTag:
			seq, err := readDir(resolvePath(dir, n.Value), depth+1)
			if err != nil {
				return err
			}
			*n = *seq
			return nil
		}
	}
	for _, c := range n.Content {
		if err := expandIncludes(c, dir, depth); err != nil {
			return err
		}
	}
	return nil
}

// readDir loads every file of dir, in name order, into a sequence.
func readDir(dir string, depth int) (*yaml.Node, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n, err := readYAML(filepath.Join(dir, e.Name()), depth)
		if err != nil {
			return nil, err
		}
		seq.Content = append(seq.Content, n)
	}
	return seq, nil
}

func resolvePath(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
