package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Structural limits for config documents. The layout section is free-form,
// so nesting is bounded explicitly; aliases are walked so a billion-laughs
// style document trips the node limit.
const (
	maxYAMLDepth     = 16
	maxYAMLNodes     = 5000
	maxYAMLKeyLength = 256
)

// checkYAML rejects documents that exceed the structural limits.
func checkYAML(data []byte) error {
	var root yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to parse config: %w", err)
	}
	w := &yamlWalker{}
	return w.walk(&root, 0)
}

type yamlWalker struct {
	nodes int
}

func (w *yamlWalker) walk(n *yaml.Node, depth int) error {
	if depth > maxYAMLDepth {
		return fmt.Errorf("config nesting depth exceeds %d", maxYAMLDepth)
	}
	w.nodes++
	if w.nodes > maxYAMLNodes {
		return fmt.Errorf("config has more than %d nodes", maxYAMLNodes)
	}

	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			if key := n.Content[i].Value; len(key) > maxYAMLKeyLength {
				return fmt.Errorf("config key of %d bytes exceeds %d", len(key), maxYAMLKeyLength)
			}
			if err := w.walk(n.Content[i+1], depth+1); err != nil {
				return err
			}
		}
	case yaml.DocumentNode:
		for _, c := range n.Content {
			if err := w.walk(c, depth); err != nil {
				return err
			}
		}
	case yaml.SequenceNode:
		for _, c := range n.Content {
			if err := w.walk(c, depth+1); err != nil {
				return err
			}
		}
	case yaml.AliasNode:
		if n.Alias != nil {
			return w.walk(n.Alias, depth+1)
		}
	}
	return nil
}
