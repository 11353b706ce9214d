package storage

import (
	"errors"
	"fmt"
	"io"

	"github.com/wbrown/janus-quest/quest"
	"github.com/wbrown/janus-quest/quest/eval"
	"gopkg.in/yaml.v3"
)

// LoadWorld reads a YAML document of nested maps and flattens it into
// dotted paths, so that
//
//	player:
//	  gold: 10
//
// becomes player.gold = 10. Strings become text, numbers and booleans keep
// their type. Sequences and nulls are rejected.
func LoadWorld(r io.Reader) (map[string]quest.Value, error) {
	world := make(map[string]quest.Value)

	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return world, nil
		}
		return nil, fmt.Errorf("failed to decode world: %w", err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return world, nil
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("world must be a mapping at line %d", root.Line)
	}

	if err := flatten("", root, world); err != nil {
		return nil, err
	}
	return world, nil
}

func flatten(prefix string, n *yaml.Node, out map[string]quest.Value) error {
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, value := n.Content[i], n.Content[i+1]
			if key.Kind != yaml.ScalarNode || key.Value == "" {
				return fmt.Errorf("world keys must be non-empty scalars at line %d", key.Line)
			}
			path := key.Value
			if prefix != "" {
				path = prefix + "." + key.Value
			}
			if err := flatten(path, value, out); err != nil {
				return err
			}
		}
		return nil

	case yaml.AliasNode:
		return flatten(prefix, n.Alias, out)

	case yaml.ScalarNode:
		v, err := scalarValue(n)
		if err != nil {
			return fmt.Errorf("%s: %w", prefix, err)
		}
		out[prefix] = v
		return nil

	default:
		return fmt.Errorf("%s: unsupported value at line %d", prefix, n.Line)
	}
}

func scalarValue(n *yaml.Node) (quest.Value, error) {
	switch n.ShortTag() {
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return quest.Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		return quest.Number(f), nil
	case "!!str":
		return quest.Text(n.Value), nil
	case "!!null":
		return nil, fmt.Errorf("null value at line %d", n.Line)
	default:
		return nil, fmt.Errorf("unsupported scalar %s at line %d", n.ShortTag(), n.Line)
	}
}

// Seed writes every world entry into store
func Seed(store eval.Store, world map[string]quest.Value) {
	for path, v := range world {
		store.Set(path, v)
	}
}
