// Package yaml provides a YAML codec implementation.
package yaml

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/zoobzio/recast"
	"gopkg.in/yaml.v3"
)

// yamlCodec implements recast.Codec for YAML.
type yamlCodec struct{}

// New returns a YAML codec.
func New() recast.Codec {
	return &yamlCodec{}
}

// ContentType returns the MIME type for YAML.
func (c *yamlCodec) ContentType() string {
	return "application/yaml"
}

// Marshal encodes a tree as YAML, writing mapping keys in order.
func (c *yamlCodec) Marshal(tree any) ([]byte, error) {
	node, err := toNode(tree)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(node)
}

// Unmarshal decodes YAML data into a tree. Mappings keep their key order
// and aliases are expanded.
func (c *yamlCodec) Unmarshal(data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return fromNode(&doc)
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func toNode(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case nil:
		return scalar("!!null", "null"), nil
	case *recast.Map:
		if t == nil {
			return scalar("!!null", "null"), nil
		}
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		var err error
		t.Range(func(k string, item any) bool {
			var vn *yaml.Node
			vn, err = toNode(item)
			if err != nil {
				return false
			}
			node.Content = append(node.Content, scalar("!!str", k), vn)
			return true
		})
		if err != nil {
			return nil, err
		}
		return node, nil
	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range t {
			in, err := toNode(item)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, in)
		}
		return node, nil
	case bool:
		return scalar("!!bool", strconv.FormatBool(t)), nil
	case int64:
		return scalar("!!int", strconv.FormatInt(t, 10)), nil
	case uint64:
		return scalar("!!int", strconv.FormatUint(t, 10)), nil
	case float64:
		return scalar("!!float", formatFloat(t)), nil
	case string:
		return scalar("!!str", t), nil
	}

	node := &yaml.Node{}
	if err := node.Encode(v); err != nil {
		return nil, err
	}
	return node, nil
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func fromNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case 0:
		return nil, nil

	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromNode(n.Content[0])

	case yaml.AliasNode:
		return fromNode(n.Alias)

	case yaml.MappingNode:
		m := recast.NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, err := fromNode(n.Content[i])
			if err != nil {
				return nil, err
			}
			value, err := fromNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(keyString(key), value)
		}
		return m, nil

	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromNode(c)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil

	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return normalize(v)
	}
	return nil, fmt.Errorf("yaml: unsupported node kind %d", n.Kind)
}

func keyString(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprint(k)
}

// normalize reduces decoded YAML scalars to tree scalars.
func normalize(v any) (any, error) {
	switch t := v.(type) {
	case nil, bool, int64, uint64, float64, string:
		return t, nil
	case int:
		return int64(t), nil
	case []byte:
		return string(t), nil
	case time.Time:
		return t.Format(time.RFC3339Nano), nil
	}
	return nil, fmt.Errorf("yaml: unsupported scalar %T", v)
}
