// Package yaml adapts schema versions to YAML documents using gopkg.in/yaml.v3.
package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reoring/verskema"
	"github.com/reoring/verskema/codec"
)

// Adapter returns a verskema.Adapter for V reading and writing YAML mappings.
func Adapter[V verskema.Versioned](opts ...codec.Option) verskema.Adapter[V] {
	return verskema.NewAdapter(Codec[V](opts...))
}

// Codec returns the YAML codec for V.
func Codec[V verskema.Versioned](opts ...codec.Option) verskema.Codec[V] {
	return yamlCodec[V]{key: codec.Apply(opts).TagKey}
}

type yamlCodec[V verskema.Versioned] struct{ key string }

func (yamlCodec[V]) Name() string { return "yaml" }

func (c yamlCodec[V]) PeekTag(data []byte) (verskema.Tag, error) { return PeekTag(data, c.key) }

func (yamlCodec[V]) Unmarshal(data []byte) (V, error) {
	var v V
	err := yaml.Unmarshal(data, &v)
	return v, err
}

func (c yamlCodec[V]) Marshal(v V) ([]byte, error) {
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	if err := InjectTag(&n, c.key, v.SchemaVersion()); err != nil {
		return nil, err
	}
	var b bytes.Buffer
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(&n); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// InjectTag puts key:tag in front of the mapping node n.
func InjectTag(n *yaml.Node, key string, tag verskema.Tag) error {
	if n.Kind != yaml.MappingNode {
		return errors.New("yaml: value does not encode to a mapping")
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return fmt.Errorf("%w: %q", verskema.ErrTagConflict, key)
		}
	}
	k := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	v := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(int(tag))}
	n.Content = append([]*yaml.Node{k, v}, n.Content...)
	return nil
}

// PeekTag reads the integer stored under key in the top-level mapping of the
// first document in data. Only the tag field is decoded. When the document
// does not parse, the top-level "key: N" line is read on its own, so a record
// that declares its tag but is broken elsewhere still reports that tag.
func PeekTag(data []byte, key string) (verskema.Tag, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		tag, serr := scanTag(data, key)
		if serr != nil {
			return 0, absent("%v", err)
		}
		return tag, nil
	}
	return tagIn(&doc, key)
}

// scanTag looks for key at column 0 in the first document and parses that
// line alone.
func scanTag(data []byte, key string) (verskema.Tag, error) {
	prefix := key + ":"
	content := false
	for line := range bytes.Lines(data) {
		s := strings.TrimRight(string(line), "\r\n")
		switch {
		case s == "---" || strings.HasPrefix(s, "--- "):
			if content {
				return 0, absent("no %q key", key)
			}
			continue
		case s == "...":
			return 0, absent("no %q key", key)
		case strings.TrimSpace(s) == "" || strings.HasPrefix(strings.TrimSpace(s), "#"):
			continue
		}
		content = true
		if !strings.HasPrefix(s, prefix) {
			continue
		}
		var n yaml.Node
		if err := yaml.Unmarshal([]byte(s), &n); err != nil {
			return 0, absent("%v", err)
		}
		return tagIn(&n, key)
	}
	return 0, absent("no %q key", key)
}

func tagIn(doc *yaml.Node, key string) (verskema.Tag, error) {
	root := doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return 0, absent("document is not a mapping")
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != key {
			continue
		}
		v := root.Content[i+1]
		if v.Kind != yaml.ScalarNode || v.ShortTag() != "!!int" {
			return 0, absent("tag is not an integer")
		}
		var t int
		if err := v.Decode(&t); err != nil {
			return 0, absent("%v", err)
		}
		return verskema.Tag(t), nil
	}
	return 0, absent("no %q key", key)
}

func absent(format string, args ...any) error {
	return fmt.Errorf("yaml: %w: %s", verskema.ErrTagAbsent, fmt.Sprintf(format, args...))
}
