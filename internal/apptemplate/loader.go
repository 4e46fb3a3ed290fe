package apptemplate

import (
	"errors"
	"fmt"
	"io"
	"math"

	"gopkg.in/yaml.v3"
)

const (
	strTag       = "!!str"
	mergeTag     = "!!merge"
	timestampTag = "!!timestamp"
	binaryTag    = "!!binary"
)

// Load scans raw template text and parses the result into a Document.
func Load(raw string) (*Document, error) {
	text, reg, err := NewScanner().Scan(raw)
	if err != nil {
		return nil, err
	}
	return Parse(text, reg)
}

// Parse builds a Document from scanned text.
// A string scalar equal to a registered identifier becomes a FieldRef; identifiers inside longer
// strings stay literal.
func Parse(text string, reg *Registry) (*Document, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, &InvalidTemplateError{Reason: "malformed document", Err: err}
	}
	b := builder{reg: reg, active: make(map[*yaml.Node]bool)}
	var root Node
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		var err error
		if root, err = b.build(doc.Content[0]); err != nil {
			return nil, err
		}
	}
	return &Document{Root: root, Fields: reg, Text: text}, nil
}

type builder struct {
	reg    *Registry
	active map[*yaml.Node]bool
}

func (b *builder) build(n *yaml.Node) (Node, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return &Scalar{}, nil
		}
		return b.build(n.Content[0])
	case yaml.AliasNode:
		if b.active[n.Alias] {
			return nil, &InvalidTemplateError{Reason: "recursive alias", Line: n.Line, Col: n.Column - 1}
		}
		b.active[n.Alias] = true
		defer delete(b.active, n.Alias)
		return b.build(n.Alias)
	case yaml.SequenceNode:
		seq := &Sequence{Items: make([]Node, 0, len(n.Content))}
		for _, child := range n.Content {
			item, err := b.build(child)
			if err != nil {
				return nil, err
			}
			seq.Items = append(seq.Items, item)
		}
		return seq, nil
	case yaml.MappingNode:
		return b.mapping(n)
	case yaml.ScalarNode:
		return b.scalar(n)
	default:
		return nil, &InvalidTemplateError{Reason: fmt.Sprintf("unsupported node kind %d", n.Kind), Line: n.Line, Col: n.Column - 1}
	}
}

func (b *builder) mapping(n *yaml.Node) (Node, error) {
	m := &Mapping{Items: make([]MapItem, 0, len(n.Content)/2)}
	var merged []MapItem
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valueNode := n.Content[i], n.Content[i+1]
		if keyNode.Kind == yaml.ScalarNode && keyNode.ShortTag() == mergeTag {
			items, err := b.merge(valueNode)
			if err != nil {
				return nil, err
			}
			merged = append(merged, items...)
			continue
		}
		key, err := b.build(keyNode)
		if err != nil {
			return nil, err
		}
		value, err := b.build(valueNode)
		if err != nil {
			return nil, err
		}
		m.Items = append(m.Items, MapItem{Key: key, Value: value})
	}
	for _, item := range merged {
		s, ok := item.Key.(*Scalar)
		if !ok {
			m.Items = append(m.Items, item)
			continue
		}
		if _, exists := m.Get(scalarKey(s.Value)); !exists {
			m.Items = append(m.Items, item)
		}
	}
	return m, nil
}

// merge resolves the value of a `<<` key: a mapping or a sequence of mappings.
func (b *builder) merge(n *yaml.Node) ([]MapItem, error) {
	node, err := b.build(n)
	if err != nil {
		return nil, err
	}
	switch t := node.(type) {
	case *Mapping:
		return t.Items, nil
	case *Sequence:
		var items []MapItem
		for _, child := range t.Items {
			m, ok := child.(*Mapping)
			if !ok {
				return nil, &InvalidTemplateError{Reason: "merge source is not a mapping", Line: n.Line, Col: n.Column - 1}
			}
			items = append(items, m.Items...)
		}
		return items, nil
	default:
		return nil, &InvalidTemplateError{Reason: "merge source is not a mapping", Line: n.Line, Col: n.Column - 1}
	}
}

func (b *builder) scalar(n *yaml.Node) (Node, error) {
	switch n.ShortTag() {
	case strTag:
		if b.reg.field(n.Value) != nil {
			return &FieldRef{UID: n.Value}, nil
		}
		return &Scalar{Value: n.Value}, nil
	case timestampTag, binaryTag:
		return &Scalar{Value: n.Value}, nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, &InvalidTemplateError{Reason: "malformed scalar", Line: n.Line, Col: n.Column - 1, Err: err}
	}
	switch t := v.(type) {
	case int64:
		v = int(t)
	case uint64:
		if t <= math.MaxInt64 {
			v = int(t)
		}
	}
	return &Scalar{Value: v}, nil
}
