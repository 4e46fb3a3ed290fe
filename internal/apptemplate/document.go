package apptemplate

import (
	"fmt"
	"strconv"
	"strings"
)

// Node is one element of a loaded template tree.
// It is implemented by Mapping, Sequence, Scalar and FieldRef only.
type Node interface {
	isNode()
}

// Mapping is an ordered set of key/value pairs.
type Mapping struct {
	Items []MapItem
}

// MapItem is one Mapping entry.
type MapItem struct {
	Key   Node
	Value Node
}

// Sequence is an ordered list of nodes.
type Sequence struct {
	Items []Node
}

// Scalar is a literal value: string, int, float64, bool or nil.
type Scalar struct {
	Value any
}

// FieldRef stands for a whole scalar that was exactly one placeholder.
// It refers to its field through the registry by UID.
type FieldRef struct {
	UID string
}

func (*Mapping) isNode()  {}
func (*Sequence) isNode() {}
func (*Scalar) isNode()   {}
func (*FieldRef) isNode() {}

// Get returns the value stored under a scalar key.
func (m *Mapping) Get(key string) (Node, bool) {
	if m == nil {
		return nil, false
	}
	for _, item := range m.Items {
		if s, ok := item.Key.(*Scalar); ok && scalarKey(s.Value) == key {
			return item.Value, true
		}
	}
	return nil, false
}

// Document is a loaded template: the node tree plus the fields it refers to.
// Documents are immutable; derived documents share unchanged subtrees.
type Document struct {
	Root   Node
	Fields *Registry
	// Text is the scanned template text with placeholders replaced by identifiers.
	Text string
}

// Lookup follows a path of mapping keys from the root.
func (d *Document) Lookup(path ...string) (Node, bool) {
	if d == nil {
		return nil, false
	}
	node := d.Root
	for _, key := range path {
		m, ok := node.(*Mapping)
		if !ok {
			return nil, false
		}
		if node, ok = m.Get(key); !ok {
			return nil, false
		}
	}
	return node, node != nil
}

// With returns a copy of the document where the node at path is replaced by value.
// Every mapping along the path must already exist.
func (d *Document) With(value Node, path ...string) (*Document, error) {
	if len(path) == 0 {
		return &Document{Root: value, Fields: d.Fields, Text: d.Text}, nil
	}
	root, ok := replaceAt(d.Root, path, value)
	if !ok {
		return nil, Invalidf("%s not found", strings.Join(path, "."))
	}
	return &Document{Root: root, Fields: d.Fields, Text: d.Text}, nil
}

func replaceAt(node Node, path []string, value Node) (Node, bool) {
	m, ok := node.(*Mapping)
	if !ok {
		return nil, false
	}
	for i, item := range m.Items {
		s, ok := item.Key.(*Scalar)
		if !ok || scalarKey(s.Value) != path[0] {
			continue
		}
		next := value
		if len(path) > 1 {
			if next, ok = replaceAt(item.Value, path[1:], value); !ok {
				return nil, false
			}
		}
		items := make([]MapItem, len(m.Items))
		copy(items, m.Items)
		items[i] = MapItem{Key: item.Key, Value: next}
		return &Mapping{Items: items}, true
	}
	return nil, false
}

// Walk calls fn for every node in pre-order. Returning false skips the children of a node.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	switch n := node.(type) {
	case *Mapping:
		for _, item := range n.Items {
			Walk(item.Key, fn)
			Walk(item.Value, fn)
		}
	case *Sequence:
		for _, item := range n.Items {
			Walk(item, fn)
		}
	case *Scalar, *FieldRef:
	default:
		panic(fmt.Sprintf("apptemplate: unexpected node %T", node))
	}
}

func scalarKey(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return "null"
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
