package apptemplate

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Ordered encodes a filled document as a YAML node whose mapping keys follow the template order.
// Keys the template does not declare, such as appVariables, follow in sorted order.
func (d *Document) Ordered(filled map[string]any) (*yaml.Node, error) {
	vars, _ := filled[AppVariablesKey].(map[string]any)
	o := orderer{reg: d.Fields, vars: vars}
	return o.node(d.Root, filled)
}

type orderer struct {
	reg  *Registry
	vars map[string]any
}

func (o *orderer) node(tmpl Node, value any) (*yaml.Node, error) {
	switch v := value.(type) {
	case map[string]any:
		m, _ := tmpl.(*Mapping)
		return o.mapping(m, v)
	case []any:
		seq, _ := tmpl.(*Sequence)
		out := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, item := range v {
			var child Node
			if seq != nil && i < len(seq.Items) {
				child = seq.Items[i]
			}
			n, err := o.node(child, item)
			if err != nil {
				return nil, err
			}
			out.Content = append(out.Content, n)
		}
		return out, nil
	}
	return encodeNode(value)
}

func (o *orderer) mapping(tmpl *Mapping, value map[string]any) (*yaml.Node, error) {
	out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	seen := make(map[string]bool, len(value))
	add := func(key string, child Node) error {
		k, err := encodeNode(key)
		if err != nil {
			return err
		}
		v, err := o.node(child, value[key])
		if err != nil {
			return err
		}
		out.Content = append(out.Content, k, v)
		seen[key] = true
		return nil
	}

	if tmpl != nil {
		for _, item := range tmpl.Items {
			key := o.templateKey(item.Key)
			if _, ok := value[key]; !ok || seen[key] {
				continue
			}
			if err := add(key, item.Value); err != nil {
				return nil, err
			}
		}
	}
	rest := make([]string, 0, len(value)-len(seen))
	for key := range value {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		if err := add(key, nil); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// templateKey returns the filled form of a template mapping key.
func (o *orderer) templateKey(n Node) string {
	switch t := n.(type) {
	case *Scalar:
		return scalarKey(t.Value)
	case *FieldRef:
		field := o.reg.field(t.UID)
		if field == nil {
			return t.UID
		}
		if v, ok := o.vars[field.Name]; ok {
			return scalarKey(v)
		}
		return scalarKey(field.DefaultValue())
	}
	return ""
}

func encodeNode(v any) (*yaml.Node, error) {
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return &n, nil
}
