package apptemplate

import (
	"fmt"
	"reflect"
)

// AppVariablesKey is the top-level key that records the values used by a fill.
const AppVariablesKey = "appVariables"

// Values maps field names to user-supplied overrides. A nil value selects the default.
type Values map[string]any

// Filled is the result of filling a Document.
type Filled struct {
	// Root is the concrete document including the appVariables section.
	Root map[string]any
	// Variables maps each used field name to the value that was substituted.
	Variables map[string]any
	// Used lists the names of fields referenced by the filled tree, in declaration order.
	Used []string
}

// Fill replaces every field reference with its override or default value.
// Only fields actually referenced by the tree are recorded as used.
func (d *Document) Fill(values Values) (*Filled, error) {
	root, ok := d.Root.(*Mapping)
	if !ok {
		return nil, Invalidf("template root is not a mapping")
	}
	f := filler{reg: d.Fields, values: values, used: make(map[string]any)}
	out := f.mapping(root)
	if f.err != nil {
		return nil, f.err
	}

	vars := make(map[string]any, len(f.used))
	var used []string
	for _, field := range d.Fields.Fields() {
		if v, ok := f.used[field.Name]; ok {
			vars[field.Name] = v
			used = append(used, field.Name)
		}
	}
	out[AppVariablesKey] = copyVariables(vars)
	return &Filled{Root: out, Variables: vars, Used: used}, nil
}

type filler struct {
	reg    *Registry
	values Values
	used   map[string]any
	err    error
}

func (f *filler) node(n Node) any {
	switch t := n.(type) {
	case *Mapping:
		return f.mapping(t)
	case *Sequence:
		out := make([]any, 0, len(t.Items))
		for _, item := range t.Items {
			out = append(out, f.node(item))
		}
		return out
	case *Scalar:
		return t.Value
	case *FieldRef:
		return f.resolve(t.UID)
	case nil:
		return nil
	default:
		panic(fmt.Sprintf("apptemplate: unexpected node %T", n))
	}
}

func (f *filler) mapping(m *Mapping) map[string]any {
	out := make(map[string]any, len(m.Items))
	for _, item := range m.Items {
		key := scalarKey(f.node(item.Key))
		if _, dup := out[key]; dup && f.err == nil {
			f.err = Invalidf("duplicate key %q", key)
		}
		out[key] = f.node(item.Value)
	}
	return out
}

func (f *filler) resolve(uid string) any {
	field := f.reg.field(uid)
	if field == nil {
		return uid
	}
	value := field.DefaultValue()
	if override, ok := f.values[field.Name]; ok && override != nil {
		value = override
		if coerced, ok := field.Coerce(override); ok {
			value = coerced
		}
	}
	f.used[field.Name] = value
	return value
}

func copyVariables(vars map[string]any) map[string]any {
	out := make(map[string]any, len(vars))
	for k, v := range vars {
		out[k] = v
	}
	return out
}

// Infer recovers field values by matching the document tree against a concrete document.
// It reports false when one field is bound to two different values.
func (d *Document) Infer(candidate any) (Values, bool) {
	values := make(Values)
	ok := infer(d.Fields, d.Root, candidate, values)
	return values, ok
}

func infer(reg *Registry, n Node, candidate any, values Values) bool {
	switch t := n.(type) {
	case *Mapping:
		c, ok := candidate.(map[string]any)
		if !ok {
			return true
		}
		for _, item := range t.Items {
			key, ok := item.Key.(*Scalar)
			if !ok {
				continue
			}
			v, ok := c[scalarKey(key.Value)]
			if !ok {
				continue
			}
			if !infer(reg, item.Value, v, values) {
				return false
			}
		}
	case *Sequence:
		c, ok := candidate.([]any)
		if !ok {
			return true
		}
		for i := 0; i < len(t.Items) && i < len(c); i++ {
			if !infer(reg, t.Items[i], c[i], values) {
				return false
			}
		}
	case *FieldRef:
		field := reg.field(t.UID)
		if field == nil {
			return true
		}
		if prev, ok := values[field.Name]; ok && !reflect.DeepEqual(prev, candidate) {
			return false
		}
		values[field.Name] = candidate
	}
	return true
}
