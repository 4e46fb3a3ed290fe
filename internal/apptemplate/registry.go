package apptemplate

// Registry is the set of fields declared by one template.
// It is populated by a single Scan call and read-only afterwards.
type Registry struct {
	byName map[string]*Field
	byUID  map[string]*Field
	order  []*Field
}

func newRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Field),
		byUID:  make(map[string]*Field),
	}
}

// insertIfAbsent returns the field registered under name, creating it with mk when missing.
// The boolean reports whether a new field was created.
func (r *Registry) insertIfAbsent(name string, mk func() *Field) (*Field, bool) {
	if f, ok := r.byName[name]; ok {
		return f, false
	}
	f := mk()
	r.byName[name] = f
	r.byUID[f.UID] = f
	r.order = append(r.order, f)
	return f, true
}

func (r *Registry) hasUID(uid string) bool {
	_, ok := r.byUID[uid]
	return ok
}

// Lookup returns the field declared under name.
func (r *Registry) Lookup(name string) (Field, bool) {
	if r == nil {
		return Field{}, false
	}
	f, ok := r.byName[name]
	if !ok {
		return Field{}, false
	}
	return *f, true
}

// ByUID returns the field owning uid.
func (r *Registry) ByUID(uid string) (Field, bool) {
	if r == nil {
		return Field{}, false
	}
	f, ok := r.byUID[uid]
	if !ok {
		return Field{}, false
	}
	return *f, true
}

// Fields returns all fields in order of first occurrence.
func (r *Registry) Fields() []Field {
	if r == nil {
		return nil
	}
	out := make([]Field, 0, len(r.order))
	for _, f := range r.order {
		out = append(out, *f)
	}
	return out
}

// Len returns the number of declared fields.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

func (r *Registry) field(uid string) *Field {
	if r == nil {
		return nil
	}
	return r.byUID[uid]
}
