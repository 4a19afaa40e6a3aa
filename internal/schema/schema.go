package schema

// Schema is an ordered mapping model-key -> Model, ordered by topological
// sort over relation dependencies (internal/depgraph produces the order;
// this type just carries it).
type Schema struct {
	order  []string
	models map[string]Model
}

// NewSchema builds a Schema from a mapping and an explicit order. Callers
// resolve order via internal/depgraph before constructing a Schema.
func NewSchema(models map[string]Model, order []string) Schema {
	copied := make(map[string]Model, len(models))
	for k, v := range models {
		copied[k] = v
	}
	return Schema{order: append([]string(nil), order...), models: copied}
}

// Order returns model keys in topological order.
func (s Schema) Order() []string { return append([]string(nil), s.order...) }

// Models returns the underlying key->Model mapping.
func (s Schema) Models() map[string]Model { return s.models }

// Get looks up a model by key.
func (s Schema) Get(key string) (Model, bool) {
	m, ok := s.models[key]
	return m, ok
}

// InOrder iterates models in topological order.
func (s Schema) InOrder() []Model {
	out := make([]Model, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.models[k])
	}
	return out
}

// ByEffectiveTableName indexes models by their effective table name. The
// differ does not use it: it correlates old and current models by model
// key.
func (s Schema) ByEffectiveTableName() map[string]Model {
	out := make(map[string]Model, len(s.models))
	for _, m := range s.models {
		out[m.EffectiveTableName()] = m
	}
	return out
}
