package schema

import "sort"

// Meta carries model-level metadata excluded from field/relation maps.
type Meta struct {
	TableName  string // override; empty means use the model name
	Indexes    []Index
	Comment    string
	Timestamps bool
}

// Model is a table: an ordered mapping of fields, a mapping of relations,
// a mapping of trigger slots, and metadata. Construct once via
// NewModelBuilder(...).Build();
// a Model is never mutated after normalization.
type Model struct {
	Name        string
	fieldOrder  []string
	Fields      map[string]Field
	Relations   map[string]Relation
	Triggers    map[TriggerSlot]Trigger
	Meta        Meta
}

// EffectiveTableName is meta.tableName if present, else the model name.
func (m Model) EffectiveTableName() string {
	if m.Meta.TableName != "" {
		return m.Meta.TableName
	}
	return m.Name
}

// OrderedFields returns fields in the order they were added to the model.
func (m Model) OrderedFields() []Field {
	out := make([]Field, 0, len(m.fieldOrder))
	for _, n := range m.fieldOrder {
		out = append(out, m.Fields[n])
	}
	return out
}

// OrderedTriggers returns triggers sorted by slot name for deterministic
// iteration (insertion order isn't meaningful across a fixed slot set).
func (m Model) OrderedTriggers() []Trigger {
	slots := make([]string, 0, len(m.Triggers))
	for s := range m.Triggers {
		slots = append(slots, string(s))
	}
	sort.Strings(slots)
	out := make([]Trigger, 0, len(slots))
	for _, s := range slots {
		out = append(out, m.Triggers[TriggerSlot(s)])
	}
	return out
}

// ModelBuilder accumulates fields/relations/triggers before Build
// freezes them. This replaces the source's mutable-object-plus-spread
// construction (Design Notes item 2) with an explicit builder.
type ModelBuilder struct {
	name       string
	fieldOrder []string
	fields     map[string]Field
	relations  map[string]Relation
	triggers   map[TriggerSlot]Trigger
	meta       Meta
}

// NewModelBuilder starts building a model named name.
func NewModelBuilder(name string) *ModelBuilder {
	return &ModelBuilder{
		name:      name,
		fields:    map[string]Field{},
		relations: map[string]Relation{},
		triggers:  map[TriggerSlot]Trigger{},
	}
}

// AddField appends a field, preserving insertion order.
func (b *ModelBuilder) AddField(f Field) *ModelBuilder {
	if _, exists := b.fields[f.Name]; !exists {
		b.fieldOrder = append(b.fieldOrder, f.Name)
	}
	b.fields[f.Name] = f
	return b
}

// AddRelation registers a relation by name.
func (b *ModelBuilder) AddRelation(r Relation) *ModelBuilder {
	b.relations[r.Name] = r
	return b
}

// AddTrigger registers a trigger under its slot.
func (b *ModelBuilder) AddTrigger(t Trigger) *ModelBuilder {
	b.triggers[t.Slot] = t
	return b
}

// WithMeta sets the model's metadata.
func (b *ModelBuilder) WithMeta(m Meta) *ModelBuilder {
	b.meta = m
	return b
}

// Build freezes the accumulated definition into a Model.
func (b *ModelBuilder) Build() Model {
	fields := make(map[string]Field, len(b.fields))
	for k, v := range b.fields {
		fields[k] = v
	}
	relations := make(map[string]Relation, len(b.relations))
	for k, v := range b.relations {
		relations[k] = v
	}
	triggers := make(map[TriggerSlot]Trigger, len(b.triggers))
	for k, v := range b.triggers {
		triggers[k] = v
	}
	return Model{
		Name:       b.name,
		fieldOrder: append([]string(nil), b.fieldOrder...),
		Fields:     fields,
		Relations:  relations,
		Triggers:   triggers,
		Meta:       b.meta,
	}
}
