package schema

// CanonicalView produces the deterministic, JSON-marshalable view of a
// Model used for checksumming (spec C1/C2). It excludes HelpText and
// user methods (methods are not represented in this Go port at all —
// see Design Notes item 1: methods are pure host callables, never bound
// to the model). Trigger statement bodies are normalized per
// NormalizeStatementForHash; emitted DDL is untouched.
//
// The map keys here are sorted when internal/canon.Serialize marshals the
// value with encoding/json; this function only needs to produce a value,
// not sort it.
func (m Model) CanonicalView() map[string]any {
	fields := map[string]any{}
	for _, f := range m.OrderedFields() {
		fields[f.Name] = fieldView(f)
	}

	relations := map[string]any{}
	for name, r := range m.Relations {
		relations[name] = relationView(r)
	}

	triggers := map[string]any{}
	for slot, t := range m.Triggers {
		triggers[string(slot)] = triggerView(t)
	}

	indexes := make([]any, 0, len(m.Meta.Indexes))
	for _, idx := range m.Meta.Indexes {
		indexes = append(indexes, indexView(idx, m.EffectiveTableName()))
	}

	return map[string]any{
		"name":      m.Name,
		"fields":    fields,
		"relations": relations,
		"triggers":  triggers,
		"meta": map[string]any{
			"tableName":  m.EffectiveTableName(),
			"indexes":    indexes,
			"comment":    m.Meta.Comment,
			"timestamps": m.Meta.Timestamps,
		},
	}
}

func fieldView(f Field) map[string]any {
	v := map[string]any{
		"kind":          f.Kind.String(),
		"nullable":      f.Nullable,
		"unique":        f.Unique,
		"primaryKey":    f.PrimaryKey,
		"autoIncrement": f.AutoIncrement,
		"comment":       f.Comment,
	}
	if f.Kind == KindVarchar {
		v["maxLength"] = f.MaxLength
	}
	if f.Kind == KindDecimal {
		v["precision"] = f.Precision
		v["scale"] = f.Scale
	}
	if f.Kind == KindEnum {
		v["choices"] = append([]string(nil), f.Choices...)
		v["enumTypeName"] = f.EnumTypeName
	}
	if f.Default != nil {
		v["default"] = map[string]any{
			"literal":    f.Default.Literal,
			"isFunction": f.Default.IsFunction,
		}
	} else {
		v["default"] = nil
	}
	return v
}

func relationView(r Relation) map[string]any {
	v := map[string]any{
		"kind":       r.Kind.String(),
		"target":     r.Target,
		"foreignKey": r.ForeignKey,
	}
	if r.Kind == ManyToMany {
		v["otherKey"] = r.OtherKey
		v["throughTable"] = r.ThroughTable
	}
	return v
}

func indexView(idx Index, table string) map[string]any {
	return map[string]any{
		"fields": append([]string(nil), idx.Fields...),
		"unique": idx.Unique,
		"name":   idx.Name, // deliberately empty when auto-generated; see internal/canon normalization
	}
}

func triggerView(t Trigger) map[string]any {
	stmts := make([]any, 0, len(t.Statements))
	for _, s := range t.Statements {
		stmts = append(stmts, map[string]any{
			"body": NormalizeStatementForHash(s.Body),
			"when": s.When,
		})
	}
	return map[string]any{
		"baseName":   t.BaseName,
		"timing":     string(t.Timing),
		"event":      string(t.Event),
		"statements": stmts,
	}
}
