// Package store implements C6: the on-disk schema snapshot, migration
// artifact naming/listing, and the `_sqlbuns_migrations` history table.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ridoystarlord/sqlbuns/internal/schema"
)

// SnapshotFileName is fixed, per spec C6.
const SnapshotFileName = "schema_snapshot.json"

// SnapshotPath joins the migrations directory with the fixed snapshot
// file name.
func SnapshotPath(migrationsDir string) string {
	return filepath.Join(migrationsDir, SnapshotFileName)
}

// snapshotDoc is the on-disk shape: a topologically ordered model list
// plus each model's full definition, not just its canonical view — a
// snapshot must round-trip back into schema.Model for diffing. HelpText
// is documentation-only metadata that is never emitted to SQL or the
// snapshot; it's re-supplied fresh from the model source (tags/YAML) on
// every load, so snapshotField carries no field for it at all. The
// canonical view (schema.Model.CanonicalView) separately normalizes
// trigger bodies for hashing only.
type snapshotDoc struct {
	Order  []string                 `json:"order"`
	Models map[string]snapshotModel `json:"models"`
}

type snapshotModel struct {
	Name      string             `json:"name"`
	Fields    []snapshotField    `json:"fields"`
	Relations []snapshotRelation `json:"relations,omitempty"`
	Triggers  []snapshotTrigger  `json:"triggers,omitempty"`
	Meta      snapshotMeta       `json:"meta"`
}

type snapshotField struct {
	Name          string   `json:"name"`
	Kind          string   `json:"kind"`
	MaxLength     int      `json:"maxLength,omitempty"`
	Precision     int      `json:"precision,omitempty"`
	Scale         int      `json:"scale,omitempty"`
	Choices       []string `json:"choices,omitempty"`
	EnumTypeName  string   `json:"enumTypeName,omitempty"`
	Nullable      bool     `json:"nullable"`
	DefaultLit    string   `json:"defaultLiteral,omitempty"`
	DefaultIsFunc bool     `json:"defaultIsFunction,omitempty"`
	HasDefault    bool     `json:"hasDefault,omitempty"`
	Unique        bool     `json:"unique,omitempty"`
	PrimaryKey    bool     `json:"primaryKey,omitempty"`
	AutoIncrement bool     `json:"autoIncrement,omitempty"`
	Comment       string   `json:"comment,omitempty"`
}

type snapshotRelation struct {
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	Target       string `json:"target"`
	ForeignKey   string `json:"foreignKey,omitempty"`
	OtherKey     string `json:"otherKey,omitempty"`
	ThroughTable string `json:"throughTable,omitempty"`
}

type snapshotStatement struct {
	Body string `json:"body"`
	When string `json:"when,omitempty"`
}

type snapshotTrigger struct {
	Slot       string              `json:"slot"`
	BaseName   string              `json:"baseName"`
	Statements []snapshotStatement `json:"statements"`
}

type snapshotIndex struct {
	Fields []string `json:"fields"`
	Unique bool     `json:"unique,omitempty"`
	Name   string   `json:"name,omitempty"`
}

type snapshotMeta struct {
	TableName  string          `json:"tableName,omitempty"`
	Indexes    []snapshotIndex `json:"indexes,omitempty"`
	Comment    string          `json:"comment,omitempty"`
	Timestamps bool            `json:"timestamps,omitempty"`
}

var kindNames = map[schema.FieldKind]string{
	schema.KindInteger:  "integer",
	schema.KindDecimal:  "decimal",
	schema.KindFloat:    "float",
	schema.KindVarchar:  "varchar",
	schema.KindText:     "text",
	schema.KindEnum:     "enum",
	schema.KindDate:     "date",
	schema.KindDateTime: "datetime",
	schema.KindBlob:     "blob",
	schema.KindBoolean:  "boolean",
	schema.KindUUID:     "uuid",
	schema.KindJSON:     "json",
	schema.KindXML:      "xml",
}

var kindByName = func() map[string]schema.FieldKind {
	out := make(map[string]schema.FieldKind, len(kindNames))
	for k, v := range kindNames {
		out[v] = k
	}
	return out
}()

var relationKindNames = map[schema.RelationKind]string{
	schema.HasOne:     "hasOne",
	schema.HasMany:    "hasMany",
	schema.ManyToMany: "manyToMany",
}

var relationKindByName = func() map[string]schema.RelationKind {
	out := make(map[string]schema.RelationKind, len(relationKindNames))
	for k, v := range relationKindNames {
		out[v] = k
	}
	return out
}()

func toSnapshotModel(m schema.Model) snapshotModel {
	sm := snapshotModel{Name: m.Name}
	for _, f := range m.OrderedFields() {
		sf := snapshotField{
			Name:          f.Name,
			Kind:          kindNames[f.Kind],
			MaxLength:     f.MaxLength,
			Precision:     f.Precision,
			Scale:         f.Scale,
			Choices:       f.Choices,
			EnumTypeName:  f.EnumTypeName,
			Nullable:      f.Nullable,
			Unique:        f.Unique,
			PrimaryKey:    f.PrimaryKey,
			AutoIncrement: f.AutoIncrement,
			Comment:       f.Comment,
		}
		if f.Default != nil {
			sf.HasDefault = true
			sf.DefaultLit = f.Default.Literal
			sf.DefaultIsFunc = f.Default.IsFunction
		}
		sm.Fields = append(sm.Fields, sf)
	}
	for _, name := range sortedKeys(m.Relations) {
		r := m.Relations[name]
		sm.Relations = append(sm.Relations, snapshotRelation{
			Name: r.Name, Kind: relationKindNames[r.Kind], Target: r.Target,
			ForeignKey: r.ForeignKey, OtherKey: r.OtherKey, ThroughTable: r.ThroughTable,
		})
	}
	for _, t := range m.OrderedTriggers() {
		st := snapshotTrigger{Slot: string(t.Slot), BaseName: t.BaseName}
		for _, s := range t.Statements {
			st.Statements = append(st.Statements, snapshotStatement{Body: s.Body, When: s.When})
		}
		sm.Triggers = append(sm.Triggers, st)
	}
	sm.Meta = snapshotMeta{
		TableName:  m.Meta.TableName,
		Comment:    m.Meta.Comment,
		Timestamps: m.Meta.Timestamps,
	}
	for _, idx := range m.Meta.Indexes {
		sm.Meta.Indexes = append(sm.Meta.Indexes, snapshotIndex{Fields: idx.Fields, Unique: idx.Unique, Name: idx.Name})
	}
	return sm
}

func fromSnapshotModel(sm snapshotModel) (schema.Model, error) {
	b := schema.NewModelBuilder(sm.Name)
	for _, sf := range sm.Fields {
		kind, ok := kindByName[sf.Kind]
		if !ok {
			return schema.Model{}, fmt.Errorf("store: unknown field kind %q in snapshot", sf.Kind)
		}
		var def *schema.DefaultValue
		if sf.HasDefault {
			def = &schema.DefaultValue{Literal: sf.DefaultLit, IsFunction: sf.DefaultIsFunc}
		}
		f, err := schema.NewField(sf.Name, schema.FieldOptions{
			Kind: kind, MaxLength: sf.MaxLength, Precision: sf.Precision, Scale: sf.Scale,
			Choices: sf.Choices, EnumTypeName: sf.EnumTypeName, Nullable: sf.Nullable,
			Default: def, Unique: sf.Unique, PrimaryKey: sf.PrimaryKey,
			AutoIncrement: sf.AutoIncrement, Comment: sf.Comment,
		})
		if err != nil {
			return schema.Model{}, err
		}
		b.AddField(f)
	}
	for _, sr := range sm.Relations {
		kind, ok := relationKindByName[sr.Kind]
		if !ok {
			return schema.Model{}, fmt.Errorf("store: unknown relation kind %q in snapshot", sr.Kind)
		}
		r, err := schema.NewRelation(sr.Name, sm.Meta.TableNameOr(sm.Name), schema.RelationOptions{
			Kind: kind, Target: sr.Target, ForeignKey: sr.ForeignKey, OtherKey: sr.OtherKey, ThroughTable: sr.ThroughTable,
		})
		if err != nil {
			return schema.Model{}, err
		}
		b.AddRelation(r)
	}
	for _, st := range sm.Triggers {
		var stmts []schema.Statement
		for _, s := range st.Statements {
			stmts = append(stmts, schema.NewStatement(s.Body, s.When))
		}
		t, err := schema.NewTrigger(schema.TriggerSlot(st.Slot), stmts)
		if err != nil {
			return schema.Model{}, err
		}
		b.AddTrigger(t)
	}
	meta := schema.Meta{TableName: sm.Meta.TableName, Comment: sm.Meta.Comment, Timestamps: sm.Meta.Timestamps}
	for _, si := range sm.Meta.Indexes {
		meta.Indexes = append(meta.Indexes, schema.Index{Fields: si.Fields, Unique: si.Unique, Name: si.Name})
	}
	b.WithMeta(meta)
	return b.Build(), nil
}

// TableNameOr returns TableName if set, else fallback — mirrors
// schema.Model.EffectiveTableName for the snapshot's own model struct.
func (m snapshotMeta) TableNameOr(fallback string) string {
	if m.TableName != "" {
		return m.TableName
	}
	return fallback
}

func sortedKeys(m map[string]schema.Relation) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// Load reads the snapshot at path. A missing file is not an error: it
// returns an empty schema, matching spec C7's "empty if absent".
func Load(path string) (models map[string]schema.Model, order []string, err error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]schema.Model{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("store: read snapshot: %w", err)
	}
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("store: parse snapshot: %w", err)
	}
	models = make(map[string]schema.Model, len(doc.Models))
	for key, sm := range doc.Models {
		m, err := fromSnapshotModel(sm)
		if err != nil {
			return nil, nil, err
		}
		models[key] = m
	}
	return models, doc.Order, nil
}

// Save writes the snapshot atomically: write to a temp file in the same
// directory, then rename over the destination, so a crash mid-write
// never leaves a truncated snapshot on disk.
func Save(path string, models map[string]schema.Model, order []string) error {
	doc := snapshotDoc{Order: order, Models: make(map[string]snapshotModel, len(models))}
	for key, m := range models {
		doc.Models[key] = toSnapshotModel(m)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal snapshot: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: create migrations dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".schema_snapshot-*.json")
	if err != nil {
		return fmt.Errorf("store: create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: rename temp snapshot: %w", err)
	}
	return nil
}
