// Package loader builds schema.Model values from an on-disk source: a
// YAML schema file (this file, grounded on the teacher's
// loader.LoadModelsFromYAML, generalized from flat columns to the full
// Field/Relation/Index/Trigger model), or Go struct declarations carrying
// `sqlbuns` tags and directive comments (tags.go).
package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ridoystarlord/sqlbuns/internal/schema"
)

type yamlDoc struct {
	Models map[string]yamlModel `yaml:"models"`
}

type yamlModel struct {
	TableName string                    `yaml:"tableName"`
	Fields    map[string]yamlField      `yaml:"fields"`
	Relations map[string]yamlRelation   `yaml:"relations"`
	Indexes   []yamlIndex               `yaml:"indexes"`
	Triggers  map[string][]yamlStatement `yaml:"triggers"`
	Meta      yamlMeta                  `yaml:"meta"`
}

type yamlField struct {
	Kind          string   `yaml:"kind"`
	MaxLength     int      `yaml:"maxLength"`
	Precision     int      `yaml:"precision"`
	Scale         int      `yaml:"scale"`
	Choices       []string `yaml:"choices"`
	EnumTypeName  string   `yaml:"enumTypeName"`
	Nullable      bool     `yaml:"nullable"`
	Default       *string  `yaml:"default"`
	DefaultFunc   *string  `yaml:"defaultFunc"`
	Unique        bool     `yaml:"unique"`
	PrimaryKey    bool     `yaml:"primaryKey"`
	AutoIncrement bool     `yaml:"autoIncrement"`
	Comment       string   `yaml:"comment"`
	HelpText      string   `yaml:"helpText"`
}

type yamlRelation struct {
	Kind         string `yaml:"kind"`
	Target       string `yaml:"target"`
	ForeignKey   string `yaml:"foreignKey"`
	OtherKey     string `yaml:"otherKey"`
	ThroughTable string `yaml:"throughTable"`
}

type yamlIndex struct {
	Fields []string `yaml:"fields"`
	Unique bool     `yaml:"unique"`
	Name   string   `yaml:"name"`
}

type yamlStatement struct {
	Body string `yaml:"body"`
	When string `yaml:"when"`
}

type yamlMeta struct {
	Comment    string `yaml:"comment"`
	Timestamps bool   `yaml:"timestamps"`
}

var yamlFieldKinds = map[string]schema.FieldKind{
	"integer": schema.KindInteger, "decimal": schema.KindDecimal, "float": schema.KindFloat,
	"varchar": schema.KindVarchar, "text": schema.KindText, "enum": schema.KindEnum,
	"date": schema.KindDate, "datetime": schema.KindDateTime, "blob": schema.KindBlob,
	"boolean": schema.KindBoolean, "uuid": schema.KindUUID, "json": schema.KindJSON, "xml": schema.KindXML,
}

var yamlRelationKinds = map[string]schema.RelationKind{
	"hasOne": schema.HasOne, "hasMany": schema.HasMany, "manyToMany": schema.ManyToMany,
}

// LoadModelsFromYAML parses filename into an ordered set of models, in
// the file's map iteration order stabilized by declaration order in the
// document (YAML mappings decode in file order via yaml.v3's node walk,
// used here through a plain map plus a parallel order slice).
func LoadModelsFromYAML(filename string) (map[string]schema.Model, []string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("loader: reading schema file: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, nil, fmt.Errorf("loader: parsing schema file: %w", err)
	}

	var doc yamlDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("loader: unmarshalling schema file: %w", err)
	}

	order := modelDeclOrder(&root)
	if len(order) == 0 {
		for name := range doc.Models {
			order = append(order, name)
		}
	}

	models := make(map[string]schema.Model, len(doc.Models))
	for name, ym := range doc.Models {
		m, err := buildModel(name, ym)
		if err != nil {
			return nil, nil, fmt.Errorf("loader: model %q: %w", name, err)
		}
		models[name] = m
	}

	return models, order, nil
}

// modelDeclOrder walks the raw YAML node tree to recover the `models`
// mapping's declaration order, since Go maps do not preserve it.
func modelDeclOrder(root *yaml.Node) []string {
	if len(root.Content) == 0 {
		return nil
	}
	doc := root.Content[0]
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value == "models" {
			modelsNode := doc.Content[i+1]
			var order []string
			for j := 0; j+1 < len(modelsNode.Content); j += 2 {
				order = append(order, modelsNode.Content[j].Value)
			}
			return order
		}
	}
	return nil
}

func buildModel(name string, ym yamlModel) (schema.Model, error) {
	b := schema.NewModelBuilder(name)

	for fname, yf := range ym.Fields {
		kind, ok := yamlFieldKinds[yf.Kind]
		if !ok {
			return schema.Model{}, fmt.Errorf("field %q: unknown kind %q", fname, yf.Kind)
		}
		var def *schema.DefaultValue
		switch {
		case yf.DefaultFunc != nil:
			def = schema.FuncDefault(*yf.DefaultFunc)
		case yf.Default != nil:
			def = schema.StringDefault(*yf.Default)
		}
		f, err := schema.NewField(fname, schema.FieldOptions{
			Kind: kind, MaxLength: yf.MaxLength, Precision: yf.Precision, Scale: yf.Scale,
			Choices: yf.Choices, EnumTypeName: yf.EnumTypeName, Nullable: yf.Nullable, Default: def,
			Unique: yf.Unique, PrimaryKey: yf.PrimaryKey, AutoIncrement: yf.AutoIncrement,
			Comment: yf.Comment, HelpText: yf.HelpText,
		})
		if err != nil {
			return schema.Model{}, err
		}
		b.AddField(f)
	}

	base := ym.TableName
	if base == "" {
		base = name
	}
	for rname, yr := range ym.Relations {
		kind, ok := yamlRelationKinds[yr.Kind]
		if !ok {
			return schema.Model{}, fmt.Errorf("relation %q: unknown kind %q", rname, yr.Kind)
		}
		r, err := schema.NewRelation(rname, base, schema.RelationOptions{
			Kind: kind, Target: yr.Target, ForeignKey: yr.ForeignKey, OtherKey: yr.OtherKey, ThroughTable: yr.ThroughTable,
		})
		if err != nil {
			return schema.Model{}, err
		}
		b.AddRelation(r)
	}

	for slotName, stmts := range ym.Triggers {
		var statements []schema.Statement
		for _, s := range stmts {
			statements = append(statements, schema.NewStatement(s.Body, s.When))
		}
		t, err := schema.NewTrigger(schema.TriggerSlot(slotName), statements)
		if err != nil {
			return schema.Model{}, err
		}
		b.AddTrigger(t)
	}

	meta := schema.Meta{TableName: ym.TableName, Comment: ym.Meta.Comment, Timestamps: ym.Meta.Timestamps}
	for _, yi := range ym.Indexes {
		meta.Indexes = append(meta.Indexes, schema.Index{Fields: yi.Fields, Unique: yi.Unique, Name: yi.Name})
	}
	b.WithMeta(meta)

	return b.Build(), nil
}
