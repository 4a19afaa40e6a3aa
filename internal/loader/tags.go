package loader

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/ridoystarlord/sqlbuns/internal/schema"
)

// TagLoader walks a directory of .go files and builds schema.Model
// values from struct tags, generalizing the teacher's TagLoader (which
// produced a flat Column-only model) to the richer Field/Relation/
// Index/Trigger shape. Field tags use the "sqlbuns" key; struct-level
// indexes and triggers are declared via "+sqlbuns:index" /
// "+sqlbuns:trigger" doc-comment directives, since Go struct tags have
// no natural place to hang table-level declarations.
type TagLoader struct {
	modelsDir string
}

// NewTagLoader constructs a loader rooted at modelsDir.
func NewTagLoader(modelsDir string) *TagLoader {
	return &TagLoader{modelsDir: modelsDir}
}

// LoadModelsFromTags loads every model declared under modelsDir, in the
// order structs are encountered walking the directory tree.
func LoadModelsFromTags(modelsDir string) (map[string]schema.Model, []string, error) {
	return NewTagLoader(modelsDir).Load()
}

// Load walks modelsDir depth-first, parsing every .go file for tagged
// struct declarations.
func (tl *TagLoader) Load() (map[string]schema.Model, []string, error) {
	if _, err := os.Stat(tl.modelsDir); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("loader: models directory %q does not exist", tl.modelsDir)
	}

	models := map[string]schema.Model{}
	var order []string

	err := filepath.Walk(tl.modelsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".go") {
			return nil
		}
		fileModels, fileOrder, err := tl.parseGoFile(path)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		for _, name := range fileOrder {
			if _, exists := models[name]; !exists {
				order = append(order, name)
			}
			models[name] = fileModels[name]
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("loader: %w", err)
	}

	return models, order, nil
}

func (tl *TagLoader) parseGoFile(filePath string) (map[string]schema.Model, []string, error) {
	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, filePath, nil, parser.ParseComments)
	if err != nil {
		return nil, nil, err
	}

	models := map[string]schema.Model{}
	var order []string

	ast.Inspect(node, func(n ast.Node) bool {
		gd, ok := n.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			return true
		}
		for _, spec := range gd.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			st, ok := ts.Type.(*ast.StructType)
			if !ok {
				continue
			}
			m, err := tl.parseStruct(ts.Name.Name, st, gd.Doc)
			if err != nil || m == nil {
				continue
			}
			models[m.Name] = *m
			order = append(order, m.Name)
		}
		return true
	})

	return models, order, nil
}

func (tl *TagLoader) parseStruct(structName string, st *ast.StructType, doc *ast.CommentGroup) (*schema.Model, error) {
	b := schema.NewModelBuilder(toSnakeCase(structName))
	meta := schema.Meta{TableName: pluralize(toSnakeCase(structName))}

	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			continue
		}
		fieldName := field.Names[0].Name
		if !ast.IsExported(fieldName) {
			continue
		}

		tagValue := ""
		if field.Tag != nil {
			tagValue = reflect.StructTag(strings.Trim(field.Tag.Value, "`")).Get("sqlbuns")
		}
		if tagValue == "-" {
			continue
		}

		goType := fieldTypeName(field.Type)
		spec := parseFieldTag(tagValue)

		if spec.relationKindSet {
			r, err := schema.NewRelation(lowerFirst(fieldName), meta.TableName, schema.RelationOptions{
				Kind: spec.relationKind, Target: spec.target, ForeignKey: spec.foreignKey,
				OtherKey: spec.otherKey, ThroughTable: spec.throughTable,
			})
			if err != nil {
				return nil, err
			}
			b.AddRelation(r)
			continue
		}

		colName := spec.column
		if colName == "" {
			colName = toSnakeCase(fieldName)
		}
		kind := spec.kind
		if kind == 0 && spec.kindSet == false {
			kind = inferKind(goType)
		}

		var def *schema.DefaultValue
		switch {
		case spec.defaultFunc != "":
			def = schema.FuncDefault(spec.defaultFunc)
		case spec.defaultLit != nil:
			def = schema.StringDefault(*spec.defaultLit)
		}

		f, err := schema.NewField(colName, schema.FieldOptions{
			Kind: kind, MaxLength: spec.maxLength, Precision: spec.precision, Scale: spec.scale,
			Choices: spec.choices, EnumTypeName: spec.enumType, Nullable: spec.nullable, Default: def,
			Unique: spec.unique, PrimaryKey: spec.primary, AutoIncrement: spec.autoIncrement,
			Comment: spec.comment, HelpText: spec.help,
		})
		if err != nil {
			return nil, err
		}
		b.AddField(f)

		if spec.indexed {
			meta.Indexes = append(meta.Indexes, schema.Index{Fields: []string{colName}, Unique: spec.unique, Name: spec.indexName})
		}
	}

	directives := parseDirectives(doc)
	meta.Comment = directives.comment
	meta.Timestamps = directives.timestamps
	if directives.tableName != "" {
		meta.TableName = directives.tableName
	}
	meta.Indexes = append(meta.Indexes, directives.indexes...)
	b.WithMeta(meta)

	for slot, stmts := range directives.triggers {
		t, err := schema.NewTrigger(slot, stmts)
		if err != nil {
			return nil, err
		}
		b.AddTrigger(t)
	}

	m := b.Build()
	return &m, nil
}

type fieldTagSpec struct {
	column, comment, help                        string
	kind                                          schema.FieldKind
	kindSet                                       bool
	maxLength, precision, scale                   int
	choices                                       []string
	enumType                                      string
	nullable, unique, primary, autoIncrement      bool
	defaultLit                                    *string
	defaultFunc                                   string
	indexed                                       bool
	indexName                                     string
	relationKind                                  schema.RelationKind
	relationKindSet                               bool
	target, foreignKey, otherKey, throughTable    string
}

var tagFieldKinds = map[string]schema.FieldKind{
	"integer": schema.KindInteger, "decimal": schema.KindDecimal, "float": schema.KindFloat,
	"varchar": schema.KindVarchar, "text": schema.KindText, "enum": schema.KindEnum,
	"date": schema.KindDate, "datetime": schema.KindDateTime, "blob": schema.KindBlob,
	"boolean": schema.KindBoolean, "uuid": schema.KindUUID, "json": schema.KindJSON, "xml": schema.KindXML,
}

var tagRelationKinds = map[string]schema.RelationKind{
	"hasOne": schema.HasOne, "hasMany": schema.HasMany, "manyToMany": schema.ManyToMany,
}

// parseFieldTag parses the "sqlbuns" struct tag value, a semicolon
// separated list of bare flags and key:value pairs, generalizing the
// teacher's "column:x;type:text;primary;unique;not_null;default:v"
// vocabulary with kind/relation/index declarations.
func parseFieldTag(raw string) fieldTagSpec {
	var spec fieldTagSpec
	spec.nullable = false
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.Contains(part, ":") {
			switch part {
			case "primary":
				spec.primary = true
			case "unique":
				spec.unique = true
			case "nullable":
				spec.nullable = true
			case "autoIncrement":
				spec.autoIncrement = true
			case "index":
				spec.indexed = true
			}
			continue
		}
		kv := strings.SplitN(part, ":", 2)
		key, value := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		switch key {
		case "column":
			spec.column = value
		case "kind":
			if k, ok := tagFieldKinds[value]; ok {
				spec.kind, spec.kindSet = k, true
			}
		case "maxLength":
			spec.maxLength, _ = strconv.Atoi(value)
		case "precision":
			spec.precision, _ = strconv.Atoi(value)
		case "scale":
			spec.scale, _ = strconv.Atoi(value)
		case "choices":
			spec.choices = strings.Split(value, ",")
		case "enumType":
			spec.enumType = value
		case "default":
			spec.defaultLit = &value
		case "defaultFunc":
			spec.defaultFunc = value
		case "comment":
			spec.comment = value
		case "help":
			spec.help = value
		case "index":
			spec.indexed = true
			spec.indexName = value
		case "relation":
			if k, ok := tagRelationKinds[value]; ok {
				spec.relationKind, spec.relationKindSet = k, true
			}
		case "target":
			spec.target = value
		case "fk":
			spec.foreignKey = value
		case "otherKey":
			spec.otherKey = value
		case "through":
			spec.throughTable = value
		}
	}
	return spec
}

type structDirectives struct {
	tableName  string
	comment    string
	timestamps bool
	indexes    []schema.Index
	triggers   map[schema.TriggerSlot][]schema.Statement
}

// parseDirectives scans a struct's doc comment for "+sqlbuns:" lines,
// the table-level equivalent of the field tag vocabulary above, since
// Go struct tags have no attachment point for table-scoped concerns.
// Recognized forms:
//
//	+sqlbuns:table name=orders comment="..." timestamps
//	+sqlbuns:index fields=a,b unique name=idx_custom
//	+sqlbuns:trigger slot=beforeInsert body="..." when="NEW.x > 0"
func parseDirectives(doc *ast.CommentGroup) structDirectives {
	d := structDirectives{triggers: map[schema.TriggerSlot][]schema.Statement{}}
	if doc == nil {
		return d
	}
	for _, c := range doc.List {
		line := strings.TrimSpace(strings.TrimPrefix(c.Text, "//"))
		if !strings.HasPrefix(line, "+sqlbuns:") {
			continue
		}
		line = strings.TrimPrefix(line, "+sqlbuns:")
		fields := splitDirectiveFields(line)
		if len(fields) == 0 {
			continue
		}
		kind, args := fields[0], parseDirectiveArgs(fields[1:])

		switch kind {
		case "table":
			if v, ok := args["name"]; ok {
				d.tableName = v
			}
			if v, ok := args["comment"]; ok {
				d.comment = v
			}
			if _, ok := args["timestamps"]; ok {
				d.timestamps = true
			}
		case "index":
			idx := schema.Index{Name: args["name"]}
			if v, ok := args["fields"]; ok {
				idx.Fields = strings.Split(v, ",")
			}
			if _, ok := args["unique"]; ok {
				idx.Unique = true
			}
			d.indexes = append(d.indexes, idx)
		case "trigger":
			slot := schema.TriggerSlot(args["slot"])
			stmt := schema.NewStatement(args["body"], args["when"])
			d.triggers[slot] = append(d.triggers[slot], stmt)
		}
	}
	return d
}

// splitDirectiveFields tokenizes a directive line on spaces, respecting
// double-quoted spans so `body="a b c"` stays one token.
func splitDirectiveFields(line string) []string {
	var out []string
	var cur strings.Builder
	inQuote := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case r == ' ' && !inQuote:
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func parseDirectiveArgs(tokens []string) map[string]string {
	args := map[string]string{}
	for _, tok := range tokens {
		if !strings.Contains(tok, "=") {
			args[tok] = "true"
			continue
		}
		kv := strings.SplitN(tok, "=", 2)
		args[kv[0]] = strings.Trim(kv[1], `"`)
	}
	return args
}

func fieldTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return fieldTypeName(t.X)
	case *ast.ArrayType:
		return "[]" + fieldTypeName(t.Elt)
	case *ast.SelectorExpr:
		if x, ok := t.X.(*ast.Ident); ok {
			return x.Name + "." + t.Sel.Name
		}
	}
	return ""
}

func inferKind(goType string) schema.FieldKind {
	switch goType {
	case "int", "int32":
		return schema.KindInteger
	case "int64":
		return schema.KindInteger
	case "string":
		return schema.KindVarchar
	case "bool":
		return schema.KindBoolean
	case "float32", "float64":
		return schema.KindFloat
	case "time.Time":
		return schema.KindDateTime
	case "uuid.UUID":
		return schema.KindUUID
	default:
		if strings.HasPrefix(goType, "[]") {
			return schema.KindJSON
		}
		return schema.KindText
	}
}

func toSnakeCase(s string) string {
	var out strings.Builder
	var prev rune
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' && prev >= 'a' && prev <= 'z' {
			out.WriteByte('_')
		}
		out.WriteRune(r)
		prev = r
	}
	return strings.ToLower(out.String())
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func pluralize(s string) string {
	switch {
	case strings.HasSuffix(s, "y"):
		return strings.TrimSuffix(s, "y") + "ies"
	case strings.HasSuffix(s, "s"):
		return s
	default:
		return s + "s"
	}
}

// sortedDirectiveKeys returns a directive map's keys in sorted order; the
// parser itself does not call it.
func sortedDirectiveKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
