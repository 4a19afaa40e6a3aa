package schema

import (
	"fmt"

	"github.com/ridoystarlord/sqlbuns/internal/sqlbunserr"
)

// FieldKind is the sum type replacing the source's string-or-constructor
// type tag (see Design Notes item 3).
type FieldKind int

const (
	KindInteger FieldKind = iota
	KindDecimal
	KindFloat
	KindVarchar
	KindText
	KindEnum
	KindDate
	KindDateTime
	KindBlob
	KindBoolean
	KindUUID
	KindJSON
	KindXML
)

func (k FieldKind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindDecimal:
		return "decimal"
	case KindFloat:
		return "float"
	case KindVarchar:
		return "varchar"
	case KindText:
		return "text"
	case KindEnum:
		return "enum"
	case KindDate:
		return "date"
	case KindDateTime:
		return "datetime"
	case KindBlob:
		return "blob"
	case KindBoolean:
		return "boolean"
	case KindUUID:
		return "uuid"
	case KindJSON:
		return "json"
	case KindXML:
		return "xml"
	default:
		return "unknown"
	}
}

// Field is a frozen column definition. Construct with NewField; do not
// build a Field literal directly outside this package, so invariants
// always hold.
type Field struct {
	Name          string
	Kind          FieldKind
	MaxLength     int      // varchar
	Precision     int      // decimal
	Scale         int      // decimal
	Choices       []string // enum, ordered, distinct
	EnumTypeName  string   // optional Postgres CREATE TYPE name override
	Nullable      bool
	Default       *DefaultValue
	Unique        bool
	PrimaryKey    bool
	AutoIncrement bool
	Comment       string
	HelpText      string // never emitted to SQL or snapshot
}

// DefaultValue is either a literal or a raw SQL function token
// (e.g. CURRENT_TIMESTAMP, gen_random_uuid()).
type DefaultValue struct {
	Literal    string
	IsFunction bool
}

// FieldOptions collects the constructor arguments for NewField.
type FieldOptions struct {
	Kind          FieldKind
	MaxLength     int
	Precision     int
	Scale         int
	Choices       []string
	EnumTypeName  string
	Nullable      bool
	Default       *DefaultValue
	Unique        bool
	PrimaryKey    bool
	AutoIncrement bool
	Comment       string
	HelpText      string
}

// NewField validates and freezes a Field. NOT NULL is the default per
// spec: Nullable must be explicitly requested.
func NewField(name string, opts FieldOptions) (Field, error) {
	f := Field{
		Name:          name,
		Kind:          opts.Kind,
		MaxLength:     opts.MaxLength,
		Precision:     opts.Precision,
		Scale:         opts.Scale,
		Nullable:      opts.Nullable,
		Default:       opts.Default,
		Unique:        opts.Unique,
		PrimaryKey:    opts.PrimaryKey,
		AutoIncrement: opts.AutoIncrement,
		Comment:       opts.Comment,
		HelpText:      opts.HelpText,
	}

	if opts.Kind == KindEnum {
		choices := append([]string(nil), opts.Choices...)
		if len(choices) == 0 {
			return Field{}, fmt.Errorf("field %q: %w: enum choices must be non-empty", name, sqlbunserr.ErrInvalidField)
		}
		seen := make(map[string]bool, len(choices))
		for _, c := range choices {
			if seen[c] {
				return Field{}, fmt.Errorf("field %q: %w: duplicate enum choice %q", name, sqlbunserr.ErrInvalidField, c)
			}
			seen[c] = true
		}
		if f.Default != nil && !f.Default.IsFunction {
			if !seen[f.Default.Literal] {
				return Field{}, fmt.Errorf("field %q: %w: default %q not in choices", name, sqlbunserr.ErrInvalidField, f.Default.Literal)
			}
		}
		f.Choices = choices
		f.EnumTypeName = opts.EnumTypeName
	}

	if opts.AutoIncrement {
		if opts.Kind != KindInteger {
			return Field{}, fmt.Errorf("field %q: %w: auto-increment requires integer type", name, sqlbunserr.ErrInvalidField)
		}
		if !opts.PrimaryKey {
			return Field{}, fmt.Errorf("field %q: %w: auto-increment requires primary key", name, sqlbunserr.ErrInvalidField)
		}
	}

	return f, nil
}

// StringDefault builds a literal string default.
func StringDefault(v string) *DefaultValue { return &DefaultValue{Literal: v} }

// FuncDefault builds an unquoted SQL-function-token default such as
// CURRENT_TIMESTAMP or gen_random_uuid().
func FuncDefault(v string) *DefaultValue { return &DefaultValue{Literal: v, IsFunction: true} }
