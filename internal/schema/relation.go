package schema

import (
	"fmt"

	"github.com/ridoystarlord/sqlbuns/internal/sqlbunserr"
)

// RelationKind enumerates the three relation shapes the data model supports.
type RelationKind int

const (
	HasOne RelationKind = iota
	HasMany
	ManyToMany
)

func (k RelationKind) String() string {
	switch k {
	case HasOne:
		return "hasOne"
	case HasMany:
		return "hasMany"
	case ManyToMany:
		return "manyToMany"
	default:
		return "unknown"
	}
}

// Relation is unidirectional; the parent-side expression is canonical.
type Relation struct {
	Name          string
	Kind          RelationKind
	Target        string
	ForeignKey    string
	OtherKey      string // manyToMany only
	ThroughTable  string // manyToMany only; auto-generated if empty
}

// RelationOptions collects NewRelation arguments.
type RelationOptions struct {
	Kind         RelationKind
	Target       string
	ForeignKey   string
	OtherKey     string
	ThroughTable string
}

// NewRelation validates and freezes a Relation. base is the owning
// model's effective table name, used to synthesize the through-table
// name when omitted.
func NewRelation(name, base string, opts RelationOptions) (Relation, error) {
	switch opts.Kind {
	case HasOne, HasMany, ManyToMany:
	default:
		return Relation{}, fmt.Errorf("relation %q: %w: unknown kind", name, sqlbunserr.ErrInvalidRelation)
	}
	if opts.Target == "" {
		return Relation{}, fmt.Errorf("relation %q: %w: target model required", name, sqlbunserr.ErrInvalidRelation)
	}

	r := Relation{
		Name:       name,
		Kind:       opts.Kind,
		Target:     opts.Target,
		ForeignKey: opts.ForeignKey,
		OtherKey:   opts.OtherKey,
	}

	if opts.Kind == ManyToMany {
		r.ThroughTable = opts.ThroughTable
		if r.ThroughTable == "" {
			r.ThroughTable = fmt.Sprintf("%s_%s_link", base, opts.Target)
		}
	}

	return r, nil
}
