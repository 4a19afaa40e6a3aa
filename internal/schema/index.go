package schema

import (
	"sort"
	"strings"
)

// Index describes an ordered set of columns, optionally unique, with an
// optionally user-supplied name.
type Index struct {
	Fields []string
	Unique bool
	Name   string // empty means auto-generate at emission time
}

// EffectiveName returns the user-supplied name, or the auto-generated
// idx_<table>_<fields-joined-by-underscore> form.
func (i Index) EffectiveName(table string) string {
	if i.Name != "" {
		return i.Name
	}
	return "idx_" + table + "_" + strings.Join(i.Fields, "_")
}

// Key builds the "<sorted fields>|<unique?>" identity used by the
// pre-checksum index-name normalization pass (spec C1).
func (i Index) Key() string {
	sorted := append([]string(nil), i.Fields...)
	sort.Strings(sorted)
	unique := "0"
	if i.Unique {
		unique = "1"
	}
	return strings.Join(sorted, ",") + "|" + unique
}
