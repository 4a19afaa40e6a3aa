// Package depgraph topologically sorts models by relation dependency
// (spec C4): an edge A -> B means "B owns a relation whose target is A",
// so A must be created before B.
package depgraph

import (
	"sort"

	"github.com/ridoystarlord/sqlbuns/internal/schema"
	"github.com/ridoystarlord/sqlbuns/internal/sqlbunserr"
)

type color int

const (
	white color = iota
	gray
	black
)

// Sort returns model keys ordered so that every relation target precedes
// its owner. Unknown relation targets introduce phantom nodes so isolated
// models still get visited. Order is stable: within equal depth, the
// input mapping's insertion order (given by keyOrder) is preserved.
func Sort(models map[string]schema.Model, keyOrder []string) ([]string, error) {
	// edges[owner] = targets that must come before owner
	edges := map[string][]string{}
	byTable := map[string]string{} // effective table name -> model key
	for _, k := range keyOrder {
		byTable[models[k].EffectiveTableName()] = k
	}

	for _, k := range keyOrder {
		m := models[k]
		for _, relName := range sortedRelationNames(m) {
			r := m.Relations[relName]
			targetKey, ok := byTable[r.Target]
			if !ok {
				// phantom node: keeps the target visitable even though
				// it owns no fields in this batch.
				targetKey = "\x00phantom:" + r.Target
			}
			edges[k] = append(edges[k], targetKey)
		}
	}

	var order []string
	colors := map[string]color{}
	var path []string

	var visit func(node string) error
	visit = func(node string) error {
		switch colors[node] {
		case black:
			return nil
		case gray:
			cycle := append(append([]string(nil), path...), node)
			return &sqlbunserr.CyclicSchemaError{Path: cycle}
		}
		colors[node] = gray
		path = append(path, node)
		for _, dep := range edges[node] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		colors[node] = black
		if !isPhantom(node) {
			order = append(order, node)
		}
		return nil
	}

	for _, k := range keyOrder {
		if colors[k] == white {
			if err := visit(k); err != nil {
				return nil, err
			}
		}
	}

	return order, nil
}

func isPhantom(node string) bool {
	return len(node) > 9 && node[:9] == "\x00phantom:"
}

func sortedRelationNames(m schema.Model) []string {
	names := make([]string, 0, len(m.Relations))
	for n := range m.Relations {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
