package canon

import "github.com/ridoystarlord/sqlbuns/internal/schema"

// NormalizeIndexNamesForChecksum implements spec C1's pre-checksum
// normalization: two schemas that differ only by an auto-synthesized
// index name must hash equally. Walk old and current pairwise by
// effective table name; for matching index keys (<sorted fields>|<unique?>),
// when current lacks an explicit name but old has one, strip old's name
// before checksumming. current is never altered, and no name is
// fabricated for current.
func NormalizeIndexNamesForChecksum(old, current map[string]schema.Model) map[string]schema.Model {
	oldByTable := map[string]schema.Model{}
	for _, m := range old {
		oldByTable[m.EffectiveTableName()] = m
	}
	currentByTable := map[string]schema.Model{}
	for _, m := range current {
		currentByTable[m.EffectiveTableName()] = m
	}

	out := make(map[string]schema.Model, len(old))
	for key, oldModel := range old {
		curModel, ok := currentByTable[oldModel.EffectiveTableName()]
		if !ok {
			out[key] = oldModel
			continue
		}

		curKeys := map[string]bool{}
		for _, idx := range curModel.Meta.Indexes {
			if idx.Name == "" {
				curKeys[idx.Key()] = true
			}
		}

		newIndexes := make([]schema.Index, len(oldModel.Meta.Indexes))
		for i, idx := range oldModel.Meta.Indexes {
			if idx.Name != "" && curKeys[idx.Key()] {
				idx.Name = ""
			}
			newIndexes[i] = idx
		}
		oldModel.Meta.Indexes = newIndexes
		out[key] = oldModel
	}
	return out
}
