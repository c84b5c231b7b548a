package formschema

import "admissions/pkg/types"

// Reorder moves the field fromID to the position held by toID, considering only the fields
// that match the predicate. Fields outside the predicate keep their slots in the flat list.
// The input is not modified. Unknown ids, or fromID == toID, return an unchanged copy.
func Reorder(fields []types.FieldSchema, match func(types.FieldSchema) bool, fromID, toID string) []types.FieldSchema {
	out := append([]types.FieldSchema(nil), fields...)
	if fromID == toID {
		return out
	}

	slots := make([]int, 0)
	from, to := -1, -1
	for i, f := range fields {
		if !match(f) {
			continue
		}
		if f.ID == fromID {
			from = len(slots)
		}
		if f.ID == toID {
			to = len(slots)
		}
		slots = append(slots, i)
	}

	if from < 0 || to < 0 {
		return out
	}

	subset := make([]types.FieldSchema, len(slots))
	for i, slot := range slots {
		subset[i] = fields[slot]
	}

	moved := subset[from]
	subset = append(subset[:from], subset[from+1:]...)
	subset = append(subset[:to], append([]types.FieldSchema{moved}, subset[to:]...)...)

	for i, slot := range slots {
		out[slot] = subset[i]
	}

	return out
}

// InSection matches fields of one (category, section) pair.
func InSection(category types.Category, section string) func(types.FieldSchema) bool {
	return func(f types.FieldSchema) bool {
		return f.Category == category && f.SectionName == section
	}
}
