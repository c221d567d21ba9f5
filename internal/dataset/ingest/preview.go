package ingest

import "github.com/likhith1253/chemicalanalyzer/internal/dataset/entity"

// DefaultPreviewLimit bounds the number of rows shown in previews.
const DefaultPreviewLimit = 100

// Preview returns the first min(len(rows), limit) rows in their original
// order. The result does not share backing storage with rows.
func Preview(rows []entity.EquipmentRow, limit int) []entity.EquipmentRow {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	if len(rows) < limit {
		limit = len(rows)
	}

	out := make([]entity.EquipmentRow, limit)
	copy(out, rows[:limit])
	return out
}
