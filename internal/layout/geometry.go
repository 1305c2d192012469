package layout

import (
	"weekplan/internal/grid"
	"weekplan/internal/model"
)

// RectOf converts a slot/column assignment into a normalized rectangle:
// fractions of one day-column's box, independent of the renderer's pixel
// or point scale. Height never collapses below one slot.
func RectOf(a Assignment) model.NormalizedRect {
	cols := a.ColumnCount
	if cols < 1 {
		cols = 1
	}
	span := a.EndSlot - a.StartSlot
	if span < 1 {
		span = 1
	}
	return model.NormalizedRect{
		Top:    float64(a.StartSlot) / grid.SlotsPerDay,
		Height: float64(span) / grid.SlotsPerDay,
		Left:   float64(a.Column) / float64(cols),
		Width:  1 / float64(cols),
	}
}
