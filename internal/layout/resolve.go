package layout

import (
	"sort"
	"time"

	"weekplan/internal/grid"
	"weekplan/internal/model"
)

// Assignment is the slot span and column placement of one timed event on
// one day, before geometry mapping.
type Assignment struct {
	Event       model.Event
	StartSlot   int
	EndSlot     int // exclusive
	Column      int
	ColumnCount int
}

// ResolveDay assigns every timed event of one day a vertical slot span and
// a horizontal column among overlapping events.
//
// Events straddling the grid edges are clipped to the nearest slot
// boundary so they stay visible; only events entirely outside 06:00-24:00
// are excluded (with a diagnostic). The greedy lowest-free-column sweep
// over start-sorted events yields the minimum number of columns per
// overlap cluster, and the (start, end, id) sort order makes the output
// deterministic so that both rendering surfaces agree.
func ResolveDay(events []model.Event, day time.Time) ([]Assignment, []model.Diagnostic) {
	var diags []model.Diagnostic
	gridEnd := grid.TimeOf(grid.SlotsPerDay, day)

	assignments := make([]Assignment, 0, len(events))
	for _, ev := range events {
		if !ev.End.After(ev.Start) {
			diags = append(diags, model.Diagnostic{
				EventID: ev.ID,
				Date:    day,
				Reason:  "end time is not after start time",
			})
			continue
		}

		// Slot math happens in the day's location; event timestamps may
		// carry another zone.
		evStart := ev.Start.In(day.Location())
		evEnd := ev.End.In(day.Location())

		startIdx := grid.IndexOf(evStart)
		var endIdx int
		switch {
		case evEnd.After(gridEnd):
			// Runs past midnight: render on the start day only, clipped to
			// the bottom of the grid.
			endIdx = grid.SlotsPerDay
			diags = append(diags, model.Diagnostic{
				EventID: ev.ID,
				Date:    day,
				Reason:  "event runs past midnight; clipped to end of grid",
			})
		case evEnd.Equal(gridEnd):
			// Ends exactly at midnight: fully inside the grid, last slot used.
			endIdx = grid.SlotsPerDay
		case onSlotBoundary(evEnd):
			endIdx = grid.IndexOf(evEnd)
		default:
			endIdx = grid.IndexOf(evEnd) + 1
		}

		if endIdx <= 0 {
			diags = append(diags, model.Diagnostic{
				EventID: ev.ID,
				Date:    day,
				Reason:  "event lies entirely outside grid hours",
			})
			continue
		}

		start := grid.Clamp(startIdx)
		end := grid.Clamp(endIdx)
		if end <= start {
			// Degenerate after clamping: floor to one slot so the event
			// never renders invisibly.
			if start >= grid.SlotsPerDay {
				start = grid.SlotsPerDay - 1
			}
			end = start + 1
		}

		assignments = append(assignments, Assignment{
			Event:     ev,
			StartSlot: start,
			EndSlot:   end,
		})
	}

	sort.SliceStable(assignments, func(i, j int) bool {
		a, b := assignments[i], assignments[j]
		if a.StartSlot != b.StartSlot {
			return a.StartSlot < b.StartSlot
		}
		if a.EndSlot != b.EndSlot {
			return a.EndSlot < b.EndSlot
		}
		return a.Event.ID < b.Event.ID
	})

	assignColumns(assignments)
	return assignments, diags
}

// assignColumns walks start-sorted assignments, giving each event the
// lowest column that is free at its start slot and stamping every member
// of a maximal overlap cluster with the cluster's column count.
func assignColumns(assignments []Assignment) {
	clusterStart := 0
	// clusterEnd is the max EndSlot seen in the current cluster; colEnds
	// holds, per column, the EndSlot of the event currently occupying it.
	clusterEnd := 0
	var colEnds []int

	closeCluster := func(until int) {
		for i := clusterStart; i < until; i++ {
			assignments[i].ColumnCount = len(colEnds)
		}
	}

	for i := range assignments {
		a := &assignments[i]

		if len(colEnds) > 0 && a.StartSlot >= clusterEnd {
			// Disjoint from everything before it: previous cluster is done.
			closeCluster(i)
			clusterStart = i
			colEnds = colEnds[:0]
		}

		col := -1
		for c, end := range colEnds {
			if end <= a.StartSlot {
				col = c
				break
			}
		}
		if col == -1 {
			col = len(colEnds)
			colEnds = append(colEnds, 0)
		}
		colEnds[col] = a.EndSlot
		a.Column = col

		if a.EndSlot > clusterEnd {
			clusterEnd = a.EndSlot
		}
	}
	closeCluster(len(assignments))
}

// onSlotBoundary reports whether t falls exactly on a half-hour boundary.
func onSlotBoundary(t time.Time) bool {
	return (t.Minute() == 0 || t.Minute() == 30) && t.Second() == 0 && t.Nanosecond() == 0
}
