// Package grid defines the fixed half-hour time grid shared by every
// rendering surface: 36 slots from 06:00 to 23:30, slot 0 starting at
// 06:00 and slot 35 covering 23:30-24:00.
package grid

import (
	"sync"
	"time"
)

const (
	// StartHour is the wall-clock hour of slot 0.
	StartHour = 6
	// SlotMinutes is the duration of one slot.
	SlotMinutes = 30
	// SlotsPerDay is the total number of slots on the grid.
	SlotsPerDay = 36
)

// Slot is one 30-minute cell of the grid. Immutable; the full sequence is
// built once per process and shared read-only.
type Slot struct {
	Index        int
	Hour         int
	Minute       int
	HourBoundary bool // true when Minute == 0
}

var (
	slots     []Slot
	slotsOnce sync.Once
)

// Slots returns the fixed 36-slot sequence in ascending order. The returned
// slice is shared; callers must not modify it.
func Slots() []Slot {
	slotsOnce.Do(func() {
		slots = make([]Slot, SlotsPerDay)
		for i := range slots {
			h := StartHour + i/2
			m := (i % 2) * SlotMinutes
			slots[i] = Slot{
				Index:        i,
				Hour:         h,
				Minute:       m,
				HourBoundary: m == 0,
			}
		}
	})
	return slots
}

// IndexOf maps a wall-clock time to its slot index. The result is not
// clamped: times before 06:00 yield a negative index and times from 24:00
// onward yield an index >= SlotsPerDay. Callers decide the out-of-range
// policy (the overlap resolver clips).
func IndexOf(t time.Time) int {
	idx := (t.Hour() - StartHour) * 2
	if t.Minute() >= SlotMinutes {
		idx++
	}
	return idx
}

// InRange reports whether idx addresses a real slot.
func InRange(idx int) bool {
	return idx >= 0 && idx < SlotsPerDay
}

// Clamp clips a slot index into [0, SlotsPerDay].
// SlotsPerDay itself is allowed so that exclusive end indexes can point one
// past the last slot.
func Clamp(idx int) int {
	if idx < 0 {
		return 0
	}
	if idx > SlotsPerDay {
		return SlotsPerDay
	}
	return idx
}

// TimeOf reconstructs the wall-clock start time of a slot on the given
// calendar day. The day's location is preserved.
func TimeOf(idx int, day time.Time) time.Time {
	h := StartHour + idx/2
	m := (idx % 2) * SlotMinutes
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location())
}
