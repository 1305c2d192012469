package layout

import (
	"time"

	"weekplan/internal/model"
)

// allDayMinDuration is the catch-all threshold for provider-side all-day
// encodings that do not align to midnight.
const allDayMinDuration = 20 * time.Hour

// IsAllDay reports whether an event renders as an all-day banner instead of
// a timed grid entry. An event is all-day when any of:
//
//   - the source explicitly marked it all-day;
//   - its duration is an exact positive multiple of 24 hours and it starts
//     exactly at midnight;
//   - its duration is at least 20 hours.
func IsAllDay(ev model.Event) bool {
	if ev.AllDayHint {
		return true
	}
	dur := ev.End.Sub(ev.Start)
	if dur <= 0 {
		return false
	}
	if dur%(24*time.Hour) == 0 && isMidnight(ev.Start) {
		return true
	}
	return dur >= allDayMinDuration
}

// Partition splits events into all-day and timed lists, preserving the
// relative order within each partition.
func Partition(events []model.Event) (allDay, timed []model.Event) {
	for _, ev := range events {
		if IsAllDay(ev) {
			allDay = append(allDay, ev)
		} else {
			timed = append(timed, ev)
		}
	}
	return allDay, timed
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}
